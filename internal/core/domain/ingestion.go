package domain

// IngestionReport summarises a successful ingestion.
type IngestionReport struct {
	DocumentID string `json:"doc_id"`

	// ChunkIDs lists the ingested chunks in sequence order.
	ChunkIDs []string `json:"chunk_ids"`

	// ChunksIngested is the number of chunks written to both stores.
	ChunksIngested int `json:"chunks_ingested"`

	// StaleRemoved counts chunks of an earlier version of the document
	// that were pruned because the new version no longer contains them.
	StaleRemoved int `json:"stale_removed"`
}
