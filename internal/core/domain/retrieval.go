package domain

import "fmt"

// Retrieval defaults.
const (
	DefaultAlpha = 0.5
	DefaultTopK  = 7
)

// QueryOptions configures a hybrid retrieval.
type QueryOptions struct {
	// K is the maximum number of results. Must be positive.
	K int

	// Alpha weights vector similarity against lexical relevance.
	// 0 is purely lexical, 1 is purely vector. Must be within [0, 1].
	Alpha float64
}

// DefaultQueryOptions returns the stock retrieval settings.
func DefaultQueryOptions() QueryOptions {
	return QueryOptions{K: DefaultTopK, Alpha: DefaultAlpha}
}

// HybridQuery is a fully resolved query handed to a vector index.
type HybridQuery struct {
	Text   string
	Vector []float32
	Alpha  float64
	K      int
}

// VectorRecord is what the vector index keeps per chunk: the vector, the
// text for lexical scoring, and enough metadata to locate the chunk.
type VectorRecord struct {
	ChunkID    string
	DocumentID string
	Sequence   int
	Text       string
	Vector     []float32
}

// Validate checks that the record can be indexed.
func (r VectorRecord) Validate() error {
	if r.ChunkID == "" {
		return fmt.Errorf("%w: record has no chunk ID", ErrInvalidInput)
	}
	if len(r.Vector) == 0 {
		return fmt.Errorf("%w: chunk %s has no vector", ErrInvalidInput, r.ChunkID)
	}
	return nil
}

// RecordFromChunk builds the index record for an embedded chunk.
func RecordFromChunk(c Chunk) VectorRecord {
	return VectorRecord{
		ChunkID:    c.ID,
		DocumentID: c.DocumentID,
		Sequence:   c.Sequence,
		Text:       c.Text,
		Vector:     c.Vector,
	}
}

// RetrievalResult is a ranked chunk.
type RetrievalResult struct {
	ChunkID    string `json:"chunk_id"`
	DocumentID string `json:"doc_id"`
	Sequence   int    `json:"sequence_index"`
	Text       string `json:"text"`

	// Metadata is filled from the metadata store when available.
	Metadata Fields `json:"metadata,omitempty"`

	// LexicalScore is the raw BM25 relevance of the chunk text.
	LexicalScore float64 `json:"lexical_score"`

	// VectorScore is the raw cosine similarity to the query vector.
	VectorScore float64 `json:"vector_score"`

	// CombinedScore is the alpha blend of the normalised scores.
	CombinedScore float64 `json:"combined_score"`
}
