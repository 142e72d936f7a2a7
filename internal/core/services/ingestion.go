package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/hybridrag/internal/core/domain"
	"github.com/custodia-labs/hybridrag/internal/core/ports/driven"
	"github.com/custodia-labs/hybridrag/internal/core/ports/driving"
	"github.com/custodia-labs/hybridrag/internal/logger"
)

// Ensure IngestionService implements the interface.
var _ driving.IngestionService = (*IngestionService)(nil)

// Payload keys the coordinator sends through the embedding service.
const (
	payloadChunkID  = "chunk_id"
	payloadDocID    = "doc_id"
	payloadSequence = "sequence_index"
	payloadMetadata = "metadata"
)

// IngestionService writes embedded chunks to the metadata store and the
// vector index. The metadata write always completes before the vector
// write is attempted.
type IngestionService struct {
	client   driven.EmbeddingClient
	metadata driven.MetadataStore
	vectors  driven.VectorIndex
	docLocks *keyedMutex
}

// NewIngestionService creates a new ingestion coordinator.
func NewIngestionService(
	client driven.EmbeddingClient,
	metadata driven.MetadataStore,
	vectors driven.VectorIndex,
) *IngestionService {
	return &IngestionService{
		client:   client,
		metadata: metadata,
		vectors:  vectors,
		docLocks: newKeyedMutex(),
	}
}

// Ingest embeds a document's chunks with one embedding call and stores them.
func (s *IngestionService) Ingest(
	ctx context.Context, documentID string, chunks []domain.Chunk,
) (*domain.IngestionReport, error) {
	logger.Section("Ingestion")
	logger.Debug("Document %q: %d chunks", documentID, len(chunks))

	prepared, err := prepareChunks(documentID, chunks)
	if err != nil {
		return nil, &domain.IngestionError{Stage: domain.StageValidation, DocumentID: documentID, Err: err}
	}
	ids := chunkIDs(prepared)

	embedded, err := s.embed(ctx, prepared)
	if err != nil {
		logger.Warn("Embedding failed for %q: %v", documentID, err)
		return nil, &domain.IngestionError{
			Stage: domain.StageEmbedding, DocumentID: documentID, ChunkIDs: ids, Err: err,
		}
	}

	unlock := s.docLocks.Lock(documentID)
	defer unlock()

	previous, err := s.metadata.ListChunks(ctx, documentID)
	if err != nil {
		logger.Warn("Listing existing chunks of %q failed: %v", documentID, err)
		previous = nil
	}

	if err := ctx.Err(); err != nil {
		return nil, &domain.IngestionError{
			Stage: domain.StageMetadataWrite, DocumentID: documentID, ChunkIDs: ids, Err: err,
		}
	}
	if err := s.metadata.UpsertChunks(ctx, embedded); err != nil {
		logger.Warn("Metadata store write failed for %q (%d chunks): %v", documentID, len(ids), err)
		return nil, &domain.IngestionError{
			Stage: domain.StageMetadataWrite, DocumentID: documentID, ChunkIDs: ids, Err: err,
		}
	}
	logger.Debug("Metadata store: %d chunks written", len(embedded))

	records := make([]domain.VectorRecord, len(embedded))
	for i, c := range embedded {
		records[i] = domain.RecordFromChunk(c)
	}
	if err := s.vectors.UpsertVectors(ctx, records); err != nil {
		logger.Warn("Vector index write failed for %q, chunks %v: %v", documentID, ids, err)
		return nil, &domain.IngestionError{
			Stage: domain.StageVectorWrite, DocumentID: documentID, ChunkIDs: ids, Err: err,
		}
	}
	logger.Debug("Vector index: %d records written", len(records))

	removed := s.pruneStale(ctx, documentID, previous, ids)

	logger.Info("Ingested %q: %d chunks (%d stale removed)", documentID, len(ids), removed)
	return &domain.IngestionReport{
		DocumentID:     documentID,
		ChunkIDs:       ids,
		ChunksIngested: len(ids),
		StaleRemoved:   removed,
	}, nil
}

// Delete removes a document from the vector index, then from the metadata store.
func (s *IngestionService) Delete(ctx context.Context, documentID string) (int, error) {
	if strings.TrimSpace(documentID) == "" {
		return 0, fmt.Errorf("%w: document ID is required", domain.ErrInvalidInput)
	}

	unlock := s.docLocks.Lock(documentID)
	defer unlock()

	existing, err := s.metadata.ListChunks(ctx, documentID)
	if err != nil {
		return 0, fmt.Errorf("listing chunks: %w", err)
	}
	if len(existing) == 0 {
		return 0, nil
	}
	ids := chunkIDs(existing)

	if err := s.vectors.DeleteVectors(ctx, ids); err != nil {
		return 0, fmt.Errorf("deleting vectors: %w", err)
	}
	if err := s.metadata.DeleteChunks(ctx, ids); err != nil {
		return 0, fmt.Errorf("deleting chunks: %w", err)
	}

	logger.Info("Deleted %q: %d chunks", documentID, len(ids))
	return len(ids), nil
}

// embed sends every chunk through the embedding client in one call and
// attaches the returned vectors. Nothing is attached unless every chunk
// came back intact and in order.
func (s *IngestionService) embed(ctx context.Context, chunks []domain.Chunk) ([]domain.Chunk, error) {
	payloads := make([]domain.ChunkPayload, len(chunks))
	for i, c := range chunks {
		p, err := toPayload(c)
		if err != nil {
			return nil, err
		}
		payloads[i] = p
	}

	out, err := s.client.EmbedChunks(ctx, payloads)
	if err != nil {
		return nil, err
	}
	if len(out) != len(chunks) {
		return nil, fmt.Errorf("%w: sent %d chunks, received %d",
			domain.ErrInvalidResponse, len(chunks), len(out))
	}

	dims := 0
	embedded := make([]domain.Chunk, len(chunks))
	for i, p := range out {
		if got := p.Fields.String(payloadChunkID); got != chunks[i].ID {
			return nil, fmt.Errorf("%w: position %d returned chunk %q, expected %q",
				domain.ErrInvalidResponse, i, got, chunks[i].ID)
		}
		if len(p.Vector) == 0 {
			return nil, fmt.Errorf("%w: chunk %q returned without a vector",
				domain.ErrInvalidResponse, chunks[i].ID)
		}
		if dims == 0 {
			dims = len(p.Vector)
		} else if len(p.Vector) != dims {
			return nil, fmt.Errorf("%w: chunk %q has %d dimensions, expected %d",
				domain.ErrInvalidResponse, chunks[i].ID, len(p.Vector), dims)
		}
		embedded[i] = chunks[i]
		embedded[i].Vector = p.Vector
	}
	return embedded, nil
}

// pruneStale removes chunks an earlier version of the document had but the
// new version does not. Failures are logged and leave the stale chunks behind.
func (s *IngestionService) pruneStale(
	ctx context.Context, documentID string, previous []domain.Chunk, current []string,
) int {
	keep := make(map[string]bool, len(current))
	for _, id := range current {
		keep[id] = true
	}
	var stale []string
	for _, c := range previous {
		if !keep[c.ID] {
			stale = append(stale, c.ID)
		}
	}
	if len(stale) == 0 {
		return 0
	}

	if err := s.vectors.DeleteVectors(ctx, stale); err != nil {
		logger.Warn("Pruning %d stale vectors of %q failed: %v", len(stale), documentID, err)
		return 0
	}
	if err := s.metadata.DeleteChunks(ctx, stale); err != nil {
		logger.Warn("Pruning %d stale chunks of %q failed: %v", len(stale), documentID, err)
		return 0
	}
	return len(stale)
}

// prepareChunks validates input chunks and fills in document and chunk IDs.
func prepareChunks(documentID string, chunks []domain.Chunk) ([]domain.Chunk, error) {
	if strings.TrimSpace(documentID) == "" {
		return nil, fmt.Errorf("%w: document ID is required", domain.ErrInvalidInput)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: document has no chunks", domain.ErrInvalidInput)
	}

	seen := make(map[string]int, len(chunks))
	out := make([]domain.Chunk, len(chunks))
	for i, c := range chunks {
		if strings.TrimSpace(c.Text) == "" {
			return nil, fmt.Errorf("%w: chunk %d has no text", domain.ErrInvalidInput, i)
		}
		if c.HasVector() {
			return nil, fmt.Errorf("%w: chunk %d already carries a vector", domain.ErrInvalidInput, i)
		}
		if c.DocumentID != "" && c.DocumentID != documentID {
			return nil, fmt.Errorf("%w: chunk %d belongs to document %q", domain.ErrInvalidInput, i, c.DocumentID)
		}
		c.DocumentID = documentID
		if c.ID == "" {
			c.ID = ChunkID(documentID, c.Sequence)
		}
		if j, dup := seen[c.ID]; dup {
			return nil, fmt.Errorf("%w: chunks %d and %d share ID %q", domain.ErrInvalidInput, j, i, c.ID)
		}
		seen[c.ID] = i
		c.Metadata = c.Metadata.Clone()
		out[i] = c
	}
	return out, nil
}

// toPayload converts a chunk into its embedding wire form.
func toPayload(c domain.Chunk) (domain.ChunkPayload, error) {
	fields := domain.Fields{}
	for key, value := range map[string]any{
		payloadChunkID:  c.ID,
		payloadDocID:    c.DocumentID,
		payloadSequence: c.Sequence,
	} {
		raw, err := domain.EncodeJSON(value)
		if err != nil {
			return domain.ChunkPayload{}, fmt.Errorf("encoding %s: %w", key, err)
		}
		fields[key] = raw
	}
	if len(c.Metadata) > 0 {
		raw, err := domain.EncodeJSON(c.Metadata)
		if err != nil {
			return domain.ChunkPayload{}, fmt.Errorf("encoding metadata: %w", err)
		}
		fields[payloadMetadata] = raw
	}
	return domain.ChunkPayload{Text: c.Text, Fields: fields}, nil
}

func chunkIDs(chunks []domain.Chunk) []string {
	ids := make([]string, len(chunks))
	for i, c := range chunks {
		ids[i] = c.ID
	}
	return ids
}
