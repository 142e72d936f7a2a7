package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/hybridrag/internal/core/domain"
	"github.com/custodia-labs/hybridrag/internal/core/ports/driven"
)

// Ensure MetadataStore implements the interface.
var _ driven.MetadataStore = (*MetadataStore)(nil)

// MetadataStore is an in-memory implementation of driven.MetadataStore.
// Vectors are not kept; they belong to the vector index.
type MetadataStore struct {
	mu     sync.RWMutex
	chunks map[string]domain.Chunk
}

// NewMetadataStore creates a new in-memory metadata store.
func NewMetadataStore() *MetadataStore {
	return &MetadataStore{chunks: make(map[string]domain.Chunk)}
}

// UpsertChunk stores or replaces a chunk.
func (s *MetadataStore) UpsertChunk(ctx context.Context, chunk domain.Chunk) error {
	return s.UpsertChunks(ctx, []domain.Chunk{chunk})
}

// UpsertChunks stores or replaces chunks under a single lock.
func (s *MetadataStore) UpsertChunks(ctx context.Context, chunks []domain.Chunk) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, c := range chunks {
		if c.ID == "" {
			return domain.ErrInvalidInput
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range chunks {
		c.Vector = nil
		c.Metadata = c.Metadata.Clone()
		s.chunks[c.ID] = c
	}
	return nil
}

// GetChunk retrieves a chunk by ID.
func (s *MetadataStore) GetChunk(_ context.Context, chunkID string) (*domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.chunks[chunkID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c.Metadata = c.Metadata.Clone()
	return &c, nil
}

// ListChunks returns a document's chunks ordered by sequence.
func (s *MetadataStore) ListChunks(_ context.Context, documentID string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Chunk //nolint:prealloc // size unknown until filtered
	for _, c := range s.chunks {
		if c.DocumentID == documentID {
			c.Metadata = c.Metadata.Clone()
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Sequence != out[j].Sequence {
			return out[i].Sequence < out[j].Sequence
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// DeleteChunks removes chunks by ID.
func (s *MetadataStore) DeleteChunks(_ context.Context, chunkIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range chunkIDs {
		delete(s.chunks, id)
	}
	return nil
}

// Len returns the number of stored chunks.
func (s *MetadataStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

// Close is a no-op.
func (s *MetadataStore) Close() error {
	return nil
}
