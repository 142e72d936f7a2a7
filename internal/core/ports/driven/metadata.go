package driven

import (
	"context"

	"github.com/custodia-labs/hybridrag/internal/core/domain"
)

// MetadataStore is the authoritative record of chunk text and metadata.
// Writes are upserts keyed by chunk ID; each record is written whole.
type MetadataStore interface {
	// UpsertChunk stores or replaces a single chunk record.
	UpsertChunk(ctx context.Context, chunk domain.Chunk) error

	// UpsertChunks stores or replaces chunks atomically: either every
	// record is written or none is.
	UpsertChunks(ctx context.Context, chunks []domain.Chunk) error

	// GetChunk retrieves a chunk by ID. Returns domain.ErrNotFound if absent.
	GetChunk(ctx context.Context, chunkID string) (*domain.Chunk, error)

	// ListChunks returns a document's chunks in sequence order.
	ListChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// DeleteChunks removes chunks by ID. Unknown IDs are ignored.
	DeleteChunks(ctx context.Context, chunkIDs []string) error

	// Close releases resources.
	Close() error
}
