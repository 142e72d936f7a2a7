package driven

import (
	"context"

	"github.com/custodia-labs/hybridrag/internal/core/domain"
)

// VectorIndex stores chunk vectors alongside their text and answers
// hybrid queries that blend lexical and vector relevance.
type VectorIndex interface {
	// UpsertVector stores or replaces one record. Records without a
	// vector are rejected with domain.ErrInvalidInput.
	UpsertVector(ctx context.Context, record domain.VectorRecord) error

	// UpsertVectors stores or replaces records atomically.
	UpsertVectors(ctx context.Context, records []domain.VectorRecord) error

	// DeleteVectors removes records by chunk ID. Unknown IDs are ignored.
	DeleteVectors(ctx context.Context, chunkIDs []string) error

	// HybridQuery scores every record on BM25 relevance to q.Text and
	// cosine similarity to q.Vector, blends them with q.Alpha and returns
	// at most q.K results ordered by combined score.
	HybridQuery(ctx context.Context, q domain.HybridQuery) ([]domain.RetrievalResult, error)

	// Count returns the number of indexed records.
	Count(ctx context.Context) (int, error)

	// Close releases resources.
	Close() error
}
