package driving

import (
	"context"

	"github.com/custodia-labs/hybridrag/internal/core/domain"
)

// EmbeddingService hosts the embedding model and serves embedding requests.
// All embedding calls fail with domain.ErrNotReady until Load completes.
type EmbeddingService interface {
	// Load loads the model exactly once. Later calls return the first result.
	Load(ctx context.Context) error

	// EmbedOne embeds a single non-empty text into a unit-length vector.
	EmbedOne(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch embeds texts in order. An empty batch succeeds with an
	// empty result; any empty text fails the whole batch.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedChunks attaches vectors to chunk payloads, preserving order
	// and every pass-through field.
	EmbedChunks(ctx context.Context, chunks []domain.ChunkPayload) ([]domain.ChunkPayload, error)

	// Health reports readiness.
	Health() domain.HealthStatus

	// ModelInfo reports the loaded model. Fails with domain.ErrNotReady before Load.
	ModelInfo() (*domain.ModelInfo, error)
}
