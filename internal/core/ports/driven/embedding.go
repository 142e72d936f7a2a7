package driven

import (
	"context"

	"github.com/custodia-labs/hybridrag/internal/core/domain"
)

// EmbeddingClient reaches the embedding service.
// One instance is shared by ingestion and retrieval so both embed with
// the same model.
//
// Every call is bounded by a timeout. Failures map onto the domain taxonomy:
// unreachable or not-ready services yield domain.ErrServiceUnavailable,
// contract violations yield domain.ErrInvalidResponse, and rejected input
// yields domain.ErrInvalidInput.
type EmbeddingClient interface {
	// EmbedSingle embeds one non-empty text.
	EmbedSingle(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch embeds texts, returning vectors in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedChunks attaches a vector to every chunk, returning the chunks in
	// input order with all other fields untouched. All or nothing.
	EmbedChunks(ctx context.Context, chunks []domain.ChunkPayload) ([]domain.ChunkPayload, error)

	// Health reports whether the service is ready.
	Health(ctx context.Context) (*domain.HealthStatus, error)

	// ModelInfo reports the model the service has loaded.
	ModelInfo(ctx context.Context) (*domain.ModelInfo, error)

	// Close releases resources.
	Close() error
}
