package driven

import (
	"context"

	"github.com/custodia-labs/hybridrag/internal/core/domain"
)

// EmbeddingModel is a model runtime that turns text into vectors.
//
// Implementations may include:
//   - Local deterministic hashing (no external dependency)
//   - Ollama (nomic-embed-text, bge-m3)
//   - OpenAI-compatible endpoints (text-embedding-3-small)
type EmbeddingModel interface {
	// Load prepares the model and reports its identity.
	// Called once per process before any Encode.
	Load(ctx context.Context) (domain.ModelInfo, error)

	// Encode returns one raw (not necessarily normalised) vector per text,
	// in input order.
	Encode(ctx context.Context, texts []string) ([][]float32, error)

	// Close releases resources.
	Close() error
}
