package driving

import (
	"context"

	"github.com/custodia-labs/hybridrag/internal/core/domain"
)

// RetrievalService answers questions with ranked chunks.
type RetrievalService interface {
	// Retrieve runs a hybrid query and returns at most opts.K results.
	Retrieve(ctx context.Context, query string, opts domain.QueryOptions) ([]domain.RetrievalResult, error)

	// DefaultOptions returns the configured retrieval defaults.
	DefaultOptions() domain.QueryOptions
}
