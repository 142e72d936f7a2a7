// Package local provides an embedding client backed by an in-process
// embedding service, for single-binary deployments.
package local

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/hybridrag/internal/core/domain"
	"github.com/custodia-labs/hybridrag/internal/core/ports/driven"
	"github.com/custodia-labs/hybridrag/internal/core/ports/driving"
)

// Ensure Client implements the interface.
var _ driven.EmbeddingClient = (*Client)(nil)

// Client adapts a driving.EmbeddingService to the EmbeddingClient contract.
type Client struct {
	service driving.EmbeddingService
}

// New wraps an embedding service.
func New(service driving.EmbeddingService) *Client {
	return &Client{service: service}
}

// EmbedSingle embeds one text.
func (c *Client) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	vec, err := c.service.EmbedOne(ctx, text)
	return vec, mapError(err)
}

// EmbedBatch embeds texts in order.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vecs, err := c.service.EmbedBatch(ctx, texts)
	return vecs, mapError(err)
}

// EmbedChunks attaches vectors to chunk payloads.
func (c *Client) EmbedChunks(ctx context.Context, chunks []domain.ChunkPayload) ([]domain.ChunkPayload, error) {
	out, err := c.service.EmbedChunks(ctx, chunks)
	return out, mapError(err)
}

// Health reports the service's readiness.
func (c *Client) Health(_ context.Context) (*domain.HealthStatus, error) {
	status := c.service.Health()
	return &status, nil
}

// ModelInfo reports the loaded model.
func (c *Client) ModelInfo(_ context.Context) (*domain.ModelInfo, error) {
	info, err := c.service.ModelInfo()
	return info, mapError(err)
}

// Close is a no-op; the service's owner releases the model.
func (c *Client) Close() error {
	return nil
}

// mapError gives in-process failures the same classification a remote
// caller would see: a model that is still loading is unavailable.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrNotReady) && !errors.Is(err, domain.ErrServiceUnavailable) {
		return fmt.Errorf("%w: %w", domain.ErrServiceUnavailable, err)
	}
	return err
}
