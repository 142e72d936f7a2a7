package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/hybridrag/internal/core/domain"
	"github.com/custodia-labs/hybridrag/internal/core/ports/driven"
	"github.com/custodia-labs/hybridrag/internal/core/ports/driving"
	"github.com/custodia-labs/hybridrag/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

// RetrievalService answers queries by blending lexical and vector relevance.
type RetrievalService struct {
	client   driven.EmbeddingClient
	index    driven.VectorIndex
	metadata driven.MetadataStore
	defaults domain.QueryOptions
}

// NewRetrievalService creates a retrieval service.
// The client must be the same one ingestion uses.
func NewRetrievalService(
	client driven.EmbeddingClient,
	index driven.VectorIndex,
	defaults domain.QueryOptions,
) *RetrievalService {
	return &RetrievalService{
		client:   client,
		index:    index,
		defaults: defaults,
	}
}

// SetMetadataStore enables hydrating results with stored chunk metadata.
func (s *RetrievalService) SetMetadataStore(store driven.MetadataStore) {
	s.metadata = store
}

// DefaultOptions returns the configured retrieval defaults.
func (s *RetrievalService) DefaultOptions() domain.QueryOptions {
	return s.defaults
}

// Retrieve embeds the query and runs one hybrid query against the index.
func (s *RetrievalService) Retrieve(
	ctx context.Context, query string, opts domain.QueryOptions,
) ([]domain.RetrievalResult, error) {
	logger.Section("Retrieval")
	logger.Debug("Query: %q (k=%d, alpha=%.2f)", query, opts.K, opts.Alpha)

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is empty", domain.ErrInvalidInput)
	}
	if opts.K <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidInput, opts.K)
	}
	if opts.Alpha < 0 || opts.Alpha > 1 {
		return nil, fmt.Errorf("%w: alpha must be within [0, 1], got %v", domain.ErrInvalidInput, opts.Alpha)
	}

	vector, err := s.client.EmbedSingle(ctx, query)
	if err != nil {
		logger.Warn("Query embedding failed: %v", err)
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	logger.Debug("Query embedding: %d dimensions", len(vector))

	results, err := s.index.HybridQuery(ctx, domain.HybridQuery{
		Text:   query,
		Vector: vector,
		Alpha:  opts.Alpha,
		K:      opts.K,
	})
	if err != nil {
		logger.Warn("Hybrid query failed: %v", err)
		if errors.Is(err, domain.ErrInvalidInput) || errors.Is(err, domain.ErrServiceUnavailable) {
			return nil, fmt.Errorf("hybrid query: %w", err)
		}
		return nil, fmt.Errorf("%w: hybrid query: %w", domain.ErrServiceUnavailable, err)
	}
	if len(results) > opts.K {
		results = results[:opts.K]
	}
	logger.Debug("Hybrid query: %d results", len(results))

	s.hydrate(ctx, results)
	return results, nil
}

// hydrate fills result metadata from the metadata store. Missing records
// and lookup failures leave the result as the index returned it.
func (s *RetrievalService) hydrate(ctx context.Context, results []domain.RetrievalResult) {
	if s.metadata == nil {
		return
	}
	for i := range results {
		chunk, err := s.metadata.GetChunk(ctx, results[i].ChunkID)
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				logger.Warn("Hydrating %s: %v", results[i].ChunkID, err)
			}
			continue
		}
		results[i].Metadata = chunk.Metadata
	}
}
