package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/custodia-labs/hybridrag/internal/core/domain"
	"github.com/custodia-labs/hybridrag/internal/core/ports/driven"
	"github.com/custodia-labs/hybridrag/internal/core/ports/driving"
	"github.com/custodia-labs/hybridrag/internal/logger"
	"github.com/custodia-labs/hybridrag/internal/ranking"
)

// Ensure EmbeddingService implements the interface.
var _ driving.EmbeddingService = (*EmbeddingService)(nil)

// Embedding service defaults.
const (
	DefaultBatchSize   = 32
	DefaultConcurrency = 1
)

// EmbeddingOptions configures an EmbeddingService.
type EmbeddingOptions struct {
	// Dimensions is the declared vector length. Zero accepts whatever the
	// model reports at load.
	Dimensions int

	// BatchSize caps how many texts are handed to the model at once.
	BatchSize int

	// Concurrency caps how many model calls run at the same time.
	Concurrency int
}

// EmbeddingService hosts a single embedding model for the process.
type EmbeddingService struct {
	model driven.EmbeddingModel
	opts  EmbeddingOptions

	loadOnce sync.Once
	loadErr  error
	ready    atomic.Bool
	failed   atomic.Bool
	info     domain.ModelInfo

	// sem gates access to the model's compute.
	sem chan struct{}
}

// NewEmbeddingService creates an embedding service around model.
// The model is not loaded until Load is called.
func NewEmbeddingService(model driven.EmbeddingModel, opts EmbeddingOptions) *EmbeddingService {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	return &EmbeddingService{
		model: model,
		opts:  opts,
		sem:   make(chan struct{}, opts.Concurrency),
	}
}

// Load loads the model. Only the first call does any work.
func (s *EmbeddingService) Load(ctx context.Context) error {
	s.loadOnce.Do(func() {
		defer func() { s.failed.Store(s.loadErr != nil) }()
		logger.Section("Model Load")
		info, err := s.model.Load(ctx)
		if err != nil {
			s.loadErr = fmt.Errorf("loading embedding model: %w", err)
			logger.Error("%v", s.loadErr)
			return
		}
		if info.Dimensions <= 0 {
			s.loadErr = fmt.Errorf("%w: model %q reported %d dimensions",
				domain.ErrInvalidResponse, info.Name, info.Dimensions)
			return
		}
		if s.opts.Dimensions > 0 && info.Dimensions != s.opts.Dimensions {
			s.loadErr = fmt.Errorf("%w: model %q produces %d dimensions, configured %d",
				domain.ErrInvalidResponse, info.Name, info.Dimensions, s.opts.Dimensions)
			logger.Error("%v", s.loadErr)
			return
		}
		s.info = info
		s.ready.Store(true)
		logger.Info("Model ready: %s (%d dims, device=%s)", info.Name, info.Dimensions, info.Device)
	})
	return s.loadErr
}

// Health reports readiness.
func (s *EmbeddingService) Health() domain.HealthStatus {
	if s.failed.Load() {
		return domain.HealthStatus{Ready: false, Status: domain.StatusFailed}
	}
	if !s.ready.Load() {
		return domain.HealthStatus{Ready: false, Status: domain.StatusLoading}
	}
	return domain.HealthStatus{Ready: true, Status: domain.StatusHealthy, Model: s.info.Name}
}

// ModelInfo returns the loaded model's description.
func (s *EmbeddingService) ModelInfo() (*domain.ModelInfo, error) {
	if !s.ready.Load() {
		return nil, domain.ErrNotReady
	}
	info := s.info
	return &info, nil
}

// EmbedOne embeds a single text.
func (s *EmbeddingService) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vectors, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch embeds texts in order.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if !s.ready.Load() {
		return nil, domain.ErrNotReady
	}
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			return nil, fmt.Errorf("%w: text at index %d is empty", domain.ErrInvalidInput, i)
		}
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += s.opts.BatchSize {
		end := min(start+s.opts.BatchSize, len(texts))
		vectors, err := s.encode(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vectors...)
	}

	logger.Debug("Embedded %d texts", len(texts))
	return out, nil
}

// EmbedChunks attaches a vector to every chunk payload.
func (s *EmbeddingService) EmbedChunks(
	ctx context.Context, chunks []domain.ChunkPayload,
) ([]domain.ChunkPayload, error) {
	if !s.ready.Load() {
		return nil, domain.ErrNotReady
	}
	if len(chunks) == 0 {
		return []domain.ChunkPayload{}, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		if strings.TrimSpace(c.Text) == "" {
			return nil, fmt.Errorf("%w: chunk at index %d has no text", domain.ErrInvalidInput, i)
		}
		texts[i] = c.Text
	}

	vectors, err := s.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, err
	}

	out := make([]domain.ChunkPayload, len(chunks))
	for i, c := range chunks {
		out[i] = domain.ChunkPayload{
			Text:   c.Text,
			Fields: c.Fields.Clone(),
			Vector: vectors[i],
		}
	}
	return out, nil
}

// Close releases the model. The service reports not ready afterwards.
func (s *EmbeddingService) Close() error {
	s.ready.Store(false)
	return s.model.Close()
}

// encode runs one model call under the compute gate and normalises the result.
func (s *EmbeddingService) encode(ctx context.Context, texts []string) ([][]float32, error) {
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	vectors, err := s.model.Encode(ctx, texts)
	<-s.sem
	if err != nil {
		return nil, fmt.Errorf("encoding batch: %w", err)
	}

	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: model returned %d vectors for %d texts",
			domain.ErrInvalidResponse, len(vectors), len(texts))
	}
	for i, v := range vectors {
		if len(v) != s.info.Dimensions {
			return nil, fmt.Errorf("%w: vector %d has %d dimensions, expected %d",
				domain.ErrInvalidResponse, i, len(v), s.info.Dimensions)
		}
		if _, ok := ranking.Normalize(v); !ok {
			return nil, fmt.Errorf("%w: vector %d has zero magnitude", domain.ErrInvalidResponse, i)
		}
	}
	return vectors, nil
}
