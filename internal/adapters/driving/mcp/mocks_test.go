package mcp

import (
	"context"

	"github.com/custodia-labs/hybridrag/internal/core/domain"
)

// mockRetrievalService is a mock implementation of driving.RetrievalService.
type mockRetrievalService struct {
	results  []domain.RetrievalResult
	err      error
	defaults domain.QueryOptions

	gotQuery string
	gotOpts  domain.QueryOptions
}

func newMockRetrieval() *mockRetrievalService {
	return &mockRetrievalService{defaults: domain.DefaultQueryOptions()}
}

func (m *mockRetrievalService) Retrieve(
	_ context.Context,
	query string,
	opts domain.QueryOptions,
) ([]domain.RetrievalResult, error) {
	m.gotQuery = query
	m.gotOpts = opts
	return m.results, m.err
}

func (m *mockRetrievalService) DefaultOptions() domain.QueryOptions {
	return m.defaults
}

// mockIngestionService is a mock implementation of driving.IngestionService.
type mockIngestionService struct {
	report *domain.IngestionReport
	err    error

	gotDocID  string
	gotChunks []domain.Chunk
}

func (m *mockIngestionService) Ingest(
	_ context.Context,
	documentID string,
	chunks []domain.Chunk,
) (*domain.IngestionReport, error) {
	m.gotDocID = documentID
	m.gotChunks = chunks
	return m.report, m.err
}

func (m *mockIngestionService) Delete(_ context.Context, _ string) (int, error) {
	return 0, m.err
}

// mockEmbeddingClient is a mock implementation of driven.EmbeddingClient.
type mockEmbeddingClient struct {
	status *domain.HealthStatus
	info   *domain.ModelInfo
	err    error
}

func (m *mockEmbeddingClient) EmbedSingle(_ context.Context, _ string) ([]float32, error) {
	return nil, m.err
}

func (m *mockEmbeddingClient) EmbedBatch(_ context.Context, _ []string) ([][]float32, error) {
	return nil, m.err
}

func (m *mockEmbeddingClient) EmbedChunks(
	_ context.Context,
	_ []domain.ChunkPayload,
) ([]domain.ChunkPayload, error) {
	return nil, m.err
}

func (m *mockEmbeddingClient) Health(_ context.Context) (*domain.HealthStatus, error) {
	return m.status, m.err
}

func (m *mockEmbeddingClient) ModelInfo(_ context.Context) (*domain.ModelInfo, error) {
	return m.info, m.err
}

func (m *mockEmbeddingClient) Close() error {
	return nil
}
