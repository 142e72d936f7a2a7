package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/hybridrag/internal/core/domain"
)

func newTestServer(t *testing.T, ports *Ports) *Server {
	t.Helper()
	server, err := NewServer(ports)
	require.NoError(t, err)
	return server
}

func TestServer_handleSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("returns retrieval results", func(t *testing.T) {
		retrieval := newMockRetrieval()
		retrieval.results = []domain.RetrievalResult{
			{
				ChunkID:       "c1",
				DocumentID:    "D1",
				Sequence:      0,
				Text:          "alpha beta",
				Metadata:      domain.Fields{"title": json.RawMessage(`"Greek"`)},
				LexicalScore:  1,
				VectorScore:   0.1,
				CombinedScore: 0.55,
			},
		}
		server := newTestServer(t, &Ports{Retrieval: retrieval})

		_, output, err := server.handleSearch(ctx, nil, SearchInput{Query: "alpha"})

		require.NoError(t, err)
		assert.Equal(t, 1, output.Count)
		require.Len(t, output.Results, 1)
		assert.Equal(t, "c1", output.Results[0].ChunkID)
		assert.Equal(t, "D1", output.Results[0].DocumentID)
		assert.Equal(t, 0.55, output.Results[0].CombinedScore)
		assert.JSONEq(t, `{"title":"Greek"}`, string(output.Results[0].Metadata))
		assert.Equal(t, "[D1 | Greek | chunk:0]\nalpha beta", output.Context)
		assert.Equal(t, domain.DefaultQueryOptions(), retrieval.gotOpts)
	})

	t.Run("overrides k and alpha", func(t *testing.T) {
		retrieval := newMockRetrieval()
		server := newTestServer(t, &Ports{Retrieval: retrieval})

		zero := 0.0
		_, output, err := server.handleSearch(ctx, nil, SearchInput{Query: "q", K: 2, Alpha: &zero})

		require.NoError(t, err)
		assert.Equal(t, 0, output.Count)
		assert.Equal(t, domain.QueryOptions{K: 2, Alpha: 0}, retrieval.gotOpts)
		assert.Equal(t, "q", retrieval.gotQuery)
	})

	t.Run("returns error on retrieval failure", func(t *testing.T) {
		retrieval := newMockRetrieval()
		retrieval.err = errors.New("retrieval failed")
		server := newTestServer(t, &Ports{Retrieval: retrieval})

		_, _, err := server.handleSearch(ctx, nil, SearchInput{Query: "test"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "retrieval failed")
	})
}

func TestServer_handleIngest(t *testing.T) {
	ctx := context.Background()

	t.Run("ingests chunks in order", func(t *testing.T) {
		ingestion := &mockIngestionService{
			report: &domain.IngestionReport{DocumentID: "D1", ChunkIDs: []string{"a", "b"}, ChunksIngested: 2},
		}
		server := newTestServer(t, &Ports{Retrieval: newMockRetrieval(), Ingestion: ingestion})

		_, output, err := server.handleIngest(ctx, nil, IngestInput{
			DocumentID: "D1",
			Chunks: []IngestChunk{
				{Text: "first", Metadata: map[string]any{"title": "T"}},
				{Text: "second"},
			},
		})

		require.NoError(t, err)
		assert.Equal(t, 2, output.ChunksIngested)
		assert.Equal(t, []string{"a", "b"}, output.ChunkIDs)
		assert.Equal(t, "D1", ingestion.gotDocID)
		require.Len(t, ingestion.gotChunks, 2)
		assert.Equal(t, 1, ingestion.gotChunks[1].Sequence)
		assert.Equal(t, "T", ingestion.gotChunks[0].Metadata.String("title"))
		assert.Nil(t, ingestion.gotChunks[1].Metadata)
	})

	t.Run("disabled without ingestion service", func(t *testing.T) {
		server := newTestServer(t, &Ports{Retrieval: newMockRetrieval()})

		_, _, err := server.handleIngest(ctx, nil, IngestInput{DocumentID: "D1"})
		assert.ErrorIs(t, err, errIngestionDisabled)
	})

	t.Run("propagates ingestion errors", func(t *testing.T) {
		ingestion := &mockIngestionService{err: domain.ErrInvalidInput}
		server := newTestServer(t, &Ports{Retrieval: newMockRetrieval(), Ingestion: ingestion})

		_, _, err := server.handleIngest(ctx, nil, IngestInput{DocumentID: "D1"})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestServer_handleModelInfo(t *testing.T) {
	ctx := context.Background()

	t.Run("ready model", func(t *testing.T) {
		client := &mockEmbeddingClient{
			status: &domain.HealthStatus{Ready: true, Status: domain.StatusHealthy},
			info:   &domain.ModelInfo{Name: "m", Dimensions: 4},
		}
		server := newTestServer(t, &Ports{Retrieval: newMockRetrieval(), Embedding: client})

		_, output, err := server.handleModelInfo(ctx, nil, ModelInfoInput{})
		require.NoError(t, err)
		assert.True(t, output.Ready)
		assert.Equal(t, 4, output.Model.Dimensions)
	})

	t.Run("loading model", func(t *testing.T) {
		client := &mockEmbeddingClient{status: &domain.HealthStatus{Ready: false, Status: domain.StatusLoading}}
		server := newTestServer(t, &Ports{Retrieval: newMockRetrieval(), Embedding: client})

		_, output, err := server.handleModelInfo(ctx, nil, ModelInfoInput{})
		require.NoError(t, err)
		assert.False(t, output.Ready)
		assert.Nil(t, output.Model)
	})

	t.Run("no client configured", func(t *testing.T) {
		server := newTestServer(t, &Ports{Retrieval: newMockRetrieval()})

		_, _, err := server.handleModelInfo(ctx, nil, ModelInfoInput{})
		assert.ErrorIs(t, err, domain.ErrServiceUnavailable)
	})

	t.Run("unreachable service", func(t *testing.T) {
		client := &mockEmbeddingClient{err: domain.ErrServiceUnavailable}
		server := newTestServer(t, &Ports{Retrieval: newMockRetrieval(), Embedding: client})

		_, _, err := server.handleModelInfo(ctx, nil, ModelInfoInput{})
		assert.ErrorIs(t, err, domain.ErrServiceUnavailable)
	})
}
