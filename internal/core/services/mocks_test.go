package services

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/hybridrag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/hybridrag/internal/core/domain"
)

// --- Mock implementations ---

// mockModel implements driven.EmbeddingModel for testing.
// Each text is encoded as [len(text), 1, 0, ...].
type mockModel struct {
	info      domain.ModelInfo
	loadErr   error
	encodeErr error
	delay     time.Duration
	vectors   [][]float32

	loads    atomic.Int32
	calls    atomic.Int32
	active   atomic.Int32
	maxSeen  atomic.Int32
	batchLen []int
	mu       sync.Mutex
}

func newMockModel(dims int) *mockModel {
	return &mockModel{info: domain.ModelInfo{Name: "mock", Dimensions: dims, Device: "cpu", MaxInputLength: 512}}
}

func (m *mockModel) Load(_ context.Context) (domain.ModelInfo, error) {
	m.loads.Add(1)
	if m.loadErr != nil {
		return domain.ModelInfo{}, m.loadErr
	}
	return m.info, nil
}

func (m *mockModel) Encode(_ context.Context, texts []string) ([][]float32, error) {
	m.calls.Add(1)
	n := m.active.Add(1)
	defer m.active.Add(-1)
	for {
		seen := m.maxSeen.Load()
		if n <= seen || m.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}
	m.mu.Lock()
	m.batchLen = append(m.batchLen, len(texts))
	m.mu.Unlock()

	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	if m.encodeErr != nil {
		return nil, m.encodeErr
	}
	if m.vectors != nil {
		return m.vectors, nil
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v := make([]float32, m.info.Dimensions)
		v[0] = float32(len(text))
		if len(v) > 1 {
			v[1] = 1
		}
		out[i] = v
	}
	return out, nil
}

func (m *mockModel) Close() error { return nil }

// mockClient implements driven.EmbeddingClient for testing.
// Vectors come from the vectors map when the text is known, otherwise from
// a stable fallback.
type mockClient struct {
	vectors map[string][]float32
	err     error

	// mutate lets a test corrupt the response of EmbedChunks.
	mutate func([]domain.ChunkPayload) []domain.ChunkPayload

	chunkCalls  atomic.Int32
	singleCalls atomic.Int32
}

func (m *mockClient) vectorFor(text string) []float32 {
	if v, ok := m.vectors[text]; ok {
		return append([]float32(nil), v...)
	}
	return []float32{float32(len(text)), 1}
}

func (m *mockClient) EmbedSingle(_ context.Context, text string) ([]float32, error) {
	m.singleCalls.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	return m.vectorFor(text), nil
}

func (m *mockClient) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = m.vectorFor(t)
	}
	return out, nil
}

func (m *mockClient) EmbedChunks(_ context.Context, chunks []domain.ChunkPayload) ([]domain.ChunkPayload, error) {
	m.chunkCalls.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	out := make([]domain.ChunkPayload, len(chunks))
	for i, c := range chunks {
		out[i] = domain.ChunkPayload{Text: c.Text, Fields: c.Fields.Clone(), Vector: m.vectorFor(c.Text)}
	}
	if m.mutate != nil {
		out = m.mutate(out)
	}
	return out, nil
}

func (m *mockClient) Health(_ context.Context) (*domain.HealthStatus, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &domain.HealthStatus{Ready: true, Status: domain.StatusHealthy, Model: "mock"}, nil
}

func (m *mockClient) ModelInfo(_ context.Context) (*domain.ModelInfo, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &domain.ModelInfo{Name: "mock", Dimensions: 2, Device: "cpu"}, nil
}

func (m *mockClient) Close() error { return nil }

// failingMetadataStore wraps a memory store and fails selected operations.
type failingMetadataStore struct {
	*memory.MetadataStore
	upsertErr error
	listErr   error
}

func (f *failingMetadataStore) UpsertChunks(ctx context.Context, chunks []domain.Chunk) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	return f.MetadataStore.UpsertChunks(ctx, chunks)
}

func (f *failingMetadataStore) ListChunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.MetadataStore.ListChunks(ctx, documentID)
}

// failingVectorIndex wraps a memory index and fails selected operations.
type failingVectorIndex struct {
	*memory.VectorIndex
	upsertErr error
	queryErr  error
	deleteErr error
}

func (f *failingVectorIndex) UpsertVectors(ctx context.Context, records []domain.VectorRecord) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	return f.VectorIndex.UpsertVectors(ctx, records)
}

func (f *failingVectorIndex) HybridQuery(ctx context.Context, q domain.HybridQuery) ([]domain.RetrievalResult, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.VectorIndex.HybridQuery(ctx, q)
}

func (f *failingVectorIndex) DeleteVectors(ctx context.Context, ids []string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	return f.VectorIndex.DeleteVectors(ctx, ids)
}

func rawJSON(s string) json.RawMessage { return json.RawMessage(s) }
