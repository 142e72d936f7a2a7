package memory

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/hybridrag/internal/core/domain"
)

func TestMetadataStore_UpsertAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewMetadataStore()

	chunk := domain.Chunk{
		ID:         "c1",
		DocumentID: "d1",
		Text:       "alpha beta",
		Sequence:   0,
		Metadata:   domain.Fields{"title": json.RawMessage(`"Intro"`)},
		Vector:     []float32{1, 0},
	}
	require.NoError(t, store.UpsertChunk(ctx, chunk))

	got, err := store.GetChunk(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "alpha beta", got.Text)
	assert.Equal(t, "Intro", got.Metadata.String("title"))
	assert.Nil(t, got.Vector, "vectors belong to the index")
}

func TestMetadataStore_GetChunk_NotFound(t *testing.T) {
	_, err := NewMetadataStore().GetChunk(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMetadataStore_UpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMetadataStore()
	chunk := domain.Chunk{ID: "c1", DocumentID: "d1", Text: "v1"}

	require.NoError(t, store.UpsertChunks(ctx, []domain.Chunk{chunk}))
	require.NoError(t, store.UpsertChunks(ctx, []domain.Chunk{chunk}))
	assert.Equal(t, 1, store.Len())

	chunk.Text = "v2"
	require.NoError(t, store.UpsertChunk(ctx, chunk))
	got, err := store.GetChunk(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "v2", got.Text)
	assert.Equal(t, 1, store.Len())
}

func TestMetadataStore_UpsertRejectsMissingID(t *testing.T) {
	store := NewMetadataStore()
	err := store.UpsertChunks(context.Background(), []domain.Chunk{
		{ID: "ok", Text: "x"},
		{Text: "no id"},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Zero(t, store.Len(), "batch must be all or nothing")
}

func TestMetadataStore_ListAndDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMetadataStore()
	require.NoError(t, store.UpsertChunks(ctx, []domain.Chunk{
		{ID: "b", DocumentID: "d1", Text: "second", Sequence: 1},
		{ID: "a", DocumentID: "d1", Text: "first", Sequence: 0},
		{ID: "x", DocumentID: "d2", Text: "other", Sequence: 0},
	}))

	chunks, err := store.ListChunks(ctx, "d1")
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "a", chunks[0].ID)
	assert.Equal(t, "b", chunks[1].ID)

	require.NoError(t, store.DeleteChunks(ctx, []string{"a", "unknown"}))
	chunks, err = store.ListChunks(ctx, "d1")
	require.NoError(t, err)
	assert.Len(t, chunks, 1)
	assert.Equal(t, 2, store.Len())
}

func TestMetadataStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMetadataStore()
	require.NoError(t, store.UpsertChunk(ctx, domain.Chunk{
		ID: "c1", Text: "x", Metadata: domain.Fields{"k": json.RawMessage(`1`)},
	}))

	got, err := store.GetChunk(ctx, "c1")
	require.NoError(t, err)
	got.Metadata["k"] = json.RawMessage(`2`)

	again, err := store.GetChunk(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, json.RawMessage(`1`), again.Metadata["k"])
}

func TestMetadataStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewMetadataStore().UpsertChunk(ctx, domain.Chunk{ID: "c1", Text: "x"})
	assert.ErrorIs(t, err, context.Canceled)
}
