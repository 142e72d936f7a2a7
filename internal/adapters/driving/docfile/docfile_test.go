package docfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/hybridrag/internal/core/domain"
)

func TestParse_SingleDocument(t *testing.T) {
	docs, err := Parse(strings.NewReader(`{
		"doc_id": "D1",
		"chunks": [
			{"text": "alpha beta", "metadata": {"title": "Intro", "pages": [1]}},
			{"text": "gamma delta", "chunk_id": "custom", "sequence_index": 7}
		]
	}`))
	require.NoError(t, err)
	require.Len(t, docs, 1)

	doc := docs[0]
	assert.Equal(t, "D1", doc.ID)
	require.Len(t, doc.Chunks, 2)
	assert.Equal(t, "", doc.Chunks[0].ID)
	assert.Equal(t, "D1", doc.Chunks[0].DocumentID)
	assert.Equal(t, 0, doc.Chunks[0].Sequence)
	assert.Equal(t, "Intro", doc.Chunks[0].Metadata.String("title"))
	assert.Equal(t, "custom", doc.Chunks[1].ID)
	assert.Equal(t, 7, doc.Chunks[1].Sequence)
}

func TestParse_Array(t *testing.T) {
	docs, err := Parse(strings.NewReader(`[
		{"doc_id": "A", "chunks": [{"text": "one"}]},
		{"doc_id": "B", "chunks": [{"text": "two"}, {"text": "three"}]}
	]`))
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "B", docs[1].ID)
	assert.Equal(t, 1, docs[1].Chunks[1].Sequence)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", "  "},
		{"malformed", `{"doc_id": `},
		{"missing doc id", `{"chunks": [{"text": "x"}]}`},
		{"array missing doc id", `[{"chunks": []}]`},
		{"non-string text", `{"doc_id": "D", "chunks": [{"text": 3}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input))
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestParseFile_FallbackID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "handbook.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"chunks": [{"text": "hello"}]}`), 0600))

	docs, err := ParseFile(path)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "handbook", docs[0].ID)
	assert.Equal(t, "handbook", docs[0].Chunks[0].DocumentID)
}

func TestParseFile_Missing(t *testing.T) {
	_, err := ParseFile(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestIsDocumentFile(t *testing.T) {
	assert.True(t, IsDocumentFile("/docs/a.json"))
	assert.True(t, IsDocumentFile("B.JSON"))
	assert.False(t, IsDocumentFile("notes.txt"))
	assert.False(t, IsDocumentFile("/docs/.hidden.json"))
}
