package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeJSON_KeepsHTMLCharacters(t *testing.T) {
	raw, err := EncodeJSON(map[string]string{"title": "Q&A <intro>"})
	require.NoError(t, err)
	assert.Equal(t, `{"title":"Q&A <intro>"}`, string(raw))
}

func TestChunkPayload_MarshalKeepsFieldBytes(t *testing.T) {
	var p ChunkPayload
	require.NoError(t, json.Unmarshal([]byte(`{"text":"a < b","title":"Q&A <intro>","meta":{"k": [1, 2], "x": "a>b"}}`), &p))

	raw, err := EncodeJSON(p)
	require.NoError(t, err)

	var back ChunkPayload
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, "a < b", back.Text)
	assert.Equal(t, `"Q&A <intro>"`, string(back.Fields["title"]))
	assert.Equal(t, `{"k":[1,2],"x":"a>b"}`, string(back.Fields["meta"]))
}

func TestNewFields_KeepsHTMLCharacters(t *testing.T) {
	f, err := NewFields(map[string]any{"title": "Q&A"})
	require.NoError(t, err)
	assert.Equal(t, `"Q&A"`, string(f["title"]))
}
