package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Chunk represents a searchable unit within a source document.
// A chunk is immutable once persisted; re-ingestion replaces it by ID.
type Chunk struct {
	// ID is unique across the corpus and stable across re-ingestion
	// of the same document offset.
	ID string `json:"chunk_id"`

	// DocumentID links the chunk to its source document.
	DocumentID string `json:"doc_id"`

	// Text is the chunk content. Never empty.
	Text string `json:"text"`

	// Sequence is the ordinal position within the document.
	Sequence int `json:"sequence_index"`

	// Metadata carries arbitrary caller attributes (title, filename, pages).
	Metadata Fields `json:"metadata,omitempty"`

	// Vector is absent until embedding succeeds.
	Vector []float32 `json:"vector,omitempty"`
}

// HasVector returns true if the chunk has been embedded.
func (c *Chunk) HasVector() bool {
	return len(c.Vector) > 0
}

// Fields is an open attribute map whose values are kept as raw JSON,
// so they round-trip through every store and service unchanged.
type Fields map[string]json.RawMessage

// NewFields encodes values into a Fields map.
func NewFields(values map[string]any) (Fields, error) {
	if values == nil {
		return nil, nil
	}
	f := make(Fields, len(values))
	for k, v := range values {
		raw, err := EncodeJSON(v)
		if err != nil {
			return nil, fmt.Errorf("encoding field %q: %w", k, err)
		}
		f[k] = raw
	}
	return f, nil
}

// Get decodes the value under key into dst.
// Returns ErrNotFound if the key is absent.
func (f Fields) Get(key string, dst any) error {
	raw, ok := f[key]
	if !ok {
		return ErrNotFound
	}
	return json.Unmarshal(raw, dst)
}

// String returns the value under key if it is a JSON string.
func (f Fields) String(key string) string {
	var s string
	if err := f.Get(key, &s); err != nil {
		return ""
	}
	return s
}

// Clone returns a copy that shares no map with f.
func (f Fields) Clone() Fields {
	if f == nil {
		return nil
	}
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = append(json.RawMessage(nil), v...)
	}
	return out
}

// Keys returns the field names in sorted order.
func (f Fields) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// UnmarshalJSON compacts every value so stored and transmitted forms agree.
func (f *Fields) UnmarshalJSON(data []byte) error {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	if m == nil {
		*f = nil
		return nil
	}
	out := make(Fields, len(m))
	for k, v := range m {
		var buf bytes.Buffer
		if err := json.Compact(&buf, v); err != nil {
			return fmt.Errorf("field %q: %w", k, err)
		}
		out[k] = buf.Bytes()
	}
	*f = out
	return nil
}

// Reserved payload keys.
const (
	PayloadTextKey   = "text"
	PayloadVectorKey = "vector"
)

// ChunkPayload is a chunk as it crosses the embedding boundary: a flat
// JSON object with a text field, any number of pass-through fields and,
// on the way back, a vector.
type ChunkPayload struct {
	Text   string
	Fields Fields
	Vector []float32
}

// MarshalJSON flattens the payload into a single object.
func (p ChunkPayload) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(p.Fields)+2)
	for k, v := range p.Fields {
		out[k] = v
	}
	text, err := EncodeJSON(p.Text)
	if err != nil {
		return nil, err
	}
	out[PayloadTextKey] = text
	if p.Vector != nil {
		vec, err := EncodeJSON(p.Vector)
		if err != nil {
			return nil, err
		}
		out[PayloadVectorKey] = vec
	}
	return EncodeJSON(out)
}

// UnmarshalJSON splits a flat object into text, vector and pass-through fields.
// A text value that is not a JSON string is rejected as ErrInvalidInput;
// a missing or null text decodes as empty.
func (p *ChunkPayload) UnmarshalJSON(data []byte) error {
	var fields Fields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if fields == nil {
		return fmt.Errorf("%w: chunk must be an object", ErrInvalidInput)
	}

	*p = ChunkPayload{}
	if raw, ok := fields[PayloadTextKey]; ok {
		if string(raw) != "null" {
			if err := json.Unmarshal(raw, &p.Text); err != nil {
				return fmt.Errorf("%w: chunk text must be a string", ErrInvalidInput)
			}
		}
		delete(fields, PayloadTextKey)
	}
	if raw, ok := fields[PayloadVectorKey]; ok {
		if string(raw) != "null" {
			if err := json.Unmarshal(raw, &p.Vector); err != nil {
				return fmt.Errorf("%w: chunk vector must be a number array", ErrInvalidInput)
			}
		}
		delete(fields, PayloadVectorKey)
	}
	p.Fields = fields
	return nil
}
