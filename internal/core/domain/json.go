package domain

import (
	"bytes"
	"encoding/json"
)

// EncodeJSON marshals v without HTML escaping, so field values keep the
// exact bytes they arrived with.
func EncodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
