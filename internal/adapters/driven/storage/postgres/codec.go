package postgres

import (
	"encoding/json"

	"github.com/custodia-labs/hybridrag/internal/core/domain"
)

// encodeMetadata returns the JSON text for a JSONB column, or nil for NULL.
func encodeMetadata(f domain.Fields) (any, error) {
	if f == nil {
		return nil, nil
	}
	raw, err := domain.EncodeJSON(f)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// decodeMetadata parses a JSONB column. JSONB normalises whitespace, so
// values come back compact.
func decodeMetadata(raw []byte) (domain.Fields, error) {
	if raw == nil {
		return nil, nil
	}
	var f domain.Fields
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, err
	}
	return f, nil
}
