package types

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONObject stores an opaque JSON object (for example a browser push subscription) in a JSONB column.
type JSONObject json.RawMessage

// IsEmpty reports whether no object is stored.
func (j JSONObject) IsEmpty() bool {
	trimmed := bytes.TrimSpace(j)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// Value stores nil for empty objects so the column stays NULL.
func (j JSONObject) Value() (driver.Value, error) {
	if j.IsEmpty() {
		return nil, nil
	}
	return string(j), nil
}

func (j *JSONObject) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	switch v := value.(type) {
	case string:
		*j = JSONObject(append([]byte(nil), v...))
	case []byte:
		*j = JSONObject(append([]byte(nil), v...))
	default:
		return fmt.Errorf("json object: unsupported scan type %T", value)
	}
	return nil
}

func (j JSONObject) MarshalJSON() ([]byte, error) {
	if j.IsEmpty() {
		return []byte("null"), nil
	}
	return j, nil
}

func (j *JSONObject) UnmarshalJSON(data []byte) error {
	if j == nil {
		return fmt.Errorf("json object: UnmarshalJSON on nil pointer")
	}
	*j = append((*j)[0:0], data...)
	return nil
}

// ParseJSONObject accepts only a non-empty JSON object.
func ParseJSONObject(raw []byte) (JSONObject, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("json object: empty payload")
	}
	if trimmed[0] != '{' {
		return nil, fmt.Errorf("json object: payload must be an object")
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &probe); err != nil {
		return nil, fmt.Errorf("json object: %w", err)
	}
	if len(probe) == 0 {
		return nil, fmt.Errorf("json object: object has no fields")
	}
	return JSONObject(append([]byte(nil), trimmed...)), nil
}
