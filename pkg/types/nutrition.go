package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// NutritionalInfo is persisted as JSONB on meal_packages.nutritional_info.
type NutritionalInfo struct {
	Calories int     `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

// Value marshals the struct into JSON for Postgres.
func (n NutritionalInfo) Value() (driver.Value, error) {
	buf, err := json.Marshal(n)
	if err != nil {
		return nil, err
	}
	return string(buf), nil
}

// Scan decodes JSONB into the struct.
func (n *NutritionalInfo) Scan(value interface{}) error {
	if value == nil {
		*n = NutritionalInfo{}
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("nutritional info: unsupported scan type %T", value)
	}

	var result NutritionalInfo
	if err := json.Unmarshal(raw, &result); err != nil {
		return err
	}
	*n = result
	return nil
}
