package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnsupportedJSONB is returned when scanning a column whose driver type
// is neither string nor []byte.
var ErrUnsupportedJSONB = errors.New("unsupported source type for JSONBMap")

// JSONBMap stores a flat metric group (name -> string/number) as JSONB in
// PostgreSQL. It implements sql.Scanner and driver.Valuer so records move
// between map[string]any and the column without per-field marshaling code.
type JSONBMap map[string]any

// Scan implements the sql.Scanner interface.
func (j *JSONBMap) Scan(value any) error {
	if value == nil {
		*j = nil
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedJSONB, value)
	}

	if len(data) == 0 {
		*j = JSONBMap{}
		return nil
	}

	return json.Unmarshal(data, j)
}

// Value implements the driver.Valuer interface. Empty and nil maps both
// store as the empty JSON object so reads never see SQL NULL.
func (j JSONBMap) Value() (driver.Value, error) {
	if len(j) == 0 {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]any(j))
}
