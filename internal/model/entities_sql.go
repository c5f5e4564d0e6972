package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Value implements driver.Valuer interface, storing the set as JSONB
func (e EntitySet) Value() (driver.Value, error) {
	return json.Marshal(e)
}

// Scan implements sql.Scanner interface
func (e *EntitySet) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*e = EntitySet{}
		return nil
	case []byte:
		return json.Unmarshal(v, e)
	case string:
		return json.Unmarshal([]byte(v), e)
	default:
		return fmt.Errorf("cannot scan %T into EntitySet", value)
	}
}
