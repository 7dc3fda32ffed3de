package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// StringList stores a string slice as a JSON column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported type %T for StringList", value)
	}
}

// PropertyFeatures stores the selectable default bullets and the agent's
// custom bullets for a property as a JSON column.
type PropertyFeatures struct {
	Defaults []string `json:"defaults"`
	Custom   []string `json:"custom"`
}

func (f PropertyFeatures) Value() (driver.Value, error) {
	b, err := json.Marshal(f)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (f *PropertyFeatures) Scan(value interface{}) error {
	if value == nil {
		*f = PropertyFeatures{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, f)
	case string:
		return json.Unmarshal([]byte(v), f)
	default:
		return fmt.Errorf("unsupported type %T for PropertyFeatures", value)
	}
}

// All returns default bullets followed by custom bullets, the fixed order
// used in generated documents.
func (f PropertyFeatures) All() []string {
	out := make([]string, 0, len(f.Defaults)+len(f.Custom))
	out = append(out, f.Defaults...)
	out = append(out, f.Custom...)
	return out
}
