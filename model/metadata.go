package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"

	"github.com/siherrmann/kgraph/helper"
)

// Metadata is a JSON object stored in a JSONB column.
type Metadata map[string]interface{}

// NewMetadata converts any JSON object encodable value into Metadata.
func NewMetadata(v interface{}) (Metadata, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, helper.NewError("marshal metadata", err)
	}

	m := Metadata{}
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, helper.NewError("unmarshal metadata", err)
	}
	return m, nil
}

// Decode writes the metadata into v through its JSON representation.
func (m Metadata) Decode(v interface{}) error {
	b, err := m.Marshal()
	if err != nil {
		return helper.NewError("marshal metadata", err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return helper.NewError("decode metadata", err)
	}
	return nil
}

// Value implements the driver.Valuer interface for database storage
func (m Metadata) Value() (driver.Value, error) {
	return m.Marshal()
}

// Scan implements the sql.Scanner interface for database retrieval
func (m *Metadata) Scan(value interface{}) error {
	return m.Unmarshal(value)
}

// Marshal converts Metadata to JSON bytes, nil is written as an empty object.
func (m Metadata) Marshal() ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]interface{}(m))
}

// Unmarshal converts JSON bytes or Metadata to Metadata
func (m *Metadata) Unmarshal(value interface{}) error {
	if value == nil {
		*m = Metadata{}
		return nil
	}

	switch v := value.(type) {
	case Metadata:
		*m = v
		return nil
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	}
	return helper.NewError("byte assertion", errors.New("type assertion to []byte failed"))
}
