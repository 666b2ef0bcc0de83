package model

import (
	"encoding/json"
	"sort"
)

// Known attribute keys.
const (
	AttributeName        = "name"
	AttributeGender      = "gender"
	AttributeRole        = "role"
	AttributeDescription = "description"
	AttributeBirthDate   = "birthDate"
	AttributeDeathDate   = "deathDate"
	AttributeAffiliation = "affiliation"
)

// KnownAttributeFields lists the attribute keys with a dedicated field on Attributes.
var KnownAttributeFields = []string{
	AttributeName,
	AttributeGender,
	AttributeRole,
	AttributeDescription,
	AttributeBirthDate,
	AttributeDeathDate,
	AttributeAffiliation,
}

// MaxExtraAttributes bounds the number of unrecognized attribute keys per mention.
const MaxExtraAttributes = 64

// Attributes are the attributes of an entity mention. Known keys holding a
// string land in their field, everything else (unknown keys and known keys
// with non string values) is kept in Extra. Null values are dropped on decode.
type Attributes struct {
	Name        *string
	Gender      *string
	Role        *string
	Description *string
	BirthDate   *string
	DeathDate   *string
	Affiliation *string
	Extra       map[string]interface{} `validate:"max=64"`
}

// NewAttributes builds Attributes from a plain map.
func NewAttributes(values map[string]interface{}) Attributes {
	a := Attributes{}
	for key, value := range values {
		a.Set(key, value)
	}
	return a
}

func (a *Attributes) field(key string) **string {
	switch key {
	case AttributeName:
		return &a.Name
	case AttributeGender:
		return &a.Gender
	case AttributeRole:
		return &a.Role
	case AttributeDescription:
		return &a.Description
	case AttributeBirthDate:
		return &a.BirthDate
	case AttributeDeathDate:
		return &a.DeathDate
	case AttributeAffiliation:
		return &a.Affiliation
	}
	return nil
}

// Set stores value under key. A nil value removes the key.
func (a *Attributes) Set(key string, value interface{}) {
	f := a.field(key)
	if f != nil {
		*f = nil
	}
	if a.Extra != nil {
		delete(a.Extra, key)
	}
	if value == nil {
		return
	}

	if s, ok := value.(string); ok && f != nil {
		*f = &s
		return
	}

	if a.Extra == nil {
		a.Extra = map[string]interface{}{}
	}
	a.Extra[key] = value
}

// Get returns the value stored under key.
func (a Attributes) Get(key string) (interface{}, bool) {
	if f := a.field(key); f != nil && *f != nil {
		return **f, true
	}
	v, ok := a.Extra[key]
	return v, ok
}

// Keys returns all present keys in sorted order.
func (a Attributes) Keys() []string {
	keys := make([]string, 0, len(KnownAttributeFields)+len(a.Extra))
	for _, key := range KnownAttributeFields {
		if f := a.field(key); *f != nil {
			keys = append(keys, key)
		}
	}
	for key := range a.Extra {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of present keys.
func (a Attributes) Len() int {
	return len(a.Keys())
}

// ToMap returns the attributes as a plain map.
func (a Attributes) ToMap() map[string]interface{} {
	m := make(map[string]interface{}, len(KnownAttributeFields)+len(a.Extra))
	for _, key := range a.Keys() {
		v, _ := a.Get(key)
		m[key] = v
	}
	return m
}

func (a Attributes) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.ToMap())
}

func (a *Attributes) UnmarshalJSON(data []byte) error {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*a = NewAttributes(raw)
	return nil
}
