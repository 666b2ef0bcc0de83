package model

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// ChunkID identifies the text chunk a mention was extracted from.
// Extractors emit it either as a JSON string or as a number.
type ChunkID string

func (c *ChunkID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*c = ChunkID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("chunk_id must be a string or a number, got %s", string(data))
	}
	*c = ChunkID(n.String())
	return nil
}

// EntityMention is one occurrence of a named entity in a single chunk.
type EntityMention struct {
	ChunkID    ChunkID    `json:"chunk_id" validate:"required"`
	Type       string     `json:"type"`
	Name       string     `json:"name" validate:"required"`
	Attributes Attributes `json:"attributes"`
}

// RelationMention is one extracted relation of a single chunk.
type RelationMention struct {
	ChunkID  ChunkID `json:"chunk_id" validate:"required"`
	Head     string  `json:"head"`
	Relation string  `json:"relation"`
	Tail     Tail    `json:"tail"`
}

// EntityChunk is one element of the entity dataset.
type EntityChunk struct {
	ChunkID  ChunkID        `json:"chunk_id" validate:"required"`
	Entities []EntityRecord `json:"entities" validate:"dive"`
}

// EntityRecord is an entity as listed inside an EntityChunk.
type EntityRecord struct {
	Type       string     `json:"type"`
	Name       string     `json:"name" validate:"required"`
	Attributes Attributes `json:"attributes"`
}

// RelationChunk is one element of the relation dataset.
type RelationChunk struct {
	ChunkID     ChunkID          `json:"chunk_id" validate:"required"`
	RelationSet []RelationRecord `json:"relation_set"`
}

// RelationRecord is a relation as listed inside a RelationChunk.
type RelationRecord struct {
	Head     string `json:"head"`
	Relation string `json:"relation"`
	Tail     Tail   `json:"tail"`
}

// Tail is the tail of a relation. Extractors emit either a single name or a
// list of names, IsList keeps track of which shape was read so it can be
// written back unchanged.
type Tail struct {
	Values []string
	IsList bool
}

// SingleTail returns a tail holding one name.
func SingleTail(name string) Tail {
	return Tail{Values: []string{name}}
}

// ListTail returns a list shaped tail.
func ListTail(names ...string) Tail {
	values := make([]string, len(names))
	copy(values, names)
	return Tail{Values: values, IsList: true}
}

// Map applies f to every element and keeps the shape.
func (t Tail) Map(f func(string) string) Tail {
	values := make([]string, len(t.Values))
	for i, v := range t.Values {
		values[i] = f(v)
	}
	return Tail{Values: values, IsList: t.IsList}
}

// First returns the single value of a string tail or the first element of a list.
func (t Tail) First() string {
	if len(t.Values) == 0 {
		return ""
	}
	return t.Values[0]
}

// NonEmpty returns the elements that are not empty strings.
func (t Tail) NonEmpty() []string {
	values := make([]string, 0, len(t.Values))
	for _, v := range t.Values {
		if v != "" {
			values = append(values, v)
		}
	}
	return values
}

func (t Tail) String() string {
	if !t.IsList {
		return t.First()
	}
	b, _ := json.Marshal(t.Values)
	return string(b)
}

func (t Tail) MarshalJSON() ([]byte, error) {
	if t.IsList {
		values := t.Values
		if values == nil {
			values = []string{}
		}
		return json.Marshal(values)
	}
	return json.Marshal(t.First())
}

func (t *Tail) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch v := raw.(type) {
	case nil:
		*t = SingleTail("")
	case string:
		*t = SingleTail(v)
	case float64:
		*t = SingleTail(strconv.FormatFloat(v, 'f', -1, 64))
	case []interface{}:
		values := make([]string, 0, len(v))
		for _, element := range v {
			switch e := element.(type) {
			case nil:
				values = append(values, "")
			case string:
				values = append(values, e)
			default:
				return fmt.Errorf("relation tail elements must be strings, got %T", element)
			}
		}
		*t = Tail{Values: values, IsList: true}
	default:
		return fmt.Errorf("relation tail must be a string or a list of strings, got %T", raw)
	}
	return nil
}
