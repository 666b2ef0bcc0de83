package model

import (
	"encoding/json"
	"fmt"
	"sort"
)

// EmbeddingIndex maps each distinct entity name to its embedding vector.
// Keys are matched exactly, including case.
type EmbeddingIndex map[string][]float32

// Dimension returns the vector length, 0 for an empty index.
func (e EmbeddingIndex) Dimension() int {
	for _, v := range e {
		return len(v)
	}
	return 0
}

// Names returns the indexed names in sorted order.
func (e EmbeddingIndex) Names() []string {
	names := make([]string, 0, len(e))
	for name := range e {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SimilarityEdge connects two names whose embeddings reached the threshold.
type SimilarityEdge struct {
	A     string  `json:"a"`
	B     string  `json:"b"`
	Score float64 `json:"score"`
}

// CanonicalMap maps every observed entity name to its canonical name.
type CanonicalMap map[string]string

// Get returns the canonical name of name, or name itself when it was never observed.
func (m CanonicalMap) Get(name string) string {
	if canonical, ok := m[name]; ok {
		return canonical
	}
	return name
}

// Contains reports whether name is part of the vocabulary.
func (m CanonicalMap) Contains(name string) bool {
	_, ok := m[name]
	return ok
}

// Names returns the vocabulary in sorted order.
func (m CanonicalMap) Names() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Members returns all names mapped to canonical, sorted.
func (m CanonicalMap) Members(canonical string) []string {
	var members []string
	for name, c := range m {
		if c == canonical {
			members = append(members, name)
		}
	}
	sort.Strings(members)
	return members
}

// CanonicalNames returns the distinct canonical names, sorted.
func (m CanonicalMap) CanonicalNames() []string {
	seen := make(map[string]struct{}, len(m))
	for _, c := range m {
		seen[c] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for c := range seen {
		names = append(names, c)
	}
	sort.Strings(names)
	return names
}

// CanonicalEntity is the merged identity of all mentions sharing a canonical name.
type CanonicalEntity struct {
	Name         string               `json:"canonical_name"`
	Type         string               `json:"type"`
	Types        []string             `json:"types"`
	Members      []string             `json:"members"`
	MentionCount int                  `json:"mention_count"`
	Attributes   AggregatedAttributes `json:"aggregated_attributes"`
}

// Clone returns a deep copy of the entity.
func (e *CanonicalEntity) Clone() *CanonicalEntity {
	if e == nil {
		return nil
	}
	c := *e
	c.Types = append([]string(nil), e.Types...)
	c.Members = append([]string(nil), e.Members...)
	c.Attributes = e.Attributes.Clone()
	return &c
}

// CanonicalEntityMention is a row of the canonicalized entity table.
type CanonicalEntityMention struct {
	EntityMention
	CanonicalName string `json:"canonical_name"`
}

// CanonicalRelation is a row of the canonicalized relation table.
type CanonicalRelation struct {
	ChunkID       ChunkID `json:"chunk_id"`
	OriginalHead  string  `json:"original_head"`
	CanonicalHead string  `json:"canonical_head"`
	Relation      string  `json:"relation"`
	OriginalTail  Tail    `json:"original_tail"`
	CanonicalTail Tail    `json:"canonical_tail"`
}

// AggregatedAttributes maps an attribute key to every value observed for it.
type AggregatedAttributes map[string]*AttributeValues

// Keys returns the attribute keys in sorted order.
func (a AggregatedAttributes) Keys() []string {
	keys := make([]string, 0, len(a))
	for key := range a {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a deep copy. A nil map stays nil.
func (a AggregatedAttributes) Clone() AggregatedAttributes {
	if a == nil {
		return nil
	}
	c := make(AggregatedAttributes, len(a))
	for key, v := range a {
		c[key] = v.Clone()
	}
	return c
}

// Values returns the scalar values stored under key.
func (a AggregatedAttributes) Values(key string) []interface{} {
	v, ok := a[key]
	if !ok || v == nil {
		return nil
	}
	return v.Values
}

// AttributeValues holds the distinct scalar values of one attribute and,
// for attributes that were maps, the recursively aggregated sub attributes.
//
// On the wire scalars are a JSON array. Sub attributes alone are a JSON
// object, sub attributes next to scalars are appended as the last array element.
type AttributeValues struct {
	Values []interface{}
	Fields AggregatedAttributes
}

// Clone returns a deep copy of v.
func (v *AttributeValues) Clone() *AttributeValues {
	if v == nil {
		return nil
	}
	return &AttributeValues{
		Values: append([]interface{}(nil), v.Values...),
		Fields: v.Fields.Clone(),
	}
}

func (v AttributeValues) MarshalJSON() ([]byte, error) {
	if len(v.Values) == 0 && len(v.Fields) > 0 {
		return json.Marshal(v.Fields)
	}
	out := make([]interface{}, 0, len(v.Values)+1)
	out = append(out, v.Values...)
	if len(v.Fields) > 0 {
		out = append(out, v.Fields)
	}
	return json.Marshal(out)
}

func (v *AttributeValues) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch r := raw.(type) {
	case nil:
		*v = AttributeValues{}
		return nil
	case map[string]interface{}:
		fields := AggregatedAttributes{}
		if err := json.Unmarshal(data, &fields); err != nil {
			return err
		}
		*v = AttributeValues{Fields: fields}
		return nil
	case []interface{}:
		var elements []json.RawMessage
		if err := json.Unmarshal(data, &elements); err != nil {
			return err
		}
		out := AttributeValues{}
		for i, element := range r {
			if _, ok := element.(map[string]interface{}); ok {
				fields := AggregatedAttributes{}
				if err := json.Unmarshal(elements[i], &fields); err != nil {
					return err
				}
				out.Fields = fields
				continue
			}
			out.Values = append(out.Values, element)
		}
		*v = out
		return nil
	default:
		return fmt.Errorf("aggregated attribute must be an array or an object, got %T", raw)
	}
}
