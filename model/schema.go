package model

import (
	"fmt"
	"os"
	"sort"

	"github.com/siherrmann/kgraph/helper"
	"gopkg.in/yaml.v3"
)

// Schema is the vocabulary of entity types, relation labels and attribute
// fields. It is loaded once and never modified, an empty list leaves the
// corresponding vocabulary open.
type Schema struct {
	entityTypes     []string
	relationLabels  []string
	attributeFields []string

	entityTypeSet    map[string]struct{}
	relationLabelSet map[string]struct{}
}

type schemaFile struct {
	EntityTypes     []string `yaml:"entity_types"`
	RelationLabels  []string `yaml:"relation_labels"`
	AttributeFields []string `yaml:"attribute_fields"`
}

// NewSchema creates a schema from the given vocabularies.
func NewSchema(entityTypes, relationLabels, attributeFields []string) *Schema {
	s := &Schema{
		entityTypes:      sortedCopy(entityTypes),
		relationLabels:   sortedCopy(relationLabels),
		attributeFields:  sortedCopy(attributeFields),
		entityTypeSet:    make(map[string]struct{}, len(entityTypes)),
		relationLabelSet: make(map[string]struct{}, len(relationLabels)),
	}
	for _, t := range entityTypes {
		s.entityTypeSet[t] = struct{}{}
	}
	for _, l := range relationLabels {
		s.relationLabelSet[l] = struct{}{}
	}
	return s
}

// DefaultSchema returns the story knowledge graph vocabulary.
func DefaultSchema() *Schema {
	return NewSchema(
		[]string{"Person", "Location", "Organization", "Event", "Object", "Concept", "Time"},
		[]string{"knows", "locatedIn", "partOf", "possesses", "participatesIn", "happensAt", "occursDuring", "createdBy", "hasTrait"},
		KnownAttributeFields,
	)
}

// ParseSchema reads a schema from YAML.
func ParseSchema(data []byte) (*Schema, error) {
	var f schemaFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, helper.NewError("parse schema", err)
	}
	return NewSchema(f.EntityTypes, f.RelationLabels, f.AttributeFields), nil
}

// LoadSchema reads a schema from a YAML file.
func LoadSchema(path string) (*Schema, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is operator supplied
	if err != nil {
		return nil, helper.NewError("read schema", err)
	}
	if len(data) == 0 {
		return nil, helper.NewError("read schema", fmt.Errorf("schema file %s is empty", path))
	}
	return ParseSchema(data)
}

// HasEntityType reports whether t is allowed.
func (s *Schema) HasEntityType(t string) bool {
	if s == nil || len(s.entityTypeSet) == 0 {
		return true
	}
	_, ok := s.entityTypeSet[t]
	return ok
}

// HasRelationLabel reports whether label is allowed.
func (s *Schema) HasRelationLabel(label string) bool {
	if s == nil || len(s.relationLabelSet) == 0 {
		return true
	}
	_, ok := s.relationLabelSet[label]
	return ok
}

func (s *Schema) EntityTypes() []string     { return sortedCopy(s.entityTypes) }
func (s *Schema) RelationLabels() []string  { return sortedCopy(s.relationLabels) }
func (s *Schema) AttributeFields() []string { return sortedCopy(s.attributeFields) }

func sortedCopy(values []string) []string {
	out := make([]string, len(values))
	copy(out, values)
	sort.Strings(out)
	return out
}
