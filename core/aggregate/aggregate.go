package aggregate

import (
	"sort"

	"github.com/google/go-cmp/cmp"
	"github.com/siherrmann/kgraph/model"
)

// Aggregate merges the mentions of every canonical entity. Attribute values
// are accumulated without arbitration: conflicting values are all kept,
// duplicates are removed by deep equality and nil values are skipped.
func Aggregate(mentions []model.EntityMention, canonicalMap model.CanonicalMap) map[string]*model.CanonicalEntity {
	entities := make(map[string]*model.CanonicalEntity)
	typeFromSelf := make(map[string]bool)

	for _, m := range mentions {
		canonical := canonicalMap.Get(m.Name)

		entity, ok := entities[canonical]
		if !ok {
			entity = &model.CanonicalEntity{
				Name:       canonical,
				Attributes: model.AggregatedAttributes{},
			}
			entities[canonical] = entity
		}

		entity.MentionCount++
		entity.Members = appendUnique(entity.Members, m.Name)
		if m.Type != "" {
			entity.Types = appendUnique(entity.Types, m.Type)
			// The type of the representative's own first mention wins over
			// the first mention of any other member.
			if entity.Type == "" || (!typeFromSelf[canonical] && m.Name == canonical) {
				entity.Type = m.Type
				typeFromSelf[canonical] = m.Name == canonical
			}
		}

		for _, key := range m.Attributes.Keys() {
			value, _ := m.Attributes.Get(key)
			Merge(entity.Attributes, key, value)
		}
	}

	for _, entity := range entities {
		sort.Strings(entity.Members)
		sort.Strings(entity.Types)
	}

	return entities
}

// Merge adds value to the values stored under key. Maps are merged
// recursively into sub attributes and lists contribute each element.
func Merge(into model.AggregatedAttributes, key string, value interface{}) {
	switch v := value.(type) {
	case nil:
		return
	case map[string]interface{}:
		for k, sub := range v {
			if sub == nil {
				continue
			}
			values := entry(into, key)
			if values.Fields == nil {
				values.Fields = model.AggregatedAttributes{}
			}
			Merge(values.Fields, k, sub)
		}
	case []interface{}:
		for _, element := range v {
			Merge(into, key, element)
		}
	case []string:
		for _, element := range v {
			Merge(into, key, element)
		}
	default:
		values := entry(into, key)
		for _, existing := range values.Values {
			if cmp.Equal(existing, v) {
				return
			}
		}
		values.Values = append(values.Values, v)
	}
}

func entry(into model.AggregatedAttributes, key string) *model.AttributeValues {
	values, ok := into[key]
	if !ok || values == nil {
		values = &model.AttributeValues{}
		into[key] = values
	}
	return values
}

func appendUnique(values []string, value string) []string {
	for _, v := range values {
		if v == value {
			return values
		}
	}
	return append(values, value)
}

// Sorted returns the entities ordered by canonical name.
func Sorted(entities map[string]*model.CanonicalEntity) []*model.CanonicalEntity {
	out := make([]*model.CanonicalEntity, 0, len(entities))
	for _, e := range entities {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}
