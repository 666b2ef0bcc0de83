package retrieval

import (
	"sort"

	"github.com/siherrmann/kgraph/model"
)

// Basic fields added to extracted attributes when requested.
var basicFields = []string{"name", "type", "chunk_id", "canonical_name"}

// ExtractAttributes returns the attributes of the first mention matching
// each target name (case-insensitive substring) and filter. Targets without
// a match are left out. An empty fields list returns every attribute.
func (e *Engine) ExtractAttributes(targets []string, filter EntityFilter, fields []string, includeBasicInfo bool) map[string]map[string]interface{} {
	out := make(map[string]map[string]interface{}, len(targets))
	for _, target := range targets {
		f := filter
		name := target
		f.Name = &name

		matches := e.FilterEntities(f)
		if len(matches) == 0 {
			continue
		}
		out[target] = entityAttributes(matches[0], fields, includeBasicInfo)
	}
	return out
}

// AttributesByType returns the attributes of the mentions of one type keyed
// by mention name. The first mention of a name wins, limit <= 0 means all.
func (e *Engine) AttributesByType(entityType string, fields []string, limit int) map[string]map[string]interface{} {
	out := make(map[string]map[string]interface{})
	for _, m := range e.FilterEntities(EntityFilter{Type: &entityType}) {
		if _, ok := out[m.Name]; ok {
			continue
		}
		if limit > 0 && len(out) >= limit {
			break
		}
		out[m.Name] = entityAttributes(m, fields, true)
	}
	return out
}

// SummaryByType counts the entity mentions per type. Mentions without a
// type are counted as Unknown.
func (e *Engine) SummaryByType() map[string]int {
	summary := make(map[string]int)
	for _, m := range e.snapshot.Entities {
		t := m.Type
		if t == "" {
			t = "Unknown"
		}
		summary[t]++
	}
	return summary
}

// SortedTypes returns the keys of a type summary ordered by descending
// count, then by name.
func SortedTypes(summary map[string]int) []string {
	types := make([]string, 0, len(summary))
	for t := range summary {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool {
		if summary[types[i]] != summary[types[j]] {
			return summary[types[i]] > summary[types[j]]
		}
		return types[i] < types[j]
	})
	return types
}

func entityAttributes(m model.CanonicalEntityMention, fields []string, includeBasicInfo bool) map[string]interface{} {
	out := make(map[string]interface{})
	if includeBasicInfo {
		for _, field := range basicFields {
			if value, ok := fieldValue(m, field); ok {
				out[field] = value
			}
		}
	}

	if len(fields) == 0 {
		for key, value := range m.Attributes.ToMap() {
			out[key] = value
		}
		return out
	}

	for _, field := range fields {
		if value, ok := m.Attributes.Get(field); ok {
			out[field] = value
		}
	}
	return out
}
