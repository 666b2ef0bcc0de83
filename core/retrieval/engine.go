package retrieval

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/siherrmann/kgraph/core/graph"
	"github.com/siherrmann/kgraph/core/pipeline"
	"github.com/siherrmann/kgraph/core/similarity"
	"github.com/siherrmann/kgraph/model"
)

// Engine answers read-only queries over one build snapshot. The snapshot
// is never modified, so an engine is safe for concurrent use.
type Engine struct {
	snapshot *pipeline.Result
	log      *slog.Logger
}

// EntityFilter selects entity mentions. Nil fields are unconstrained.
type EntityFilter struct {
	Type          *string // exact
	Name          *string // case-insensitive substring
	ChunkID       *string // exact
	CanonicalName *string // exact
}

// RelationFilter selects relation rows. Nil fields are unconstrained.
type RelationFilter struct {
	Head          *string // case-insensitive substring
	Tail          *string // case-insensitive substring, any element of a list tail
	Relation      *string // case-insensitive substring
	ChunkID       *string // exact
	CanonicalHead *string // exact
	CanonicalTail *string // exact, any element of a list tail
}

// SearchQuery is a keyword search over entity mentions. A mention matches
// when any keyword is contained in any of the fields.
type SearchQuery struct {
	Keywords []string
	Fields   []string // defaults to name and description
	Type     *string  // exact type restriction
}

// NewEngine creates a new retrieval engine over snapshot
func NewEngine(snapshot *pipeline.Result, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if snapshot == nil {
		snapshot = &pipeline.Result{}
	}
	if snapshot.Graph == nil {
		s := *snapshot
		s.Graph = graph.NewKnowledgeGraph()
		snapshot = &s
	}
	return &Engine{
		snapshot: snapshot,
		log:      logger,
	}
}

// Snapshot returns the snapshot the engine reads from.
func (e *Engine) Snapshot() *pipeline.Result {
	return e.snapshot
}

// FilterEntities returns the entity mentions matching every set field of filter.
func (e *Engine) FilterEntities(filter EntityFilter) []model.CanonicalEntityMention {
	out := []model.CanonicalEntityMention{}
	for _, m := range e.snapshot.Entities {
		if matchEntity(m, filter) {
			out = append(out, m)
		}
	}
	return out
}

func matchEntity(m model.CanonicalEntityMention, filter EntityFilter) bool {
	if filter.Type != nil && m.Type != *filter.Type {
		return false
	}
	if filter.Name != nil && !containsFold(m.Name, *filter.Name) {
		return false
	}
	if filter.ChunkID != nil && string(m.ChunkID) != *filter.ChunkID {
		return false
	}
	if filter.CanonicalName != nil && m.CanonicalName != *filter.CanonicalName {
		return false
	}
	return true
}

// FilterRelations returns the relation rows matching every set field of filter.
func (e *Engine) FilterRelations(filter RelationFilter) []model.CanonicalRelation {
	out := []model.CanonicalRelation{}
	for _, r := range e.snapshot.Relations {
		if matchRelation(r, filter) {
			out = append(out, r)
		}
	}
	return out
}

func matchRelation(r model.CanonicalRelation, filter RelationFilter) bool {
	if filter.Head != nil && !containsFold(r.OriginalHead, *filter.Head) {
		return false
	}
	if filter.Tail != nil && !anyValue(r.OriginalTail, func(v string) bool { return containsFold(v, *filter.Tail) }) {
		return false
	}
	if filter.Relation != nil && !containsFold(r.Relation, *filter.Relation) {
		return false
	}
	if filter.ChunkID != nil && string(r.ChunkID) != *filter.ChunkID {
		return false
	}
	if filter.CanonicalHead != nil && r.CanonicalHead != *filter.CanonicalHead {
		return false
	}
	if filter.CanonicalTail != nil && !anyValue(r.CanonicalTail, func(v string) bool { return v == *filter.CanonicalTail }) {
		return false
	}
	return true
}

func anyValue(tail model.Tail, match func(string) bool) bool {
	for _, v := range tail.Values {
		if match(v) {
			return true
		}
	}
	return false
}

// SearchEntities returns the entity mentions matching any keyword in any
// of the query fields. Keywords are matched case-insensitively as substrings.
func (e *Engine) SearchEntities(query SearchQuery) []model.CanonicalEntityMention {
	fields := query.Fields
	if len(fields) == 0 {
		fields = model.DefaultQueryConfig().SearchFields
	}

	out := []model.CanonicalEntityMention{}
	for _, m := range e.snapshot.Entities {
		if query.Type != nil && m.Type != *query.Type {
			continue
		}
		if matchKeywords(m, query.Keywords, fields) {
			out = append(out, m)
		}
	}
	return out
}

func matchKeywords(m model.CanonicalEntityMention, keywords []string, fields []string) bool {
	for _, field := range fields {
		value, ok := fieldValue(m, field)
		if !ok {
			continue
		}
		for _, keyword := range keywords {
			if keyword != "" && containsFold(value, keyword) {
				return true
			}
		}
	}
	return false
}

// fieldValue returns the searchable text of a field. Known attribute names
// and attributes.<key> address the mention attributes.
func fieldValue(m model.CanonicalEntityMention, field string) (string, bool) {
	switch field {
	case "name":
		return m.Name, true
	case "type":
		return m.Type, true
	case "chunk_id":
		return string(m.ChunkID), true
	case "canonical_name":
		return m.CanonicalName, true
	}

	key := strings.TrimPrefix(field, "attributes.")
	value, ok := m.Attributes.Get(key)
	if !ok {
		return "", false
	}
	return stringify(value), true
}

func stringify(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	}
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprint(value)
	}
	return string(b)
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// Resolve returns the graph node for a surface form or canonical name.
func (e *Engine) Resolve(name string) (string, bool) {
	canonical := e.snapshot.CanonicalMap.Get(name)
	return canonical, e.snapshot.Graph.HasNode(canonical)
}

// Neighbors returns the nodes reachable from name within maxHops, ignoring
// edge direction. The start node is never part of the result.
func (e *Engine) Neighbors(name string, maxHops int) []*graph.TraversalResult {
	start, ok := e.Resolve(name)
	if !ok {
		e.log.Debug("Neighbors of unknown node", slog.String("name", name))
		return []*graph.TraversalResult{}
	}
	return graph.BFS(e.snapshot.Graph, start, maxHops)
}

// DepthFirst is Neighbors walking depth first. Distances follow the first
// path found, so they can exceed the shortest distance.
func (e *Engine) DepthFirst(name string, maxHops int) []*graph.TraversalResult {
	start, ok := e.Resolve(name)
	if !ok {
		return []*graph.TraversalResult{}
	}
	return graph.DFS(e.snapshot.Graph, start, maxHops)
}

// CanonicalEntity returns the merged entity of a surface form or canonical name.
func (e *Engine) CanonicalEntity(name string) (*model.CanonicalEntity, bool) {
	entity, ok := e.snapshot.CanonicalEntities[e.snapshot.CanonicalMap.Get(name)]
	if !ok || entity == nil {
		return nil, false
	}
	return entity.Clone(), true
}

// Edges returns every graph edge of the node name resolves to.
func (e *Engine) Edges(name string) []*graph.Edge {
	start, ok := e.Resolve(name)
	if !ok {
		return []*graph.Edge{}
	}
	return e.snapshot.Graph.EdgesOf(start)
}

// SimilarTo lists the names whose embedding is close to name.
func (e *Engine) SimilarTo(name string, topK int) []similarity.Neighbor {
	if e.snapshot.Similarity == nil {
		return []similarity.Neighbor{}
	}
	return e.snapshot.Similarity.SimilarTo(name, topK)
}
