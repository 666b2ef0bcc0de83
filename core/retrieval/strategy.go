package retrieval

import (
	"sort"

	"github.com/siherrmann/kgraph/model"
)

// Strategy defines a retrieval strategy
type Strategy interface {
	Retrieve(query SearchQuery, config model.QueryConfig) []*model.RetrievalResult
}

// KeywordStrategy returns the canonical entities of all keyword matches
type KeywordStrategy struct {
	engine *Engine
}

// NewKeywordStrategy creates a new keyword strategy
func NewKeywordStrategy(engine *Engine) *KeywordStrategy {
	return &KeywordStrategy{engine: engine}
}

// Retrieve performs keyword retrieval
func (s *KeywordStrategy) Retrieve(query SearchQuery, config model.QueryConfig) []*model.RetrievalResult {
	if len(query.Fields) == 0 {
		query.Fields = config.SearchFields
	}

	resultMap := make(map[string]*model.RetrievalResult)
	for _, m := range s.engine.SearchEntities(query) {
		if existing, ok := resultMap[m.CanonicalName]; ok {
			existing.Score += config.KeywordWeight
			continue
		}
		resultMap[m.CanonicalName] = s.engine.result(m.CanonicalName, config.KeywordWeight, "keyword")
	}

	return sortResults(resultMap, config.Limit)
}

// MultiHopStrategy expands keyword matches through the knowledge graph
type MultiHopStrategy struct {
	engine *Engine
}

// NewMultiHopStrategy creates a new multi-hop strategy
func NewMultiHopStrategy(engine *Engine) *MultiHopStrategy {
	return &MultiHopStrategy{engine: engine}
}

// Retrieve performs multi-hop retrieval
func (s *MultiHopStrategy) Retrieve(query SearchQuery, config model.QueryConfig) []*model.RetrievalResult {
	// First, get keyword matches as starting points
	unlimited := config
	unlimited.Limit = 0
	starts := NewKeywordStrategy(s.engine).Retrieve(query, unlimited)

	resultMap := make(map[string]*model.RetrievalResult)
	for _, result := range starts {
		resultMap[result.Name] = result
	}

	// For each starting point, perform BFS
	for _, start := range starts {
		for _, tResult := range s.engine.Neighbors(start.Name, config.MaxHops) {
			score := start.Score * config.GraphWeight / float64(tResult.Distance)
			if existing, ok := resultMap[tResult.Name]; ok {
				if existing.RetrievalMethod == "multi_hop" && tResult.Distance < existing.GraphDistance {
					existing.GraphDistance = tResult.Distance
					existing.Path = tResult.Path
				}
				existing.Score += score
				continue
			}

			result := s.engine.result(tResult.Name, score, "multi_hop")
			result.GraphDistance = tResult.Distance
			result.Path = tResult.Path
			resultMap[tResult.Name] = result
		}
	}

	return sortResults(resultMap, config.Limit)
}

// EntityCentricStrategy starts from the named entities themselves and fans
// out through the knowledge graph. Keywords are entity names here.
type EntityCentricStrategy struct {
	engine *Engine
}

// NewEntityCentricStrategy creates a new entity-centric strategy
func NewEntityCentricStrategy(engine *Engine) *EntityCentricStrategy {
	return &EntityCentricStrategy{engine: engine}
}

// Retrieve performs entity-centric retrieval
func (s *EntityCentricStrategy) Retrieve(query SearchQuery, config model.QueryConfig) []*model.RetrievalResult {
	resultMap := make(map[string]*model.RetrievalResult)

	for _, name := range query.Keywords {
		canonical, ok := s.engine.Resolve(name)
		if !ok {
			continue
		}
		if _, exists := resultMap[canonical]; !exists {
			resultMap[canonical] = s.engine.result(canonical, 1.0, "entity_centric")
		}

		// Optionally expand via graph traversal
		for _, tResult := range s.engine.Neighbors(canonical, config.MaxHops) {
			if query.Type != nil {
				if node, ok := s.engine.snapshot.Graph.Node(tResult.Name); !ok || node.Type != *query.Type {
					continue
				}
			}
			if _, exists := resultMap[tResult.Name]; exists {
				continue
			}
			result := s.engine.result(tResult.Name, config.GraphWeight/float64(tResult.Distance), "entity_fanout")
			result.GraphDistance = tResult.Distance
			result.Path = tResult.Path
			resultMap[tResult.Name] = result
		}
	}

	return sortResults(resultMap, config.Limit)
}

func (e *Engine) result(name string, score float64, method string) *model.RetrievalResult {
	entity, _ := e.CanonicalEntity(name)
	return &model.RetrievalResult{
		Name:            name,
		Entity:          entity,
		Score:           score,
		RetrievalMethod: method,
	}
}

func sortResults(resultMap map[string]*model.RetrievalResult, limit int) []*model.RetrievalResult {
	// Convert map to slice
	results := make([]*model.RetrievalResult, 0, len(resultMap))
	for _, result := range resultMap {
		results = append(results, result)
	}

	// Sort by score, names keep ties deterministic
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Name < results[j].Name
	})

	// Limit to top-k if specified
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	return results
}
