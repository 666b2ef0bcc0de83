package canonical

import (
	"log/slog"
	"sort"
	"unicode/utf8"

	"github.com/siherrmann/kgraph/core/similarity"
	"github.com/siherrmann/kgraph/model"
)

// Canonicalizer groups similar names into components and picks one
// representative name per component.
type Canonicalizer struct {
	strategy model.Strategy
	log      *slog.Logger
}

// Result is the outcome of a canonicalization.
type Result struct {
	Map        model.CanonicalMap
	Components [][]string
}

// NewCanonicalizer creates a canonicalizer for strategy. Unknown strategies
// fall back to the lexicographically smallest member.
func NewCanonicalizer(strategy model.Strategy, logger *slog.Logger) *Canonicalizer {
	if logger == nil {
		logger = slog.Default()
	}
	if strategy != model.StrategyLongest && strategy != model.StrategyMostFrequent {
		logger.Warn("Unknown canonicalization strategy, using lexicographic minimum", slog.String("strategy", string(strategy)))
	}
	return &Canonicalizer{
		strategy: strategy,
		log:      logger,
	}
}

// Canonicalize maps every name of the similarity graph and of vocabulary to
// the representative of its connected component. Names missing from the
// graph form singleton components. Names missing from frequencies count 0.
func (c *Canonicalizer) Canonicalize(g *similarity.Graph, vocabulary []string, frequencies map[string]int) Result {
	components := Components(g, vocabulary)

	canonicalMap := make(model.CanonicalMap, len(vocabulary))
	for _, members := range components {
		representative := SelectRepresentative(members, c.strategy, frequencies)
		for _, name := range members {
			canonicalMap[name] = representative
		}
	}

	c.log.Debug("Canonicalized names", slog.Int("names", len(canonicalMap)), slog.Int("components", len(components)), slog.String("strategy", string(c.strategy)))

	return Result{
		Map:        canonicalMap,
		Components: components,
	}
}

// Components returns the connected components of g extended by the names
// of vocabulary. Members are sorted and components are ordered by their
// first member, so the result partitions all names deterministically.
func Components(g *similarity.Graph, vocabulary []string) [][]string {
	parent := make(map[string]string)

	var find func(x string) string
	find = func(x string) string {
		if _, ok := parent[x]; !ok {
			parent[x] = x
		}
		if parent[x] != x {
			parent[x] = find(parent[x])
		}
		return parent[x]
	}

	union := func(x, y string) {
		px, py := find(x), find(y)
		if px == py {
			return
		}
		// The smaller root wins to keep the structure independent of edge order.
		if px < py {
			parent[py] = px
		} else {
			parent[px] = py
		}
	}

	if g != nil {
		for _, name := range g.Names() {
			find(name)
		}
		for _, e := range g.Edges() {
			union(e.A, e.B)
		}
	}
	for _, name := range vocabulary {
		find(name)
	}

	groups := make(map[string][]string)
	for name := range parent {
		root := find(name)
		groups[root] = append(groups[root], name)
	}

	components := make([][]string, 0, len(groups))
	for _, members := range groups {
		sort.Strings(members)
		components = append(components, members)
	}
	sort.Slice(components, func(i, j int) bool {
		return components[i][0] < components[j][0]
	})

	return components
}

// SelectRepresentative picks the canonical name of a component.
// Ties are always broken by the lexicographically smallest name.
func SelectRepresentative(members []string, strategy model.Strategy, frequencies map[string]int) string {
	if len(members) == 0 {
		return ""
	}

	best := members[0]
	for _, candidate := range members[1:] {
		if better(candidate, best, strategy, frequencies) {
			best = candidate
		}
	}
	return best
}

func better(candidate, best string, strategy model.Strategy, frequencies map[string]int) bool {
	switch strategy {
	case model.StrategyLongest:
		lc, lb := utf8.RuneCountInString(candidate), utf8.RuneCountInString(best)
		if lc != lb {
			return lc > lb
		}
	case model.StrategyMostFrequent:
		fc, fb := frequencies[candidate], frequencies[best]
		if fc != fb {
			return fc > fb
		}
	}
	return candidate < best
}
