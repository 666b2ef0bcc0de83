package similarity

import (
	"math"
	"sort"

	"github.com/siherrmann/kgraph/model"
)

// Graph is the undirected similarity graph over distinct entity names.
// It only lives for the duration of a build and is used for clustering.
type Graph struct {
	threshold float64
	names     []string
	edges     []model.SimilarityEdge
	adjacency map[string][]Neighbor
}

// Neighbor is a name adjacent to another one in the similarity graph.
type Neighbor struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// CosineSimilarity returns the cosine similarity of a and b. Vectors of
// different length and zero vectors have similarity 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// NewGraph compares every pair of names in index and connects the pairs
// with a cosine similarity of at least threshold. Every name becomes a
// node, with or without neighbors.
//
// The comparison is quadratic in the number of names which is fine up to
// roughly 10^4 names.
func NewGraph(index model.EmbeddingIndex, threshold float64) *Graph {
	g := &Graph{
		threshold: threshold,
		names:     index.Names(),
		adjacency: make(map[string][]Neighbor, len(index)),
	}

	vectors := make([][]float32, len(g.names))
	for i, name := range g.names {
		if !isZero(index[name]) {
			vectors[i] = index[name]
		}
	}

	for i := 0; i < len(g.names); i++ {
		if vectors[i] == nil {
			continue
		}
		for j := i + 1; j < len(g.names); j++ {
			if vectors[j] == nil || len(vectors[i]) != len(vectors[j]) {
				continue
			}
			score := CosineSimilarity(vectors[i], vectors[j])
			if score >= threshold {
				g.addEdge(g.names[i], g.names[j], score)
			}
		}
	}

	for name := range g.adjacency {
		sortNeighbors(g.adjacency[name])
	}

	return g
}

// FromEdges rebuilds a graph from stored edges, for example from a
// snapshot. Edge endpoints missing from names are added as nodes.
func FromEdges(names []string, edges []model.SimilarityEdge, threshold float64) *Graph {
	seen := make(map[string]struct{}, len(names))
	g := &Graph{
		threshold: threshold,
		adjacency: make(map[string][]Neighbor),
	}
	add := func(name string) {
		if _, ok := seen[name]; !ok {
			seen[name] = struct{}{}
			g.names = append(g.names, name)
		}
	}
	for _, name := range names {
		add(name)
	}
	for _, e := range edges {
		add(e.A)
		add(e.B)
		a, b := e.A, e.B
		if b < a {
			a, b = b, a
		}
		g.addEdge(a, b, e.Score)
	}
	sort.Strings(g.names)
	for name := range g.adjacency {
		sortNeighbors(g.adjacency[name])
	}
	return g
}

func (g *Graph) addEdge(a, b string, score float64) {
	g.edges = append(g.edges, model.SimilarityEdge{A: a, B: b, Score: score})
	g.adjacency[a] = append(g.adjacency[a], Neighbor{Name: b, Score: score})
	g.adjacency[b] = append(g.adjacency[b], Neighbor{Name: a, Score: score})
}

// Threshold returns the threshold the graph was built with.
func (g *Graph) Threshold() float64 { return g.threshold }

// Names returns all nodes in sorted order.
func (g *Graph) Names() []string {
	out := make([]string, len(g.names))
	copy(out, g.names)
	return out
}

// Edges returns all edges. A is always lexicographically smaller than B.
func (g *Graph) Edges() []model.SimilarityEdge {
	out := make([]model.SimilarityEdge, len(g.edges))
	copy(out, g.edges)
	return out
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.names) }

// Contains reports whether name is a node of the graph.
func (g *Graph) Contains(name string) bool {
	i := sort.SearchStrings(g.names, name)
	return i < len(g.names) && g.names[i] == name
}

// Neighbors returns the names adjacent to name ordered by descending score.
func (g *Graph) Neighbors(name string) []Neighbor {
	out := make([]Neighbor, len(g.adjacency[name]))
	copy(out, g.adjacency[name])
	return out
}

// SimilarTo returns at most topK neighbors of name, all of them for topK <= 0.
func (g *Graph) SimilarTo(name string, topK int) []Neighbor {
	neighbors := g.Neighbors(name)
	if topK > 0 && len(neighbors) > topK {
		neighbors = neighbors[:topK]
	}
	return neighbors
}

func sortNeighbors(neighbors []Neighbor) {
	sort.Slice(neighbors, func(i, j int) bool {
		if neighbors[i].Score != neighbors[j].Score {
			return neighbors[i].Score > neighbors[j].Score
		}
		return neighbors[i].Name < neighbors[j].Name
	})
}

// isZero reports whether v is empty or has no non-zero component.
func isZero(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}
