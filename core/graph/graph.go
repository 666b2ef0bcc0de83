package graph

import (
	"encoding/json"
	"sort"

	"github.com/siherrmann/kgraph/model"
)

// Node is a canonical entity that takes part in at least one relation.
type Node struct {
	Name       string                     `json:"name"`
	Type       string                     `json:"type"`
	Attributes model.AggregatedAttributes `json:"aggregated_attributes"`
}

// Clone returns a copy of the node that shares no attribute values.
func (n *Node) Clone() *Node {
	c := *n
	c.Attributes = n.Attributes.Clone()
	if c.Attributes == nil {
		c.Attributes = model.AggregatedAttributes{}
	}
	return &c
}

// EdgeKey identifies an edge of the multigraph.
type EdgeKey struct {
	Head     string
	Tail     string
	Relation string
}

// Edge is a directed, labeled relation between two canonical names. Repeated
// mentions of the same relation are merged, ChunkIDs keeps every source.
type Edge struct {
	Head     string          `json:"head"`
	Tail     string          `json:"tail"`
	Relation string          `json:"relation"`
	ChunkIDs []model.ChunkID `json:"chunk_ids"`
	Count    int             `json:"count"`
}

// Key returns the multigraph key of the edge.
func (e *Edge) Key() EdgeKey {
	return EdgeKey{Head: e.Head, Tail: e.Tail, Relation: e.Relation}
}

// Clone returns a copy of the edge with its own chunk list.
func (e *Edge) Clone() *Edge {
	c := *e
	c.ChunkIDs = append([]model.ChunkID(nil), e.ChunkIDs...)
	return &c
}

// BuildStats counts what the builder dropped or merged.
type BuildStats struct {
	Relations           int
	DroppedRelations    int
	DroppedTailElements int
	ExcludedEntities    int
	Nodes               int
	Edges               int
	MergedEdges         int
}

// KnowledgeGraph is the canonical graph of a run. It is not safe for
// concurrent writes, a built graph is only read.
type KnowledgeGraph struct {
	nodes     map[string]*Node
	edges     map[EdgeKey]*Edge
	adjacency map[string]map[string]struct{}
}

// NewKnowledgeGraph returns an empty graph.
func NewKnowledgeGraph() *KnowledgeGraph {
	return &KnowledgeGraph{
		nodes:     make(map[string]*Node),
		edges:     make(map[EdgeKey]*Edge),
		adjacency: make(map[string]map[string]struct{}),
	}
}

// Build assembles the graph from canonical relations. Relations with an empty
// head or without any non-empty tail are dropped, empty list elements are
// dropped one by one. Entities that end up in no relation are excluded.
func Build(relations []model.CanonicalRelation, entities map[string]*model.CanonicalEntity) (*KnowledgeGraph, BuildStats) {
	g := NewKnowledgeGraph()
	stats := BuildStats{Relations: len(relations)}

	for _, r := range relations {
		if r.CanonicalHead == "" {
			stats.DroppedRelations++
			continue
		}

		tails := r.CanonicalTail.NonEmpty()
		if len(tails) == 0 {
			stats.DroppedRelations++
			continue
		}
		stats.DroppedTailElements += len(r.CanonicalTail.Values) - len(tails)

		g.ensureNode(r.CanonicalHead, entities)
		for _, tail := range tails {
			g.ensureNode(tail, entities)
			if g.AddEdge(r.CanonicalHead, tail, r.Relation, r.ChunkID) {
				stats.MergedEdges++
			}
		}
	}

	for name := range entities {
		if _, ok := g.nodes[name]; !ok {
			stats.ExcludedEntities++
		}
	}

	stats.Nodes = len(g.nodes)
	stats.Edges = len(g.edges)
	return g, stats
}

func (g *KnowledgeGraph) ensureNode(name string, entities map[string]*model.CanonicalEntity) {
	if _, ok := g.nodes[name]; ok {
		return
	}
	node := Node{Name: name, Attributes: model.AggregatedAttributes{}}
	if entity, ok := entities[name]; ok && entity != nil {
		node.Type = entity.Type
		if entity.Attributes != nil {
			node.Attributes = entity.Attributes.Clone()
		}
	}
	g.AddNode(node)
}

// AddNode inserts or replaces a node.
func (g *KnowledgeGraph) AddNode(node Node) {
	if node.Attributes == nil {
		node.Attributes = model.AggregatedAttributes{}
	}
	g.nodes[node.Name] = &node
	if _, ok := g.adjacency[node.Name]; !ok {
		g.adjacency[node.Name] = make(map[string]struct{})
	}
}

// AddEdge adds a relation occurrence. It reports whether the occurrence was
// merged into an existing edge. Missing endpoints are added as untyped nodes.
func (g *KnowledgeGraph) AddEdge(head, tail, relation string, chunkID model.ChunkID) bool {
	for _, name := range []string{head, tail} {
		if _, ok := g.nodes[name]; !ok {
			g.AddNode(Node{Name: name})
		}
	}

	key := EdgeKey{Head: head, Tail: tail, Relation: relation}
	if edge, ok := g.edges[key]; ok {
		edge.Count++
		edge.ChunkIDs = appendChunk(edge.ChunkIDs, chunkID)
		return true
	}

	g.edges[key] = &Edge{
		Head:     head,
		Tail:     tail,
		Relation: relation,
		ChunkIDs: appendChunk(nil, chunkID),
		Count:    1,
	}
	g.adjacency[head][tail] = struct{}{}
	g.adjacency[tail][head] = struct{}{}
	return false
}

// RestoreEdge inserts or replaces an edge with its recorded chunks and count.
func (g *KnowledgeGraph) RestoreEdge(edge Edge) {
	g.AddEdge(edge.Head, edge.Tail, edge.Relation, "")
	e := g.edges[edge.Key()]
	e.ChunkIDs = append([]model.ChunkID(nil), edge.ChunkIDs...)
	e.Count = edge.Count
}

func appendChunk(ids []model.ChunkID, id model.ChunkID) []model.ChunkID {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}

// Node returns a copy of the node with the given name.
func (g *KnowledgeGraph) Node(name string) (*Node, bool) {
	node, ok := g.nodes[name]
	if !ok {
		return nil, false
	}
	return node.Clone(), true
}

// HasNode reports whether name is a node of the graph.
func (g *KnowledgeGraph) HasNode(name string) bool {
	_, ok := g.nodes[name]
	return ok
}

// Nodes returns copies of all nodes sorted by name.
func (g *KnowledgeGraph) Nodes() []*Node {
	nodes := make([]*Node, 0, len(g.nodes))
	for _, node := range g.nodes {
		nodes = append(nodes, node.Clone())
	}
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].Name < nodes[j].Name
	})
	return nodes
}

// Edges returns copies of all edges sorted by head, tail and relation.
func (g *KnowledgeGraph) Edges() []*Edge {
	edges := make([]*Edge, 0, len(g.edges))
	for _, edge := range g.edges {
		edges = append(edges, edge.Clone())
	}
	sortEdges(edges)
	return edges
}

// EdgesOf returns copies of every edge the node takes part in, in either
// direction.
func (g *KnowledgeGraph) EdgesOf(name string) []*Edge {
	edges := []*Edge{}
	for key, edge := range g.edges {
		if key.Head == name || key.Tail == name {
			edges = append(edges, edge.Clone())
		}
	}
	sortEdges(edges)
	return edges
}

// Neighbors returns the sorted names adjacent to name, ignoring edge direction.
func (g *KnowledgeGraph) Neighbors(name string) []string {
	adjacent := g.adjacency[name]
	names := make([]string, 0, len(adjacent))
	for n := range adjacent {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// NodeCount returns the number of nodes.
func (g *KnowledgeGraph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of distinct edges.
func (g *KnowledgeGraph) EdgeCount() int {
	return len(g.edges)
}

func sortEdges(edges []*Edge) {
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Head != edges[j].Head {
			return edges[i].Head < edges[j].Head
		}
		if edges[i].Tail != edges[j].Tail {
			return edges[i].Tail < edges[j].Tail
		}
		return edges[i].Relation < edges[j].Relation
	})
}

type graphJSON struct {
	Nodes []*Node `json:"nodes"`
	Edges []*Edge `json:"edges"`
}

func (g *KnowledgeGraph) MarshalJSON() ([]byte, error) {
	return json.Marshal(graphJSON{Nodes: g.Nodes(), Edges: g.Edges()})
}

func (g *KnowledgeGraph) UnmarshalJSON(data []byte) error {
	var raw graphJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	loaded := NewKnowledgeGraph()
	for _, node := range raw.Nodes {
		if node != nil {
			loaded.AddNode(*node)
		}
	}
	for _, edge := range raw.Edges {
		if edge == nil {
			continue
		}
		loaded.RestoreEdge(*edge)
	}

	*g = *loaded
	return nil
}
