package graph

// TraversalResult contains a node and its distance from the start node
type TraversalResult struct {
	Name     string   `json:"name"`
	Distance int      `json:"distance"`
	Path     []string `json:"path"` // Path from start to this node
}

// BFS performs breadth-first search from a start node, treating edges as
// undirected. The start node itself is not part of the result and every
// node is returned at most once with its shortest distance.
func BFS(g *KnowledgeGraph, start string, maxHops int) []*TraversalResult {
	results := []*TraversalResult{}
	if g == nil || !g.HasNode(start) || maxHops <= 0 {
		return results
	}

	visited := map[string]bool{start: true}
	queue := []TraversalResult{{
		Name:     start,
		Distance: 0,
		Path:     []string{start},
	}}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if current.Distance > 0 {
			result := current
			results = append(results, &result)
		}

		// Stop if we've reached max hops
		if current.Distance >= maxHops {
			continue
		}

		for _, target := range g.Neighbors(current.Name) {
			if visited[target] {
				continue
			}
			visited[target] = true

			newPath := make([]string, len(current.Path), len(current.Path)+1)
			copy(newPath, current.Path)
			newPath = append(newPath, target)

			queue = append(queue, TraversalResult{
				Name:     target,
				Distance: current.Distance + 1,
				Path:     newPath,
			})
		}
	}

	return results
}

// DFS performs depth-first search from a start node. Like BFS it excludes
// the start node and visits every node once, distances follow the DFS path.
func DFS(g *KnowledgeGraph, start string, maxHops int) []*TraversalResult {
	results := []*TraversalResult{}
	if g == nil || !g.HasNode(start) || maxHops <= 0 {
		return results
	}

	visited := make(map[string]bool)
	dfsRecursive(g, start, 0, maxHops, []string{start}, visited, &results)
	return results
}

// dfsRecursive is the recursive helper for DFS
func dfsRecursive(
	g *KnowledgeGraph,
	current string,
	distance int,
	maxHops int,
	path []string,
	visited map[string]bool,
	results *[]*TraversalResult,
) {
	visited[current] = true

	if distance > 0 {
		pathCopy := make([]string, len(path))
		copy(pathCopy, path)
		*results = append(*results, &TraversalResult{
			Name:     current,
			Distance: distance,
			Path:     pathCopy,
		})
	}

	if distance >= maxHops {
		return
	}

	for _, target := range g.Neighbors(current) {
		if visited[target] {
			continue
		}

		newPath := make([]string, len(path), len(path)+1)
		copy(newPath, path)
		newPath = append(newPath, target)

		dfsRecursive(g, target, distance+1, maxHops, newPath, visited, results)
	}
}
