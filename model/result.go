package model

// RetrievalResult represents a canonical entity retrieved by a query
type RetrievalResult struct {
	Name            string           `json:"name"`
	Entity          *CanonicalEntity `json:"entity,omitempty"`
	Score           float64          `json:"score"`            // Combined score from ranking
	GraphDistance   int              `json:"graph_distance"`   // Distance from a matched node in the graph
	RetrievalMethod string           `json:"retrieval_method"` // How it was retrieved (keyword, multi_hop, entity_centric)
	Path            []string         `json:"path,omitempty"`
}
