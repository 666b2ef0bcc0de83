package pipeline

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/siherrmann/kgraph/core/aggregate"
	"github.com/siherrmann/kgraph/core/graph"
	"github.com/siherrmann/kgraph/core/similarity"
	"github.com/siherrmann/kgraph/model"
)

// Result is the immutable snapshot of one construction run.
type Result struct {
	RunID             uuid.UUID                         `json:"run_id"`
	Config            model.BuildConfig                 `json:"config"`
	Entities          []model.CanonicalEntityMention    `json:"entities"`
	Relations         []model.CanonicalRelation         `json:"relations"`
	CanonicalMap      model.CanonicalMap                `json:"canonical_map"`
	Components        [][]string                        `json:"components"`
	CanonicalEntities map[string]*model.CanonicalEntity `json:"canonical_entities"`
	Graph             *graph.KnowledgeGraph             `json:"graph"`
	SimilarityEdges   []model.SimilarityEdge            `json:"similarity_edges"`
	Report            model.BuildReport                 `json:"report"`

	// Similarity is rebuilt from SimilarityEdges when a snapshot is read.
	Similarity *similarity.Graph `json:"-"`
	// Index is only available on results of a run, it is not stored.
	Index model.EmbeddingIndex `json:"-"`
}

// SortedEntities returns the canonical entities ordered by name.
func (r *Result) SortedEntities() []*model.CanonicalEntity {
	return aggregate.Sorted(r.CanonicalEntities)
}

func (r *Result) UnmarshalJSON(data []byte) error {
	type plain Result
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	*r = Result(p)
	if r.Graph == nil {
		r.Graph = graph.NewKnowledgeGraph()
	}
	if r.CanonicalMap == nil {
		r.CanonicalMap = model.CanonicalMap{}
	}
	if r.CanonicalEntities == nil {
		r.CanonicalEntities = map[string]*model.CanonicalEntity{}
	}
	r.Similarity = similarity.FromEdges(r.CanonicalMap.Names(), r.SimilarityEdges, r.Config.SimilarityThreshold)
	return nil
}
