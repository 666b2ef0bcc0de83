package model

import (
	"time"

	"github.com/google/uuid"
)

// BuildReport summarizes one construction run. Dropped and excluded counts
// are data quality signals, not failures.
type BuildReport struct {
	RunID    uuid.UUID     `json:"run_id"`
	Duration time.Duration `json:"duration"`

	EntityMentions   int `json:"entity_mentions"`
	RelationMentions int `json:"relation_mentions"`
	Vocabulary       int `json:"vocabulary"`
	Embedded         int `json:"embedded"`

	SimilarityEdges   int `json:"similarity_edges"`
	Components        int `json:"components"`
	CanonicalEntities int `json:"canonical_entities"`

	DroppedRelations    int `json:"dropped_relations"`
	DroppedTailElements int `json:"dropped_tail_elements"`
	ExcludedEntities    int `json:"excluded_entities"`
	Nodes               int `json:"nodes"`
	Edges               int `json:"edges"`
	MergedEdges         int `json:"merged_edges"`

	UnknownEntityTypes    int `json:"unknown_entity_types"`
	UnknownRelationLabels int `json:"unknown_relation_labels"`
}
