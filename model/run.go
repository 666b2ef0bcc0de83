package model

import (
	"time"

	"github.com/google/uuid"
)

// Run is a published construction run.
type Run struct {
	ID        uuid.UUID `json:"id"`
	Config    Metadata  `json:"config"`
	Report    Metadata  `json:"report"`
	CreatedAt time.Time `json:"created_at"`
}

// StoredEntity is a canonical entity row of a published run.
type StoredEntity struct {
	ID           int       `json:"id"`
	RunID        uuid.UUID `json:"run_id"`
	Name         string    `json:"canonical_name"`
	Type         string    `json:"type"`
	Members      []string  `json:"members"`
	MentionCount int       `json:"mention_count"`
	Attributes   Metadata  `json:"aggregated_attributes"`
	Embedding    []float32 `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	// Similarity is only set by similarity searches.
	Similarity float64 `json:"similarity,omitempty"`
}

// NewStoredEntity converts a canonical entity into its row form.
func NewStoredEntity(runID uuid.UUID, entity *CanonicalEntity, embedding []float32) (*StoredEntity, error) {
	attributes, err := NewMetadata(entity.Attributes)
	if err != nil {
		return nil, err
	}

	return &StoredEntity{
		RunID:        runID,
		Name:         entity.Name,
		Type:         entity.Type,
		Members:      entity.Members,
		MentionCount: entity.MentionCount,
		Attributes:   attributes,
		Embedding:    embedding,
	}, nil
}

// CanonicalEntity converts the row back into a canonical entity. Types is
// not stored and is derived from Type.
func (s *StoredEntity) CanonicalEntity() (*CanonicalEntity, error) {
	attributes := AggregatedAttributes{}
	if err := s.Attributes.Decode(&attributes); err != nil {
		return nil, err
	}

	entity := &CanonicalEntity{
		Name:         s.Name,
		Type:         s.Type,
		Members:      s.Members,
		MentionCount: s.MentionCount,
		Attributes:   attributes,
	}
	if s.Type != "" {
		entity.Types = []string{s.Type}
	}
	return entity, nil
}

// StoredRelation is a deduplicated graph edge of a published run.
type StoredRelation struct {
	ID        int       `json:"id"`
	RunID     uuid.UUID `json:"run_id"`
	Head      string    `json:"head"`
	Tail      string    `json:"tail"`
	Relation  string    `json:"relation"`
	ChunkIDs  []string  `json:"chunk_ids"`
	Count     int       `json:"count"`
	CreatedAt time.Time `json:"created_at"`
}
