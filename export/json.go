package export

import (
	"encoding/json"
	"io"

	"github.com/siherrmann/kgraph/core/remap"
	"github.com/siherrmann/kgraph/helper"
	"github.com/siherrmann/kgraph/model"
)

// CanonicalEntityChunk mirrors an element of the entity dataset with the
// canonical name of every entity.
type CanonicalEntityChunk struct {
	ChunkID  model.ChunkID           `json:"chunk_id"`
	Entities []CanonicalEntityRecord `json:"entities"`
}

// CanonicalEntityRecord is an entity record plus its canonical name.
type CanonicalEntityRecord struct {
	Type          string           `json:"type"`
	Name          string           `json:"name"`
	CanonicalName string           `json:"canonical_name"`
	Attributes    model.Attributes `json:"attributes"`
}

// CanonicalRelationChunk mirrors an element of the relation dataset. The
// relations as extracted stay in relation_set, their canonical form is
// added as canonical_relation_set.
type CanonicalRelationChunk struct {
	ChunkID              model.ChunkID          `json:"chunk_id"`
	RelationSet          []model.RelationRecord `json:"relation_set"`
	CanonicalRelationSet []model.RelationRecord `json:"canonical_relation_set"`
}

// CanonicalEntityDataset groups the canonicalized entity table by chunk,
// keeping the first seen order of the chunks.
func CanonicalEntityDataset(entities []model.CanonicalEntityMention) []CanonicalEntityChunk {
	chunks := []CanonicalEntityChunk{}
	index := make(map[model.ChunkID]int)
	for _, e := range entities {
		i, ok := index[e.ChunkID]
		if !ok {
			i = len(chunks)
			index[e.ChunkID] = i
			chunks = append(chunks, CanonicalEntityChunk{ChunkID: e.ChunkID})
		}
		chunks[i].Entities = append(chunks[i].Entities, CanonicalEntityRecord{
			Type:          e.Type,
			Name:          e.Name,
			CanonicalName: e.CanonicalName,
			Attributes:    e.Attributes,
		})
	}
	return chunks
}

// CanonicalRelationDataset groups the canonicalized relation table by chunk.
func CanonicalRelationDataset(relations []model.CanonicalRelation) []CanonicalRelationChunk {
	order, byChunk := remap.ChunkRelations(relations)

	chunks := make([]CanonicalRelationChunk, 0, len(order))
	for _, chunkID := range order {
		chunk := CanonicalRelationChunk{ChunkID: chunkID}
		for _, r := range byChunk[chunkID] {
			chunk.RelationSet = append(chunk.RelationSet, model.RelationRecord{
				Head:     r.OriginalHead,
				Relation: r.Relation,
				Tail:     r.OriginalTail,
			})
			chunk.CanonicalRelationSet = append(chunk.CanonicalRelationSet, model.RelationRecord{
				Head:     r.CanonicalHead,
				Relation: r.Relation,
				Tail:     r.CanonicalTail,
			})
		}
		chunks = append(chunks, chunk)
	}
	return chunks
}

// WriteCanonicalEntities writes the entity dataset with canonical names.
func WriteCanonicalEntities(w io.Writer, entities []model.CanonicalEntityMention) error {
	return writeJSON(w, "write canonical entities", CanonicalEntityDataset(entities))
}

// WriteCanonicalRelations writes the relation dataset with canonical relation sets.
func WriteCanonicalRelations(w io.Writer, relations []model.CanonicalRelation) error {
	return writeJSON(w, "write canonical relations", CanonicalRelationDataset(relations))
}

// WriteCanonicalAttributes writes the aggregated entities keyed by canonical name.
func WriteCanonicalAttributes(w io.Writer, entities map[string]*model.CanonicalEntity) error {
	if entities == nil {
		entities = map[string]*model.CanonicalEntity{}
	}
	return writeJSON(w, "write canonical attributes", entities)
}

// WriteReport writes the build report.
func WriteReport(w io.Writer, report model.BuildReport) error {
	return writeJSON(w, "write report", report)
}

func writeJSON(w io.Writer, operation string, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return helper.NewError(operation, err)
	}
	return nil
}
