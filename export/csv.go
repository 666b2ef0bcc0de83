package export

import (
	"encoding/csv"
	"encoding/json"
	"io"

	"github.com/siherrmann/kgraph/helper"
	"github.com/siherrmann/kgraph/model"
)

var (
	entityHeader   = []string{"chunk_id", "type", "name", "canonical_name", "attributes"}
	relationHeader = []string{"chunk_id", "head", "relation", "tail", "canonical_head", "canonical_tail"}
)

// WriteEntitiesCSV writes the canonicalized entity table, one row per mention.
// Attributes are written as a JSON object.
func WriteEntitiesCSV(w io.Writer, entities []model.CanonicalEntityMention) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(entityHeader); err != nil {
		return helper.NewError("write entity csv", err)
	}
	for _, e := range entities {
		attributes, err := json.Marshal(e.Attributes)
		if err != nil {
			return helper.NewError("write entity csv", err)
		}
		row := []string{string(e.ChunkID), e.Type, e.Name, e.CanonicalName, string(attributes)}
		if err := writer.Write(row); err != nil {
			return helper.NewError("write entity csv", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return helper.NewError("write entity csv", err)
	}
	return nil
}

// WriteRelationsCSV writes the canonicalized relation table. List tails
// are written as JSON arrays, single tails as plain names.
func WriteRelationsCSV(w io.Writer, relations []model.CanonicalRelation) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(relationHeader); err != nil {
		return helper.NewError("write relation csv", err)
	}
	for _, r := range relations {
		row := []string{
			string(r.ChunkID),
			r.OriginalHead,
			r.Relation,
			r.OriginalTail.String(),
			r.CanonicalHead,
			r.CanonicalTail.String(),
		}
		if err := writer.Write(row); err != nil {
			return helper.NewError("write relation csv", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return helper.NewError("write relation csv", err)
	}
	return nil
}
