package remap

import (
	"github.com/siherrmann/kgraph/model"
)

// RemapRelations rewrites head and tail of every relation to their canonical
// names. Names missing from the map are kept as they are. List tails stay
// lists and every element is mapped on its own.
func RemapRelations(relations []model.RelationMention, canonicalMap model.CanonicalMap) []model.CanonicalRelation {
	out := make([]model.CanonicalRelation, 0, len(relations))
	for _, r := range relations {
		out = append(out, RemapRelation(r, canonicalMap))
	}
	return out
}

// RemapRelation rewrites a single relation.
func RemapRelation(r model.RelationMention, canonicalMap model.CanonicalMap) model.CanonicalRelation {
	return model.CanonicalRelation{
		ChunkID:       r.ChunkID,
		OriginalHead:  r.Head,
		CanonicalHead: remapName(r.Head, canonicalMap),
		Relation:      r.Relation,
		OriginalTail:  r.Tail,
		CanonicalTail: r.Tail.Map(func(name string) string {
			return remapName(name, canonicalMap)
		}),
	}
}

// RemapEntities produces the canonicalized entity table, one row per mention.
func RemapEntities(entities []model.EntityMention, canonicalMap model.CanonicalMap) []model.CanonicalEntityMention {
	out := make([]model.CanonicalEntityMention, 0, len(entities))
	for _, e := range entities {
		out = append(out, model.CanonicalEntityMention{
			EntityMention: e,
			CanonicalName: canonicalMap.Get(e.Name),
		})
	}
	return out
}

// ChunkRelations groups canonical relations by chunk id, keeping the first
// seen order of the chunks.
func ChunkRelations(relations []model.CanonicalRelation) ([]model.ChunkID, map[model.ChunkID][]model.CanonicalRelation) {
	var order []model.ChunkID
	chunks := make(map[model.ChunkID][]model.CanonicalRelation)
	for _, r := range relations {
		if _, ok := chunks[r.ChunkID]; !ok {
			order = append(order, r.ChunkID)
		}
		chunks[r.ChunkID] = append(chunks[r.ChunkID], r)
	}
	return order, chunks
}

func remapName(name string, canonicalMap model.CanonicalMap) string {
	if name == "" {
		return ""
	}
	return canonicalMap.Get(name)
}
