package database

import (
	"testing"

	"github.com/siherrmann/kgraph/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalEntitiesNewCanonicalEntitiesDBHandler(t *testing.T) {
	database := initDB(t)

	_, err := NewRunsDBHandler(database, true)
	require.NoError(t, err, "Expected NewRunsDBHandler to not return an error")

	t.Run("Valid call NewCanonicalEntitiesDBHandler", func(t *testing.T) {
		entitiesDbHandler, err := NewCanonicalEntitiesDBHandler(database, testEmbeddingDim, true)
		assert.NoError(t, err, "Expected NewCanonicalEntitiesDBHandler to not return an error")
		require.NotNil(t, entitiesDbHandler, "Expected a non-nil instance")
	})

	t.Run("Invalid call with nil database", func(t *testing.T) {
		_, err := NewCanonicalEntitiesDBHandler(nil, testEmbeddingDim, false)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "database connection is nil")
	})

	t.Run("Invalid call with zero dimension", func(t *testing.T) {
		_, err := NewCanonicalEntitiesDBHandler(database, 0, false)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "embedding dimension must be positive")
	})
}

func TestCanonicalEntities(t *testing.T) {
	database := initDB(t)

	runsDbHandler, err := NewRunsDBHandler(database, true)
	require.NoError(t, err, "Expected NewRunsDBHandler to not return an error")
	entitiesDbHandler, err := NewCanonicalEntitiesDBHandler(database, testEmbeddingDim, true)
	require.NoError(t, err, "Expected NewCanonicalEntitiesDBHandler to not return an error")

	run := insertTestRun(t, runsDbHandler)

	entities := []*model.StoredEntity{
		{RunID: run.ID, Name: "Mr. Jones", Type: "Person", Members: []string{"Jones", "Mr. Jones"}, MentionCount: 2, Attributes: model.Metadata{"role": []interface{}{"protagonist", "villain"}}, Embedding: []float32{1, 0, 0, 0}},
		{RunID: run.ID, Name: "Old Major", Type: "Person", Members: []string{"Old Major"}, MentionCount: 1, Attributes: model.Metadata{}, Embedding: []float32{0.8, 0.6, 0, 0}},
		{RunID: run.ID, Name: "Manor Farm", Type: "Location", Members: []string{"Manor Farm"}, MentionCount: 1, Attributes: model.Metadata{}, Embedding: []float32{0, 1, 0, 0}},
		{RunID: run.ID, Name: "Rebellion", Type: "Concept", Members: []string{"Rebellion"}, MentionCount: 1, Attributes: model.Metadata{}},
	}

	t.Run("Insert canonical entities", func(t *testing.T) {
		for _, entity := range entities {
			err := entitiesDbHandler.InsertCanonicalEntity(entity)
			require.NoError(t, err, "Expected InsertCanonicalEntity to not return an error for %s", entity.Name)
			assert.NotZero(t, entity.ID, "Expected inserted entity to have an ID")
		}
	})

	t.Run("Select canonical entity", func(t *testing.T) {
		entity, err := entitiesDbHandler.SelectCanonicalEntity(run.ID, "Mr. Jones")
		require.NoError(t, err, "Expected SelectCanonicalEntity to not return an error")
		assert.Equal(t, []string{"Jones", "Mr. Jones"}, entity.Members, "Expected members to be stored")
		assert.Equal(t, 2, entity.MentionCount, "Expected mention count")
		assert.Equal(t, []interface{}{"protagonist", "villain"}, entity.Attributes["role"], "Expected attributes to be stored")
		assert.Equal(t, []float32{1, 0, 0, 0}, entity.Embedding, "Expected embedding to be stored")
	})

	t.Run("Select canonical entity without embedding", func(t *testing.T) {
		entity, err := entitiesDbHandler.SelectCanonicalEntity(run.ID, "Rebellion")
		require.NoError(t, err)
		assert.Empty(t, entity.Embedding, "Expected no embedding")
	})

	t.Run("Upsert canonical entity", func(t *testing.T) {
		updated := &model.StoredEntity{RunID: run.ID, Name: "Rebellion", Type: "Event", Members: []string{"Rebellion"}, MentionCount: 3, Attributes: model.Metadata{}}
		err := entitiesDbHandler.InsertCanonicalEntity(updated)
		require.NoError(t, err)

		entity, err := entitiesDbHandler.SelectCanonicalEntity(run.ID, "Rebellion")
		require.NoError(t, err)
		assert.Equal(t, "Event", entity.Type, "Expected type to be overwritten")
		assert.Equal(t, 3, entity.MentionCount, "Expected mention count to be overwritten")
	})

	t.Run("Select canonical entities", func(t *testing.T) {
		all, err := entitiesDbHandler.SelectCanonicalEntities(run.ID)
		require.NoError(t, err)
		names := make([]string, 0, len(all))
		for _, e := range all {
			names = append(names, e.Name)
		}
		assert.Equal(t, []string{"Manor Farm", "Mr. Jones", "Old Major", "Rebellion"}, names, "Expected entities ordered by name")
	})

	t.Run("Select canonical entities by type", func(t *testing.T) {
		persons, err := entitiesDbHandler.SelectCanonicalEntitiesByType(run.ID, "Person", 10)
		require.NoError(t, err)
		assert.Len(t, persons, 2, "Expected two persons")

		limited, err := entitiesDbHandler.SelectCanonicalEntitiesByType(run.ID, "Person", 1)
		require.NoError(t, err)
		assert.Len(t, limited, 1, "Expected limit to apply")
	})

	t.Run("Select canonical entities by similarity", func(t *testing.T) {
		similar, err := entitiesDbHandler.SelectCanonicalEntitiesBySimilarity(run.ID, []float32{1, 0, 0, 0}, 10, 0.5)
		require.NoError(t, err)
		require.Len(t, similar, 2, "Expected two entities above the threshold")
		assert.Equal(t, "Mr. Jones", similar[0].Name, "Expected closest entity first")
		assert.InDelta(t, 1.0, similar[0].Similarity, 1e-6, "Expected identical vector")
		assert.Equal(t, "Old Major", similar[1].Name)
		assert.InDelta(t, 0.8, similar[1].Similarity, 1e-6, "Expected cosine similarity")
	})

	t.Run("Delete canonical entities", func(t *testing.T) {
		err := entitiesDbHandler.DeleteCanonicalEntities(run.ID)
		require.NoError(t, err)

		all, err := entitiesDbHandler.SelectCanonicalEntities(run.ID)
		require.NoError(t, err)
		assert.Empty(t, all, "Expected no entities after delete")
	})
}
