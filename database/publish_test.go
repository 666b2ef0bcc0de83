package database

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/siherrmann/kgraph/core/pipeline"
	"github.com/siherrmann/kgraph/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var farmVectors = map[string][]float32{
	"Mr. Jones":  {1, 0, 0, 0},
	"Jones":      {0.99, 0.1, 0, 0},
	"Manor Farm": {0, 1, 0, 0},
	"Old Major":  {0, 0, 1, 0},
	"Boxer":      {0, 0, 0, 1},
}

func farmResult(t *testing.T) *pipeline.Result {
	entities := []model.EntityMention{
		{ChunkID: "1", Type: "Person", Name: "Mr. Jones", Attributes: model.NewAttributes(map[string]interface{}{"role": "protagonist"})},
		{ChunkID: "1", Type: "Location", Name: "Manor Farm"},
		{ChunkID: "2", Type: "Person", Name: "Jones", Attributes: model.NewAttributes(map[string]interface{}{"role": "villain"})},
		{ChunkID: "2", Type: "Person", Name: "Old Major"},
		{ChunkID: "3", Type: "Person", Name: "Boxer"},
	}
	relations := []model.RelationMention{
		{ChunkID: "1", Head: "Mr. Jones", Relation: "possesses", Tail: model.SingleTail("Manor Farm")},
		{ChunkID: "2", Head: "Jones", Relation: "possesses", Tail: model.SingleTail("Manor Farm")},
		{ChunkID: "2", Head: "Jones", Relation: "knows", Tail: model.SingleTail("Old Major")},
	}

	embed := func(ctx context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i, text := range texts {
			out[i] = farmVectors[text]
		}
		return out, nil
	}

	p, err := pipeline.NewPipeline(embed, model.DefaultBuildConfig(), nil, nil)
	require.NoError(t, err, "failed to create pipeline")
	result, err := p.Run(context.Background(), entities, relations)
	require.NoError(t, err, "failed to run pipeline")
	return result
}

func TestPublisher(t *testing.T) {
	database := initDB(t)

	t.Run("Invalid call NewPublisher with nil database", func(t *testing.T) {
		_, err := NewPublisher(nil, testEmbeddingDim, false)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "database connection is nil")
	})

	publisher, err := NewPublisher(database, testEmbeddingDim, true)
	require.NoError(t, err, "Expected NewPublisher to not return an error")

	result := farmResult(t)

	run, err := publisher.Publish(context.Background(), result)
	require.NoError(t, err, "Expected Publish to not return an error")
	t.Cleanup(func() {
		_ = publisher.Runs.DeleteRun(run.ID)
	})

	t.Run("Run is stored with its report", func(t *testing.T) {
		assert.NotEqual(t, uuid.Nil, run.ID, "Expected a run id")

		stored, err := publisher.Runs.SelectRun(run.ID)
		require.NoError(t, err)
		assert.Equal(t, result.RunID.String(), stored.Report["run_id"], "Expected the build run id in the report")
		assert.Equal(t, float64(result.Report.CanonicalEntities), stored.Report["canonical_entities"], "Expected report to be stored")
		assert.Equal(t, "longest", stored.Config["strategy"], "Expected config to be stored")
	})

	t.Run("Canonical entities carry their embedding", func(t *testing.T) {
		entities, err := publisher.Entities.SelectCanonicalEntities(run.ID)
		require.NoError(t, err)
		assert.Len(t, entities, len(result.CanonicalEntities), "Expected one row per canonical entity")

		jones, err := publisher.Entities.SelectCanonicalEntity(run.ID, "Mr. Jones")
		require.NoError(t, err)
		assert.Equal(t, []string{"Jones", "Mr. Jones"}, jones.Members)
		assert.Equal(t, farmVectors["Mr. Jones"], jones.Embedding)
	})

	t.Run("Merged edges are stored once", func(t *testing.T) {
		relations, err := publisher.Relations.SelectCanonicalRelations(run.ID)
		require.NoError(t, err)
		require.Len(t, relations, 2, "Expected two deduplicated edges")
		assert.Equal(t, "possesses", relations[0].Relation)
		assert.Equal(t, 2, relations[0].Count, "Expected merged count")
		assert.Equal(t, []string{"1", "2"}, relations[0].ChunkIDs, "Expected both chunks")
	})

	t.Run("Graph is rebuilt from the run", func(t *testing.T) {
		g, err := publisher.SelectGraph(run.ID)
		require.NoError(t, err)
		assert.Equal(t, result.Graph.NodeCount(), g.NodeCount(), "Expected same nodes")
		assert.Equal(t, result.Graph.EdgeCount(), g.EdgeCount(), "Expected same edges")
		assert.False(t, g.HasNode("Boxer"), "Expected entities without relations to stay out of the graph")

		node, ok := g.Node("Mr. Jones")
		require.True(t, ok)
		assert.Equal(t, "Person", node.Type)
		assert.ElementsMatch(t, []interface{}{"protagonist", "villain"}, node.Attributes.Values("role"))
	})

	t.Run("Publishing the same result twice creates two runs", func(t *testing.T) {
		second, err := publisher.Publish(context.Background(), result)
		require.NoError(t, err, "Expected a second publish to succeed")
		t.Cleanup(func() {
			_ = publisher.Runs.DeleteRun(second.ID)
		})

		assert.NotEqual(t, run.ID, second.ID, "Expected a fresh run id")
		entities, err := publisher.Entities.SelectCanonicalEntities(second.ID)
		require.NoError(t, err)
		assert.Len(t, entities, len(result.CanonicalEntities))
	})

	t.Run("Cancelled context removes the partial run", func(t *testing.T) {
		before, err := publisher.Runs.SelectAllRuns()
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err = publisher.Publish(ctx, farmResult(t))
		assert.Error(t, err, "Expected error for a cancelled context")

		after, err := publisher.Runs.SelectAllRuns()
		require.NoError(t, err)
		assert.Len(t, after, len(before), "Expected partial run to be removed")
	})

	t.Run("Nil result", func(t *testing.T) {
		_, err := publisher.Publish(context.Background(), nil)
		assert.Error(t, err)
	})
}
