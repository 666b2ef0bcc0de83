package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/siherrmann/kgraph/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Mock EmbedFunc returning fixed vectors, unknown texts get an empty vector
func mockEmbedFunc(vectors map[string][]float32) EmbedFunc {
	return func(ctx context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i, text := range texts {
			out[i] = vectors[text]
		}
		return out, nil
	}
}

// Mock EmbedFunc that returns an error
func mockEmbedFuncError(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, errors.New("embedding error")
}

var farmVectors = map[string][]float32{
	"Mr. Jones":   {1, 0, 0},
	"Jones":       {0.99, 0.1, 0},
	"Animal Farm": {0, 1, 0},
	"Boxer":       {0, 0, 1},
	"Moses":       {0.5, 0, 0.5},
}

func mention(chunk, typ, name string, attributes map[string]interface{}) model.EntityMention {
	return model.EntityMention{
		ChunkID:    model.ChunkID(chunk),
		Type:       typ,
		Name:       name,
		Attributes: model.NewAttributes(attributes),
	}
}

func farmEntities() []model.EntityMention {
	return []model.EntityMention{
		mention("1", "Person", "Mr. Jones", map[string]interface{}{"role": "protagonist"}),
		mention("1", "Location", "Animal Farm", nil),
		mention("2", "Person", "Jones", map[string]interface{}{"role": "villain"}),
		mention("3", "Person", "Boxer", map[string]interface{}{"description": "a loyal horse"}),
		mention("4", "Animal", "Moses", nil),
	}
}

func farmRelations() []model.RelationMention {
	return []model.RelationMention{
		{ChunkID: "2", Head: "Jones", Relation: "possesses", Tail: model.SingleTail("Animal Farm")},
		{ChunkID: "3", Head: "Boxer", Relation: "locatedIn", Tail: model.ListTail("Animal Farm", "")},
		{ChunkID: "3", Head: "Squealer", Relation: "knows", Tail: model.SingleTail("Boxer")},
		{ChunkID: "4", Head: "", Relation: "knows", Tail: model.SingleTail("Boxer")},
	}
}

func newTestPipeline(t *testing.T, embed EmbedFunc, strategy model.Strategy) *Pipeline {
	config := model.DefaultBuildConfig()
	config.Strategy = strategy
	p, err := NewPipeline(embed, config, nil, nil)
	require.NoError(t, err, "Expected pipeline to be created")
	return p
}

func TestNewPipeline(t *testing.T) {
	t.Run("Create new pipeline", func(t *testing.T) {
		p, err := NewPipeline(mockEmbedFunc(farmVectors), model.DefaultBuildConfig(), nil, nil)
		require.NoError(t, err)
		assert.NotNil(t, p.Embedder)
		assert.NotNil(t, p.Schema, "Expected default schema")
	})

	t.Run("Missing embedder", func(t *testing.T) {
		_, err := NewPipeline(nil, model.DefaultBuildConfig(), nil, nil)
		assert.Error(t, err)
	})

	t.Run("Invalid threshold", func(t *testing.T) {
		config := model.DefaultBuildConfig()
		config.SimilarityThreshold = 1.5
		_, err := NewPipeline(mockEmbedFunc(farmVectors), config, nil, nil)
		assert.Error(t, err, "Expected threshold outside [0, 1] to fail")
	})
}

func TestPipelineRun(t *testing.T) {
	t.Run("Surface forms share one canonical entity", func(t *testing.T) {
		p := newTestPipeline(t, mockEmbedFunc(farmVectors), model.StrategyLongest)
		result, err := p.Run(context.Background(), farmEntities(), farmRelations())
		require.NoError(t, err, "Expected run to succeed")

		assert.Equal(t, "Mr. Jones", result.CanonicalMap.Get("Jones"))
		assert.Equal(t, "Mr. Jones", result.CanonicalMap.Get("Mr. Jones"))

		edges := result.Graph.EdgesOf("Mr. Jones")
		require.Len(t, edges, 1)
		assert.Equal(t, "Animal Farm", edges[0].Tail)
		assert.Equal(t, "possesses", edges[0].Relation)

		jones := result.CanonicalEntities["Mr. Jones"]
		require.NotNil(t, jones)
		assert.ElementsMatch(t, []interface{}{"protagonist", "villain"}, jones.Attributes.Values("role"))
	})

	t.Run("Most frequent strategy breaks ties lexicographically", func(t *testing.T) {
		p := newTestPipeline(t, mockEmbedFunc(farmVectors), model.StrategyMostFrequent)
		result, err := p.Run(context.Background(), farmEntities(), farmRelations())
		require.NoError(t, err)
		assert.Equal(t, "Jones", result.CanonicalMap.Get("Mr. Jones"))
		assert.True(t, result.Graph.HasNode("Jones"))
	})

	t.Run("Report counts", func(t *testing.T) {
		p := newTestPipeline(t, mockEmbedFunc(farmVectors), model.StrategyLongest)
		result, err := p.Run(context.Background(), farmEntities(), farmRelations())
		require.NoError(t, err)

		report := result.Report
		assert.NotEqual(t, result.RunID.String(), "00000000-0000-0000-0000-000000000000")
		assert.Equal(t, result.RunID, report.RunID)
		assert.Equal(t, 5, report.EntityMentions)
		assert.Equal(t, 4, report.RelationMentions)
		assert.Equal(t, 5, report.Vocabulary)
		assert.Equal(t, 5, report.Embedded)
		assert.Equal(t, 1, report.SimilarityEdges)
		assert.Equal(t, 4, report.Components)
		assert.Equal(t, 4, report.CanonicalEntities)
		assert.Equal(t, 1, report.DroppedRelations)
		assert.Equal(t, 1, report.DroppedTailElements)
		assert.Equal(t, 1, report.ExcludedEntities, "Expected Moses to be excluded")
		assert.Equal(t, 4, report.Nodes)
		assert.Equal(t, 3, report.Edges)
		assert.Equal(t, 1, report.UnknownEntityTypes, "Expected Animal to be unknown")
		assert.Equal(t, 0, report.UnknownRelationLabels)
	})

	t.Run("Unknown heads keep their name", func(t *testing.T) {
		p := newTestPipeline(t, mockEmbedFunc(farmVectors), model.StrategyLongest)
		result, err := p.Run(context.Background(), farmEntities(), farmRelations())
		require.NoError(t, err)

		node, ok := result.Graph.Node("Squealer")
		require.True(t, ok, "Expected identity fallback for Squealer")
		assert.Equal(t, "", node.Type)
	})

	t.Run("Names without embedding are singletons", func(t *testing.T) {
		p := newTestPipeline(t, mockEmbedFunc(map[string][]float32{"Mr. Jones": {1, 0}}), model.StrategyLongest)
		result, err := p.Run(context.Background(), farmEntities(), farmRelations())
		require.NoError(t, err)

		assert.Equal(t, 1, result.Report.Embedded)
		assert.Equal(t, "Jones", result.CanonicalMap.Get("Jones"))
		assert.Len(t, result.Components, 5)
	})

	t.Run("Run is idempotent", func(t *testing.T) {
		p := newTestPipeline(t, mockEmbedFunc(farmVectors), model.StrategyLongest)
		first, err := p.Run(context.Background(), farmEntities(), farmRelations())
		require.NoError(t, err)
		second, err := p.Run(context.Background(), farmEntities(), farmRelations())
		require.NoError(t, err)

		assert.Equal(t, first.CanonicalMap, second.CanonicalMap)
		assert.Equal(t, first.Components, second.Components)
		assert.Equal(t, first.Graph.Edges(), second.Graph.Edges())
	})

	t.Run("Empty input", func(t *testing.T) {
		p := newTestPipeline(t, mockEmbedFunc(farmVectors), model.StrategyLongest)
		result, err := p.Run(context.Background(), nil, nil)
		require.NoError(t, err, "Expected empty input to not be an error")
		assert.Empty(t, result.CanonicalMap)
		assert.Equal(t, 0, result.Graph.NodeCount())
	})

	t.Run("Embedding error fails the run", func(t *testing.T) {
		p := newTestPipeline(t, mockEmbedFuncError, model.StrategyLongest)
		result, err := p.Run(context.Background(), farmEntities(), farmRelations())
		assert.Error(t, err)
		assert.Nil(t, result)
	})

	t.Run("Dimension mismatch fails the run", func(t *testing.T) {
		vectors := map[string][]float32{"Mr. Jones": {1, 0}, "Jones": {1, 0, 0}}
		p := newTestPipeline(t, mockEmbedFunc(vectors), model.StrategyLongest)
		_, err := p.Run(context.Background(), farmEntities(), farmRelations())
		assert.ErrorIs(t, err, ErrEmbeddingDimension)
	})
}

func TestResultJSON(t *testing.T) {
	p := newTestPipeline(t, mockEmbedFunc(farmVectors), model.StrategyLongest)
	result, err := p.Run(context.Background(), farmEntities(), farmRelations())
	require.NoError(t, err)

	t.Run("Snapshot round trip", func(t *testing.T) {
		data, err := json.Marshal(result)
		require.NoError(t, err, "Expected result to marshal")

		var loaded Result
		err = json.Unmarshal(data, &loaded)
		require.NoError(t, err, "Expected result to unmarshal")

		assert.Equal(t, result.RunID, loaded.RunID)
		assert.Equal(t, result.CanonicalMap, loaded.CanonicalMap)
		assert.Equal(t, result.Graph.NodeCount(), loaded.Graph.NodeCount())
		assert.Equal(t, result.Graph.EdgeCount(), loaded.Graph.EdgeCount())
		assert.Len(t, loaded.Entities, len(result.Entities))
		assert.Equal(t, "Mr. Jones", loaded.Entities[2].CanonicalName)
		assert.True(t, loaded.Relations[1].CanonicalTail.IsList, "Expected list tail to stay a list")
		assert.Nil(t, loaded.Index, "Expected index to not be stored")

		require.NotNil(t, loaded.Similarity)
		neighbors := loaded.Similarity.SimilarTo("Jones", 0)
		require.Len(t, neighbors, 1)
		assert.Equal(t, "Mr. Jones", neighbors[0].Name)

		jones := loaded.CanonicalEntities["Mr. Jones"]
		require.NotNil(t, jones)
		assert.ElementsMatch(t, []interface{}{"protagonist", "villain"}, jones.Attributes.Values("role"))
	})

	t.Run("Sorted entities", func(t *testing.T) {
		sorted := result.SortedEntities()
		require.Len(t, sorted, 4)
		assert.Equal(t, "Animal Farm", sorted[0].Name)
	})
}
