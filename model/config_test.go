package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultQueryConfig(t *testing.T) {
	t.Run("Returns correct default values", func(t *testing.T) {
		config := DefaultQueryConfig()

		assert.Equal(t, 2, config.MaxHops, "Default MaxHops should be 2")
		assert.Equal(t, 0, config.Limit, "Default Limit should be unlimited")
		assert.Equal(t, []string{"name", "description"}, config.SearchFields, "Default search fields should be name and description")
		assert.Equal(t, 1.0, config.KeywordWeight)
		assert.Equal(t, 0.5, config.GraphWeight)
	})

	t.Run("Can be modified after creation", func(t *testing.T) {
		config := DefaultQueryConfig()
		config.MaxHops = 3
		config.SearchFields = append(config.SearchFields, "attributes.role")

		assert.Equal(t, 3, config.MaxHops)
		assert.Len(t, config.SearchFields, 3)
		assert.Len(t, DefaultQueryConfig().SearchFields, 2, "Expected defaults to be independent")
	})
}

func TestBuildConfig(t *testing.T) {
	t.Run("Defaults of a full workflow run", func(t *testing.T) {
		config := DefaultBuildConfig()

		assert.Equal(t, 0.95, config.SimilarityThreshold)
		assert.Equal(t, StrategyLongest, config.Strategy)
		assert.Equal(t, ProviderHugot, config.EmbeddingProvider)
		assert.Equal(t, "sentence-transformers/all-MiniLM-L6-v2", config.EmbeddingModel)
		assert.NoError(t, config.Validate())
	})

	t.Run("Threshold outside range", func(t *testing.T) {
		config := DefaultBuildConfig()
		config.SimilarityThreshold = -0.1
		assert.Error(t, config.Validate())

		config.SimilarityThreshold = 1.01
		assert.Error(t, config.Validate())
	})

	t.Run("Inclusive bounds", func(t *testing.T) {
		config := DefaultBuildConfig()
		config.SimilarityThreshold = 0
		assert.NoError(t, config.Validate())
		config.SimilarityThreshold = 1
		assert.NoError(t, config.Validate())
	})

	t.Run("Unknown strategy is valid", func(t *testing.T) {
		config := DefaultBuildConfig()
		config.Strategy = "shortest"
		assert.NoError(t, config.Validate(), "Expected unknown strategy to fall back instead of failing")
	})

	t.Run("From environment", func(t *testing.T) {
		t.Setenv("KGRAPH_SIMILARITY_THRESHOLD", "0.9")
		t.Setenv("KGRAPH_STRATEGY", "most_frequent")
		t.Setenv("KGRAPH_EMBEDDING_PROVIDER", "ollama")
		t.Setenv("KGRAPH_EMBEDDING_BATCH_SIZE", "16")

		config, err := NewBuildConfiguration()
		require.NoError(t, err)
		assert.Equal(t, 0.9, config.SimilarityThreshold)
		assert.Equal(t, StrategyMostFrequent, config.Strategy)
		assert.Equal(t, ProviderOllama, config.EmbeddingProvider)
		assert.Equal(t, 16, config.EmbeddingBatchSize)
	})

	t.Run("Invalid environment", func(t *testing.T) {
		t.Setenv("KGRAPH_SIMILARITY_THRESHOLD", "2")
		_, err := NewBuildConfiguration()
		assert.Error(t, err)
	})
}
