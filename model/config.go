package model

import (
	"fmt"

	"github.com/siherrmann/kgraph/helper"
)

// Strategy selects the canonical representative of a component.
type Strategy string

const (
	// StrategyLongest picks the longest name.
	StrategyLongest Strategy = "longest"
	// StrategyMostFrequent picks the most often mentioned name.
	StrategyMostFrequent Strategy = "most_frequent"
)

// Embedding providers.
const (
	ProviderHugot  = "hugot"
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// DefaultEmbeddingModel is the sentence transformer used by the hugot provider.
const DefaultEmbeddingModel = "sentence-transformers/all-MiniLM-L6-v2"

// BuildConfig configures one construction run.
type BuildConfig struct {
	SimilarityThreshold float64  `json:"similarity_threshold"`
	Strategy            Strategy `json:"strategy"`

	// Embedding provider
	EmbeddingProvider     string  `json:"embedding_provider"`
	EmbeddingModel        string  `json:"embedding_model"`
	EmbeddingURL          string  `json:"embedding_url,omitempty"`
	EmbeddingKey          string  `json:"-"`
	EmbeddingBatchSize    int     `json:"embedding_batch_size"`
	EmbeddingCacheSize    int     `json:"embedding_cache_size"`
	MaxConcurrentRequests int64   `json:"max_concurrent_requests"`
	RequestsPerSecond     float64 `json:"requests_per_second"`
}

// DefaultBuildConfig returns the defaults of a full workflow run.
func DefaultBuildConfig() BuildConfig {
	return BuildConfig{
		SimilarityThreshold:   0.95,
		Strategy:              StrategyLongest,
		EmbeddingProvider:     ProviderHugot,
		EmbeddingModel:        DefaultEmbeddingModel,
		EmbeddingBatchSize:    64,
		EmbeddingCacheSize:    4096,
		MaxConcurrentRequests: 4,
		RequestsPerSecond:     0,
	}
}

// NewBuildConfiguration returns the defaults overridden by the KGRAPH_*
// environment variables.
func NewBuildConfiguration() (*BuildConfig, error) {
	d := DefaultBuildConfig()
	config := &BuildConfig{
		SimilarityThreshold:   helper.GetEnvFloat("KGRAPH_SIMILARITY_THRESHOLD", d.SimilarityThreshold),
		Strategy:              Strategy(helper.GetEnvString("KGRAPH_STRATEGY", string(d.Strategy))),
		EmbeddingProvider:     helper.GetEnvString("KGRAPH_EMBEDDING_PROVIDER", d.EmbeddingProvider),
		EmbeddingModel:        helper.GetEnvString("KGRAPH_EMBEDDING_MODEL", d.EmbeddingModel),
		EmbeddingURL:          helper.GetEnvString("KGRAPH_EMBEDDING_URL", d.EmbeddingURL),
		EmbeddingKey:          helper.GetEnvString("KGRAPH_EMBEDDING_KEY", d.EmbeddingKey),
		EmbeddingBatchSize:    helper.GetEnvInt("KGRAPH_EMBEDDING_BATCH_SIZE", d.EmbeddingBatchSize),
		EmbeddingCacheSize:    helper.GetEnvInt("KGRAPH_EMBEDDING_CACHE_SIZE", d.EmbeddingCacheSize),
		MaxConcurrentRequests: int64(helper.GetEnvInt("KGRAPH_MAX_CONCURRENT_REQUESTS", int(d.MaxConcurrentRequests))),
		RequestsPerSecond:     helper.GetEnvFloat("KGRAPH_REQUESTS_PER_SECOND", d.RequestsPerSecond),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks the value ranges. An unknown strategy is not an error,
// it falls back to the lexicographic minimum.
func (c BuildConfig) Validate() error {
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1 {
		return helper.NewError("build configuration", fmt.Errorf("similarity threshold %v is outside [0, 1]", c.SimilarityThreshold))
	}
	if c.EmbeddingBatchSize < 0 {
		return helper.NewError("build configuration", fmt.Errorf("embedding batch size must not be negative"))
	}
	return nil
}

// QueryConfig holds defaults for retrieval queries.
type QueryConfig struct {
	MaxHops      int      `json:"max_hops"`
	Limit        int      `json:"limit,omitempty"`
	SearchFields []string `json:"search_fields"`

	// Ranking weights
	KeywordWeight float64 `json:"keyword_weight"`
	GraphWeight   float64 `json:"graph_weight"`
}

// DefaultQueryConfig returns the default query settings.
func DefaultQueryConfig() QueryConfig {
	return QueryConfig{
		MaxHops:      2,
		Limit:        0,
		SearchFields: []string{AttributeName, AttributeDescription},

		KeywordWeight: 1.0,
		GraphWeight:   0.5,
	}
}
