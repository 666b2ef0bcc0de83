package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/siherrmann/kgraph/helper"
	"github.com/siherrmann/kgraph/model"
)

// NewEmbedder creates the embedder selected by config.EmbeddingProvider.
// Remote providers are guarded by a circuit breaker and every provider
// is memoized when EmbeddingCacheSize is positive.
func NewEmbedder(config model.BuildConfig, logger *slog.Logger) (EmbedFunc, error) {
	params := RemoteParams{
		BaseURL:               config.EmbeddingURL,
		APIKey:                config.EmbeddingKey,
		Model:                 config.EmbeddingModel,
		BatchSize:             config.EmbeddingBatchSize,
		MaxConcurrentRequests: config.MaxConcurrentRequests,
		RequestsPerSecond:     config.RequestsPerSecond,
	}

	var embed EmbedFunc
	var err error
	switch config.EmbeddingProvider {
	case "", model.ProviderHugot:
		embed, err = DefaultEmbedder(config.EmbeddingModel, config.EmbeddingBatchSize)
	case model.ProviderOllama:
		embed, err = OllamaEmbedder(params)
		if err == nil {
			embed = WithCircuitBreaker(embed, DefaultBreakerConfig(), logger)
		}
	case model.ProviderOpenAI:
		embed, err = OpenAIEmbedder(params)
		if err == nil {
			embed = WithCircuitBreaker(embed, DefaultBreakerConfig(), logger)
		}
	default:
		return nil, helper.NewError("create embedder", fmt.Errorf("unknown embedding provider %q", config.EmbeddingProvider))
	}
	if err != nil {
		return nil, helper.NewError("create embedder", err)
	}

	if config.EmbeddingCacheSize > 0 {
		embed, err = WithCache(embed, config.EmbeddingCacheSize)
		if err != nil {
			return nil, helper.NewError("create embedder", err)
		}
	}

	return embed, nil
}
