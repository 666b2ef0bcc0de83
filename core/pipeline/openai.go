package pipeline

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// OpenAIEmbedder creates an embedder for OpenAI compatible embedding APIs.
func OpenAIEmbedder(params RemoteParams) (EmbedFunc, error) {
	if params.Model == "" {
		return nil, fmt.Errorf("openai embedder needs a model")
	}
	if params.APIKey == "" {
		return nil, fmt.Errorf("openai embedder needs an api key")
	}

	options := []option.RequestOption{
		option.WithAPIKey(params.APIKey),
	}
	if params.BaseURL != "" {
		options = append(options, option.WithBaseURL(params.BaseURL))
	}
	client := openai.NewClient(options...)

	runner := newBatchRunner(params)

	return func(ctx context.Context, texts []string) ([][]float32, error) {
		return runner.run(ctx, texts, func(ctx context.Context, batch []string) ([][]float32, error) {
			response, err := client.Embeddings.New(ctx, openai.EmbeddingNewParams{
				Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: batch},
				Model: openai.EmbeddingModel(params.Model),
			})
			if err != nil {
				return nil, fmt.Errorf("openai embed: %w", err)
			}
			if len(response.Data) != len(batch) {
				return nil, fmt.Errorf("%w: got %d want %d", ErrEmbeddingCount, len(response.Data), len(batch))
			}

			out := make([][]float32, len(batch))
			for _, embedding := range response.Data {
				idx := int(embedding.Index)
				if idx < 0 || idx >= len(batch) {
					return nil, fmt.Errorf("embedding index out of range: %d", embedding.Index)
				}
				vector := make([]float32, len(embedding.Embedding))
				for j, v := range embedding.Embedding {
					vector[j] = float32(v)
				}
				out[idx] = vector
			}
			for i := range out {
				if out[i] == nil {
					return nil, fmt.Errorf("missing embedding for index %d", i)
				}
			}
			return out, nil
		})
	}, nil
}
