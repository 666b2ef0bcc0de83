package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ollama/ollama/api"
)

// OllamaEmbedder creates an embedder using the embed endpoint of an Ollama server.
// An empty BaseURL falls back to OLLAMA_HOST.
func OllamaEmbedder(params RemoteParams) (EmbedFunc, error) {
	if params.Model == "" {
		return nil, fmt.Errorf("ollama embedder needs a model")
	}

	var client *api.Client
	if params.BaseURL == "" {
		var err error
		client, err = api.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("failed to create ollama client: %w", err)
		}
	} else {
		u, err := url.Parse(params.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid ollama url: %w", err)
		}
		httpClient := http.DefaultClient
		if params.APIKey != "" {
			httpClient = &http.Client{
				Transport: &headerTransport{
					headers: map[string]string{"Authorization": "Bearer " + params.APIKey},
					rt:      http.DefaultTransport,
				},
			}
		}
		client = api.NewClient(u, httpClient)
	}

	runner := newBatchRunner(params)

	return func(ctx context.Context, texts []string) ([][]float32, error) {
		return runner.run(ctx, texts, func(ctx context.Context, batch []string) ([][]float32, error) {
			res, err := client.Embed(ctx, &api.EmbedRequest{
				Model: params.Model,
				Input: batch,
			})
			if err != nil {
				return nil, fmt.Errorf("ollama embed: %w", err)
			}
			if len(res.Embeddings) != len(batch) {
				return nil, fmt.Errorf("%w: got %d want %d", ErrEmbeddingCount, len(res.Embeddings), len(batch))
			}

			out := make([][]float32, len(res.Embeddings))
			for i, embedding := range res.Embeddings {
				vector := make([]float32, len(embedding))
				for j, v := range embedding {
					vector[j] = float32(v)
				}
				out[i] = vector
			}
			return out, nil
		})
	}, nil
}

type headerTransport struct {
	headers map[string]string
	rt      http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	for k, v := range t.headers {
		if r.Header.Get(k) == "" {
			r.Header.Set(k, v)
		}
	}
	return t.rt.RoundTrip(r)
}
