package pipeline

import (
	"context"
	"fmt"

	"github.com/knights-analytics/hugot"
	"github.com/siherrmann/kgraph/helper"
	"github.com/siherrmann/kgraph/model"
)

// DefaultEmbedder creates an embedder running a sentence transformer locally.
// An empty modelName selects all-MiniLM-L6-v2 which produces 384-dimensional
// embeddings. Names are embedded in batches of batchSize (all at once for 0).
func DefaultEmbedder(modelName string, batchSize int) (EmbedFunc, error) {
	if modelName == "" {
		modelName = model.DefaultEmbeddingModel
	}

	// Prepare model (download if needed)
	modelPath, err := helper.PrepareModel(modelName, "onnx/model.onnx")
	if err != nil {
		return nil, err
	}

	// Initialize hugot session with Go backend
	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create hugot session: %w", err)
	}

	config := hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "entity-name-embedder",
	}
	sentencePipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("failed to create sentence pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, fmt.Errorf("failed to create sentence pipeline: %w", err)
	}

	return func(ctx context.Context, texts []string) ([][]float32, error) {
		embeddings := make([][]float32, 0, len(texts))
		for _, batch := range batches(texts, batchSize) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			result, err := sentencePipeline.RunPipeline(batch)
			if err != nil {
				return nil, fmt.Errorf("failed to generate embeddings: %w", err)
			}
			if len(result.Embeddings) != len(batch) {
				return nil, fmt.Errorf("%w: got %d want %d", ErrEmbeddingCount, len(result.Embeddings), len(batch))
			}

			embeddings = append(embeddings, result.Embeddings...)
		}
		return embeddings, nil
	}, nil
}

// batches splits texts into consecutive slices of at most size elements.
func batches(texts []string, size int) [][]string {
	if len(texts) == 0 {
		return nil
	}
	if size <= 0 || size >= len(texts) {
		return [][]string{texts}
	}

	out := make([][]string, 0, (len(texts)+size-1)/size)
	for start := 0; start < len(texts); start += size {
		end := start + size
		if end > len(texts) {
			end = len(texts)
		}
		out = append(out, texts[start:end])
	}
	return out
}
