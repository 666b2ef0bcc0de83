package pipeline

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// WithCache memoizes vectors per text so repeated runs over an overlapping
// vocabulary only embed new names. Only the misses reach embed.
func WithCache(embed EmbedFunc, size int) (EmbedFunc, error) {
	cache, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding cache: %w", err)
	}

	return func(ctx context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		var missing []string
		var missingIdx []int
		for i, text := range texts {
			if vector, ok := cache.Get(text); ok {
				out[i] = vector
				continue
			}
			missing = append(missing, text)
			missingIdx = append(missingIdx, i)
		}

		if len(missing) == 0 {
			return out, nil
		}

		vectors, err := embed(ctx, missing)
		if err != nil {
			return nil, err
		}
		if len(vectors) != len(missing) {
			return nil, fmt.Errorf("%w: got %d want %d", ErrEmbeddingCount, len(vectors), len(missing))
		}

		for i, vector := range vectors {
			out[missingIdx[i]] = vector
			if len(vector) > 0 {
				cache.Add(missing[i], vector)
			}
		}
		return out, nil
	}, nil
}
