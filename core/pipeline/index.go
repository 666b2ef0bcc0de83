package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/siherrmann/kgraph/helper"
	"github.com/siherrmann/kgraph/model"
)

var (
	// ErrEmbeddingCount is returned when a provider does not return one vector per name.
	ErrEmbeddingCount = errors.New("embedding count does not match input count")
	// ErrEmbeddingDimension is returned when a provider returns vectors of different length.
	ErrEmbeddingDimension = errors.New("embedding dimensions differ")
)

// BuildEmbeddingIndex embeds the distinct names in one provider call.
// Empty names and empty vectors are left out of the index, such names
// end up as their own canonical entity.
func BuildEmbeddingIndex(ctx context.Context, embed EmbedFunc, names []string, logger *slog.Logger) (model.EmbeddingIndex, error) {
	if logger == nil {
		logger = slog.Default()
	}

	inputs := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		inputs = append(inputs, name)
	}

	index := make(model.EmbeddingIndex, len(inputs))
	if len(inputs) == 0 {
		return index, nil
	}

	vectors, err := embed(ctx, inputs)
	if err != nil {
		return nil, helper.NewError("embed names", err)
	}
	if len(vectors) != len(inputs) {
		return nil, helper.NewError("embed names", fmt.Errorf("%w: got %d want %d", ErrEmbeddingCount, len(vectors), len(inputs)))
	}

	dimension := 0
	skipped := 0
	for i, vector := range vectors {
		if len(vector) == 0 {
			skipped++
			continue
		}
		if dimension == 0 {
			dimension = len(vector)
		}
		if len(vector) != dimension {
			return nil, helper.NewError("embed names", fmt.Errorf("%w: %q has %d, expected %d", ErrEmbeddingDimension, inputs[i], len(vector), dimension))
		}
		index[inputs[i]] = vector
	}

	if skipped > 0 {
		logger.Warn("Names without embedding are kept as singletons", slog.Int("count", skipped))
	}

	return index, nil
}
