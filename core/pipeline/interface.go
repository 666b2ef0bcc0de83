package pipeline

import (
	"context"
	"log/slog"

	"github.com/siherrmann/kgraph/helper"
	"github.com/siherrmann/kgraph/model"
)

// EmbedFunc maps texts to embedding vectors. It must return exactly one
// vector per text, in input order, all of the same dimension.
type EmbedFunc func(ctx context.Context, texts []string) ([][]float32, error)

// Pipeline turns entity and relation mentions into a canonical knowledge graph.
type Pipeline struct {
	Embedder EmbedFunc
	Config   model.BuildConfig
	Schema   *model.Schema
	log      *slog.Logger
}

// NewPipeline creates a new construction pipeline. A nil schema falls back
// to the default schema.
func NewPipeline(embedder EmbedFunc, config model.BuildConfig, schema *model.Schema, logger *slog.Logger) (*Pipeline, error) {
	if embedder == nil {
		return nil, helper.NewError("create pipeline", errNoEmbedder)
	}
	if err := config.Validate(); err != nil {
		return nil, helper.NewError("create pipeline", err)
	}
	if schema == nil {
		schema = model.DefaultSchema()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Pipeline{
		Embedder: embedder,
		Config:   config,
		Schema:   schema,
		log:      logger,
	}, nil
}
