package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/kgraph/core/aggregate"
	"github.com/siherrmann/kgraph/core/canonical"
	"github.com/siherrmann/kgraph/core/graph"
	"github.com/siherrmann/kgraph/core/loader"
	"github.com/siherrmann/kgraph/core/remap"
	"github.com/siherrmann/kgraph/core/similarity"
	"github.com/siherrmann/kgraph/helper"
	"github.com/siherrmann/kgraph/model"
)

var errNoEmbedder = errors.New("embedder is required")

// Run executes all construction stages in order and stops at the first
// error. The returned result is complete and never modified afterwards.
func (p *Pipeline) Run(ctx context.Context, entities []model.EntityMention, relations []model.RelationMention) (*Result, error) {
	start := time.Now()
	runID := uuid.New()
	log := p.log.With(slog.String("run_id", runID.String()))

	report := model.BuildReport{
		RunID:            runID,
		EntityMentions:   len(entities),
		RelationMentions: len(relations),
	}
	report.UnknownEntityTypes, report.UnknownRelationLabels = p.unknownVocabulary(entities, relations)

	// Embed
	vocabulary := loader.Vocabulary(entities)
	report.Vocabulary = len(vocabulary)
	index, err := BuildEmbeddingIndex(ctx, p.Embedder, vocabulary, log)
	if err != nil {
		return nil, helper.NewError("embed", err)
	}
	report.Embedded = len(index)
	log.Info("Embedded entity names", slog.Int("names", len(vocabulary)), slog.Int("embedded", len(index)))

	if err := ctx.Err(); err != nil {
		return nil, helper.NewError("similarity graph", err)
	}

	// Similarity graph
	similar := similarity.NewGraph(index, p.Config.SimilarityThreshold)
	report.SimilarityEdges = len(similar.Edges())

	// Canonicalize
	canonicalizer := canonical.NewCanonicalizer(p.Config.Strategy, log)
	canonicalResult := canonicalizer.Canonicalize(similar, vocabulary, loader.Frequencies(entities))
	report.Components = len(canonicalResult.Components)
	log.Info("Canonicalized entity names", slog.Int("components", report.Components), slog.Int("similarity_edges", report.SimilarityEdges))

	if err := ctx.Err(); err != nil {
		return nil, helper.NewError("aggregate", err)
	}

	// Aggregate and remap
	canonicalEntities := aggregate.Aggregate(entities, canonicalResult.Map)
	report.CanonicalEntities = len(canonicalEntities)
	canonicalMentions := remap.RemapEntities(entities, canonicalResult.Map)
	canonicalRelations := remap.RemapRelations(relations, canonicalResult.Map)

	// Build graph
	knowledgeGraph, stats := graph.Build(canonicalRelations, canonicalEntities)
	report.DroppedRelations = stats.DroppedRelations
	report.DroppedTailElements = stats.DroppedTailElements
	report.ExcludedEntities = stats.ExcludedEntities
	report.Nodes = stats.Nodes
	report.Edges = stats.Edges
	report.MergedEdges = stats.MergedEdges

	if stats.DroppedRelations > 0 || stats.DroppedTailElements > 0 {
		log.Warn("Dropped relations with empty endpoints", slog.Int("relations", stats.DroppedRelations), slog.Int("tail_elements", stats.DroppedTailElements))
	}
	if stats.ExcludedEntities > 0 {
		log.Warn("Entities without relations are not part of the graph", slog.Int("count", stats.ExcludedEntities))
	}

	report.Duration = time.Since(start)
	log.Info("Built knowledge graph", slog.Int("nodes", report.Nodes), slog.Int("edges", report.Edges), slog.Int("merged_edges", report.MergedEdges), slog.Duration("duration", report.Duration))

	return &Result{
		RunID:             runID,
		Config:            p.Config,
		Entities:          canonicalMentions,
		Relations:         canonicalRelations,
		CanonicalMap:      canonicalResult.Map,
		Components:        canonicalResult.Components,
		CanonicalEntities: canonicalEntities,
		Graph:             knowledgeGraph,
		Similarity:        similar,
		SimilarityEdges:   similar.Edges(),
		Index:             index,
		Report:            report,
	}, nil
}

func (p *Pipeline) unknownVocabulary(entities []model.EntityMention, relations []model.RelationMention) (int, int) {
	unknownTypes := 0
	for _, e := range entities {
		if e.Type != "" && !p.Schema.HasEntityType(e.Type) {
			unknownTypes++
		}
	}
	unknownLabels := 0
	for _, r := range relations {
		if r.Relation != "" && !p.Schema.HasRelationLabel(r.Relation) {
			unknownLabels++
		}
	}
	return unknownTypes, unknownLabels
}
