package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/siherrmann/kgraph/core/graph"
	"github.com/siherrmann/kgraph/core/pipeline"
	"github.com/siherrmann/kgraph/helper"
	"github.com/siherrmann/kgraph/model"
	loadSql "github.com/siherrmann/kgraph/sql"
)

// Publisher stores build results in PostgreSQL, one run per result.
type Publisher struct {
	db           *helper.Database
	embeddingDim int

	Runs      *RunsDBHandler
	Entities  *CanonicalEntitiesDBHandler
	Relations *CanonicalRelationsDBHandler
}

// NewPublisher initializes the extensions and all tables of a run.
func NewPublisher(db *helper.Database, embeddingDim int, force bool) (*Publisher, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	err := loadSql.Init(db.Instance)
	if err != nil {
		return nil, helper.NewError("init extensions", err)
	}

	runs, err := NewRunsDBHandler(db, force)
	if err != nil {
		return nil, err
	}
	entities, err := NewCanonicalEntitiesDBHandler(db, embeddingDim, force)
	if err != nil {
		return nil, err
	}
	relations, err := NewCanonicalRelationsDBHandler(db, force)
	if err != nil {
		return nil, err
	}

	return &Publisher{
		db:           db,
		embeddingDim: embeddingDim,
		Runs:         runs,
		Entities:     entities,
		Relations:    relations,
	}, nil
}

// Publish stores the canonical entities and graph edges of result as a new
// run. Canonical entities get the embedding of their canonical name when the
// result still carries its embedding index. Every publish gets a fresh run
// id, the build's run id stays in the stored report. A failed publish
// removes the partially written run.
func (p *Publisher) Publish(ctx context.Context, result *pipeline.Result) (*model.Run, error) {
	if result == nil {
		return nil, helper.NewError("publish", fmt.Errorf("result is nil"))
	}

	config, err := model.NewMetadata(result.Config)
	if err != nil {
		return nil, helper.NewError("publish config", err)
	}
	report, err := model.NewMetadata(result.Report)
	if err != nil {
		return nil, helper.NewError("publish report", err)
	}

	run := &model.Run{ID: uuid.New(), Config: config, Report: report}

	err = p.Runs.InsertRun(run)
	if err != nil {
		return nil, helper.NewError("insert run", err)
	}

	err = p.publishContent(ctx, run.ID, result)
	if err != nil {
		if deleteErr := p.Runs.DeleteRun(run.ID); deleteErr != nil {
			p.db.Logger.Error("Failed to remove partial run", slog.String("run_id", run.ID.String()), slog.String("error", deleteErr.Error()))
		}
		return nil, err
	}

	p.db.Logger.Info(
		"Published run",
		slog.String("run_id", run.ID.String()),
		slog.Int("entities", len(result.CanonicalEntities)),
		slog.Int("relations", result.Report.Edges),
	)

	return run, nil
}

func (p *Publisher) publishContent(ctx context.Context, runID uuid.UUID, result *pipeline.Result) error {
	for _, entity := range result.SortedEntities() {
		if err := ctx.Err(); err != nil {
			return helper.NewError("publish entities", err)
		}

		embedding := result.Index[entity.Name]
		if len(embedding) != p.embeddingDim {
			embedding = nil
		}

		stored, err := model.NewStoredEntity(runID, entity, embedding)
		if err != nil {
			return helper.NewError("convert entity "+entity.Name, err)
		}
		err = p.Entities.InsertCanonicalEntity(stored)
		if err != nil {
			return helper.NewError("insert entity "+entity.Name, err)
		}
	}

	if result.Graph == nil {
		return nil
	}
	for _, edge := range result.Graph.Edges() {
		if err := ctx.Err(); err != nil {
			return helper.NewError("publish relations", err)
		}

		chunkIDs := make([]string, len(edge.ChunkIDs))
		for i, id := range edge.ChunkIDs {
			chunkIDs[i] = string(id)
		}

		err := p.Relations.InsertCanonicalRelation(&model.StoredRelation{
			RunID:    runID,
			Head:     edge.Head,
			Tail:     edge.Tail,
			Relation: edge.Relation,
			ChunkIDs: chunkIDs,
			Count:    edge.Count,
		})
		if err != nil {
			return helper.NewError("insert relation", err)
		}
	}

	return nil
}

// SelectGraph rebuilds the knowledge graph of a published run.
func (p *Publisher) SelectGraph(runID uuid.UUID) (*graph.KnowledgeGraph, error) {
	entities, err := p.Entities.SelectCanonicalEntities(runID)
	if err != nil {
		return nil, err
	}
	relations, err := p.Relations.SelectCanonicalRelations(runID)
	if err != nil {
		return nil, err
	}

	g := graph.NewKnowledgeGraph()
	for _, stored := range relations {
		chunkIDs := make([]model.ChunkID, len(stored.ChunkIDs))
		for i, id := range stored.ChunkIDs {
			chunkIDs[i] = model.ChunkID(id)
		}
		g.RestoreEdge(graph.Edge{
			Head:     stored.Head,
			Tail:     stored.Tail,
			Relation: stored.Relation,
			ChunkIDs: chunkIDs,
			Count:    stored.Count,
		})
	}

	// Entities without any relation are stored but are not part of the graph.
	for _, stored := range entities {
		if !g.HasNode(stored.Name) {
			continue
		}
		entity, err := stored.CanonicalEntity()
		if err != nil {
			return nil, helper.NewError("convert entity "+stored.Name, err)
		}
		g.AddNode(graph.Node{Name: entity.Name, Type: entity.Type, Attributes: entity.Attributes})
	}

	return g, nil
}
