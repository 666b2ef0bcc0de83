package kgraph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/siherrmann/kgraph/core/graph"
	"github.com/siherrmann/kgraph/core/loader"
	"github.com/siherrmann/kgraph/core/pipeline"
	"github.com/siherrmann/kgraph/core/retrieval"
	"github.com/siherrmann/kgraph/core/similarity"
	"github.com/siherrmann/kgraph/database"
	"github.com/siherrmann/kgraph/export"
	"github.com/siherrmann/kgraph/helper"
	"github.com/siherrmann/kgraph/model"
)

// ErrNoSnapshot is returned when an operation needs a snapshot before one
// was built or loaded.
var ErrNoSnapshot = errors.New("no snapshot has been built or loaded")

// Retrieval methods accepted by Retrieve.
const (
	RetrieveKeyword       = "keyword"
	RetrieveMultiHop      = "multi_hop"
	RetrieveEntityCentric = "entity_centric"
)

// KGraph builds canonical knowledge graphs and answers queries over the
// latest one. Builds and queries may run concurrently, a query always sees
// one complete snapshot.
type KGraph struct {
	Pipeline *pipeline.Pipeline
	Loader   *loader.Loader
	// Logging
	log *slog.Logger

	snapshot atomic.Pointer[pipeline.Result]
}

func newLogger() *slog.Logger {
	return helper.NewLogger(os.Stdout, helper.GetEnvLogLevel("KGRAPH_LOG_LEVEL", slog.LevelInfo))
}

// NewKGraph creates a KGraph with the given embedder. A nil schema falls back
// to the default schema.
func NewKGraph(embedder pipeline.EmbedFunc, config model.BuildConfig, schema *model.Schema) (*KGraph, error) {
	return newKGraph(embedder, config, schema, newLogger())
}

// NewKGraphWithLogger is NewKGraph logging to logger instead of stdout.
func NewKGraphWithLogger(embedder pipeline.EmbedFunc, config model.BuildConfig, schema *model.Schema, logger *slog.Logger) (*KGraph, error) {
	if logger == nil {
		logger = newLogger()
	}
	return newKGraph(embedder, config, schema, logger)
}

// NewDefaultKGraph creates a KGraph with the embedding provider selected by
// config, the local hugot model by default.
func NewDefaultKGraph(config model.BuildConfig) (*KGraph, error) {
	logger := newLogger()

	embedder, err := pipeline.NewEmbedder(config, logger)
	if err != nil {
		return nil, helper.NewError("create default embedder", err)
	}

	return newKGraph(embedder, config, nil, logger)
}

func newKGraph(embedder pipeline.EmbedFunc, config model.BuildConfig, schema *model.Schema, logger *slog.Logger) (*KGraph, error) {
	if schema == nil {
		schema = model.DefaultSchema()
	}

	p, err := pipeline.NewPipeline(embedder, config, schema, logger)
	if err != nil {
		return nil, err
	}

	return &KGraph{
		Pipeline: p,
		Loader:   loader.NewLoader(schema, logger),
		log:      logger,
	}, nil
}

// Build runs the pipeline and publishes the result as the current snapshot.
// On error the previous snapshot stays in place.
func (k *KGraph) Build(ctx context.Context, entities []model.EntityMention, relations []model.RelationMention) (*model.BuildReport, error) {
	result, err := k.Pipeline.Run(ctx, entities, relations)
	if err != nil {
		return nil, err
	}

	k.snapshot.Store(result)
	return &result.Report, nil
}

// BuildFromFiles loads the entity and relation datasets and builds them.
func (k *KGraph) BuildFromFiles(ctx context.Context, entityPath, relationPath string) (*model.BuildReport, error) {
	entities, _, err := k.Loader.LoadEntities(entityPath)
	if err != nil {
		return nil, err
	}
	relations, _, err := k.Loader.LoadRelations(relationPath)
	if err != nil {
		return nil, err
	}

	return k.Build(ctx, entities, relations)
}

// Snapshot returns the current snapshot, nil before the first build or load.
func (k *KGraph) Snapshot() *pipeline.Result {
	return k.snapshot.Load()
}

// Load publishes an externally obtained snapshot.
func (k *KGraph) Load(result *pipeline.Result) error {
	if result == nil {
		return helper.NewError("load snapshot", fmt.Errorf("snapshot is nil"))
	}

	k.snapshot.Store(result)
	k.log.Info("Loaded snapshot", slog.String("run_id", result.RunID.String()), slog.Int("canonical_entities", len(result.CanonicalEntities)))
	return nil
}

// LoadFile reads a snapshot written by Export and publishes it.
func (k *KGraph) LoadFile(path string) error {
	result, err := export.LoadSnapshot(path)
	if err != nil {
		return err
	}
	return k.Load(result)
}

// Export writes all artifacts of the current snapshot into dir.
func (k *KGraph) Export(dir string) ([]string, error) {
	result := k.snapshot.Load()
	if result == nil {
		return nil, helper.NewError("export", ErrNoSnapshot)
	}

	paths, err := export.WriteAll(dir, result)
	if err != nil {
		return paths, err
	}

	k.log.Info("Exported snapshot", slog.String("dir", dir), slog.Int("files", len(paths)))
	return paths, nil
}

// Publish stores the current snapshot as a new run in PostgreSQL. Only
// snapshots of a build carry the embeddings needed for the vector column.
func (k *KGraph) Publish(ctx context.Context, db *helper.Database) (*model.Run, error) {
	result := k.snapshot.Load()
	if result == nil {
		return nil, helper.NewError("publish", ErrNoSnapshot)
	}

	dimension := result.Index.Dimension()
	if dimension == 0 {
		return nil, helper.NewError("publish", fmt.Errorf("snapshot carries no embeddings, publish requires a built snapshot"))
	}

	publisher, err := database.NewPublisher(db, dimension, false)
	if err != nil {
		return nil, err
	}
	return publisher.Publish(ctx, result)
}

// query runs q against the current snapshot. A missing snapshot or a
// failing query yields empty.
func query[T any](k *KGraph, name string, empty T, q func(e *retrieval.Engine) T) (out T) {
	result := k.snapshot.Load()
	if result == nil {
		k.log.Warn("Query without snapshot", slog.String("query", name))
		return empty
	}

	defer func() {
		if r := recover(); r != nil {
			k.log.Error("Query failed", slog.String("query", name), slog.String("error", fmt.Sprint(r)))
			out = empty
		}
	}()

	return q(retrieval.NewEngine(result, k.log))
}

// FilterEntities returns the entity mentions matching filter.
func (k *KGraph) FilterEntities(filter retrieval.EntityFilter) []model.CanonicalEntityMention {
	return query(k, "filter_entities", []model.CanonicalEntityMention{}, func(e *retrieval.Engine) []model.CanonicalEntityMention {
		return e.FilterEntities(filter)
	})
}

// FilterRelations returns the relation rows matching filter.
func (k *KGraph) FilterRelations(filter retrieval.RelationFilter) []model.CanonicalRelation {
	return query(k, "filter_relations", []model.CanonicalRelation{}, func(e *retrieval.Engine) []model.CanonicalRelation {
		return e.FilterRelations(filter)
	})
}

// SearchEntities runs a keyword search over the entity mentions.
func (k *KGraph) SearchEntities(q retrieval.SearchQuery) []model.CanonicalEntityMention {
	return query(k, "search_entities", []model.CanonicalEntityMention{}, func(e *retrieval.Engine) []model.CanonicalEntityMention {
		return e.SearchEntities(q)
	})
}

// Neighbors returns the canonical entities within maxHops of name.
func (k *KGraph) Neighbors(name string, maxHops int) []*graph.TraversalResult {
	return query(k, "neighbors", []*graph.TraversalResult{}, func(e *retrieval.Engine) []*graph.TraversalResult {
		return e.Neighbors(name, maxHops)
	})
}

// DepthFirst is Neighbors with a depth-first walk.
func (k *KGraph) DepthFirst(name string, maxHops int) []*graph.TraversalResult {
	return query(k, "depth_first", []*graph.TraversalResult{}, func(e *retrieval.Engine) []*graph.TraversalResult {
		return e.DepthFirst(name, maxHops)
	})
}

// Edges returns the graph edges of the node name resolves to.
func (k *KGraph) Edges(name string) []*graph.Edge {
	return query(k, "edges", []*graph.Edge{}, func(e *retrieval.Engine) []*graph.Edge {
		return e.Edges(name)
	})
}

// ExtractAttributes returns the attributes of the target entities.
func (k *KGraph) ExtractAttributes(targets []string, filter retrieval.EntityFilter, fields []string, includeBasicInfo bool) map[string]map[string]interface{} {
	return query(k, "extract_attributes", map[string]map[string]interface{}{}, func(e *retrieval.Engine) map[string]map[string]interface{} {
		return e.ExtractAttributes(targets, filter, fields, includeBasicInfo)
	})
}

// AttributesByType returns the attributes of up to limit entities of one type.
func (k *KGraph) AttributesByType(entityType string, fields []string, limit int) map[string]map[string]interface{} {
	return query(k, "attributes_by_type", map[string]map[string]interface{}{}, func(e *retrieval.Engine) map[string]map[string]interface{} {
		return e.AttributesByType(entityType, fields, limit)
	})
}

// SummaryByType counts entity mentions per type.
func (k *KGraph) SummaryByType() map[string]int {
	return query(k, "summary_by_type", map[string]int{}, func(e *retrieval.Engine) map[string]int {
		return e.SummaryByType()
	})
}

// SimilarTo lists the names most similar to name.
func (k *KGraph) SimilarTo(name string, topK int) []similarity.Neighbor {
	return query(k, "similar_to", []similarity.Neighbor{}, func(e *retrieval.Engine) []similarity.Neighbor {
		return e.SimilarTo(name, topK)
	})
}

// CanonicalEntity returns the aggregated entity a name resolves to.
func (k *KGraph) CanonicalEntity(name string) (*model.CanonicalEntity, bool) {
	entity := query(k, "canonical_entity", (*model.CanonicalEntity)(nil), func(e *retrieval.Engine) *model.CanonicalEntity {
		entity, _ := e.CanonicalEntity(name)
		return entity
	})
	return entity, entity != nil
}

// Retrieve ranks canonical entities for q with the given retrieval method.
// Unknown methods return no results.
func (k *KGraph) Retrieve(method string, q retrieval.SearchQuery, config model.QueryConfig) []*model.RetrievalResult {
	return query(k, "retrieve", []*model.RetrievalResult{}, func(e *retrieval.Engine) []*model.RetrievalResult {
		var strategy retrieval.Strategy
		switch method {
		case RetrieveKeyword:
			strategy = retrieval.NewKeywordStrategy(e)
		case RetrieveMultiHop:
			strategy = retrieval.NewMultiHopStrategy(e)
		case RetrieveEntityCentric:
			strategy = retrieval.NewEntityCentricStrategy(e)
		default:
			k.log.Warn("Unknown retrieval method", slog.String("method", method))
			return []*model.RetrievalResult{}
		}
		return strategy.Retrieve(q, config)
	})
}
