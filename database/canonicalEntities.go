package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/siherrmann/kgraph/helper"
	"github.com/siherrmann/kgraph/model"
	loadSql "github.com/siherrmann/kgraph/sql"
)

// CanonicalEntitiesDBHandlerFunctions defines the interface for canonical entity database operations.
type CanonicalEntitiesDBHandlerFunctions interface {
	InsertCanonicalEntity(entity *model.StoredEntity) error
	SelectCanonicalEntity(runID uuid.UUID, name string) (*model.StoredEntity, error)
	SelectCanonicalEntities(runID uuid.UUID) ([]*model.StoredEntity, error)
	SelectCanonicalEntitiesByType(runID uuid.UUID, entityType string, limit int) ([]*model.StoredEntity, error)
	SelectCanonicalEntitiesBySimilarity(runID uuid.UUID, embedding []float32, limit int, threshold float64) ([]*model.StoredEntity, error)
	DeleteCanonicalEntities(runID uuid.UUID) error
}

// CanonicalEntitiesDBHandler handles canonical entity database operations
type CanonicalEntitiesDBHandler struct {
	db *helper.Database
}

// NewCanonicalEntitiesDBHandler creates a new canonical entities database handler.
// The runs table has to exist, embeddingDim fixes the vector column size.
// If force is true, it will reload the SQL functions even if they already exist.
func NewCanonicalEntitiesDBHandler(db *helper.Database, embeddingDim int, force bool) (*CanonicalEntitiesDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}
	if embeddingDim <= 0 {
		return nil, helper.NewError("embedding dimension validation", fmt.Errorf("embedding dimension must be positive, got %d", embeddingDim))
	}

	entitiesDbHandler := &CanonicalEntitiesDBHandler{
		db: db,
	}

	err := loadSql.LoadCanonicalEntitiesSql(entitiesDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load canonical entities sql", err)
	}

	err = entitiesDbHandler.CreateTable(embeddingDim)
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized CanonicalEntitiesDBHandler")

	return entitiesDbHandler, nil
}

// CreateTable creates the 'canonical_entities' table in the database.
// If the table already exists, it does not create it again.
func (h *CanonicalEntitiesDBHandler) CreateTable(embeddingDim int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_canonical_entities($1);`, embeddingDim)
	if err != nil {
		log.Panicf("error initializing canonical_entities table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table canonical_entities")

	return nil
}

// InsertCanonicalEntity inserts a canonical entity, an existing row of the
// same run and name is overwritten.
func (h *CanonicalEntitiesDBHandler) InsertCanonicalEntity(entity *model.StoredEntity) error {
	var embedding interface{}
	if len(entity.Embedding) > 0 {
		embedding = pgvector.NewVector(entity.Embedding)
	}

	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_canonical_entity($1, $2, $3, $4, $5, $6, $7)`,
		entity.RunID,
		entity.Name,
		entity.Type,
		pq.Array(entity.Members),
		entity.MentionCount,
		entity.Attributes,
		embedding,
	)

	err := row.Scan(
		&entity.ID,
		&entity.CreatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectCanonicalEntity retrieves a canonical entity of a run by name
func (h *CanonicalEntitiesDBHandler) SelectCanonicalEntity(runID uuid.UUID, name string) (*model.StoredEntity, error) {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_canonical_entity($1, $2)`,
		runID,
		name,
	)

	entity := &model.StoredEntity{}
	err := row.Scan(scanEntityFields(entity)...)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return entity, nil
}

// SelectCanonicalEntities retrieves all canonical entities of a run ordered by name
func (h *CanonicalEntitiesDBHandler) SelectCanonicalEntities(runID uuid.UUID) ([]*model.StoredEntity, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_canonical_entities($1)`,
		runID,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	return scanEntities(rows, false)
}

// SelectCanonicalEntitiesByType retrieves the canonical entities of one type
func (h *CanonicalEntitiesDBHandler) SelectCanonicalEntitiesByType(runID uuid.UUID, entityType string, limit int) ([]*model.StoredEntity, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_canonical_entities_by_type($1, $2, $3)`,
		runID,
		entityType,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	return scanEntities(rows, false)
}

// SelectCanonicalEntitiesBySimilarity performs a cosine similarity search
// over the canonical entity embeddings of a run.
func (h *CanonicalEntitiesDBHandler) SelectCanonicalEntitiesBySimilarity(runID uuid.UUID, embedding []float32, limit int, threshold float64) ([]*model.StoredEntity, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_canonical_entities_by_similarity($1, $2, $3, $4)`,
		runID,
		pgvector.NewVector(embedding),
		limit,
		threshold,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	return scanEntities(rows, true)
}

// DeleteCanonicalEntities deletes all canonical entities of a run
func (h *CanonicalEntitiesDBHandler) DeleteCanonicalEntities(runID uuid.UUID) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_canonical_entities($1)`,
		runID,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

func scanEntityFields(entity *model.StoredEntity) []interface{} {
	return []interface{}{
		&entity.ID,
		&entity.RunID,
		&entity.Name,
		&entity.Type,
		pq.Array(&entity.Members),
		&entity.MentionCount,
		&entity.Attributes,
		pq.Array(&entity.Embedding),
		&entity.CreatedAt,
	}
}

func scanEntities(rows *sql.Rows, withSimilarity bool) ([]*model.StoredEntity, error) {
	var entities []*model.StoredEntity
	for rows.Next() {
		entity := &model.StoredEntity{}
		fields := scanEntityFields(entity)
		if withSimilarity {
			fields = append(fields, &entity.Similarity)
		}

		err := rows.Scan(fields...)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		entities = append(entities, entity)
	}

	err := rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return entities, nil
}
