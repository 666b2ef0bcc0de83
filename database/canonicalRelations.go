package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/siherrmann/kgraph/helper"
	"github.com/siherrmann/kgraph/model"
	loadSql "github.com/siherrmann/kgraph/sql"
)

// CanonicalRelationsDBHandlerFunctions defines the interface for canonical relation database operations.
type CanonicalRelationsDBHandlerFunctions interface {
	InsertCanonicalRelation(relation *model.StoredRelation) error
	SelectCanonicalRelations(runID uuid.UUID) ([]*model.StoredRelation, error)
	SelectCanonicalRelationsOfEntity(runID uuid.UUID, name string) ([]*model.StoredRelation, error)
	DeleteCanonicalRelations(runID uuid.UUID) error
}

// CanonicalRelationsDBHandler handles canonical relation database operations
type CanonicalRelationsDBHandler struct {
	db *helper.Database
}

// NewCanonicalRelationsDBHandler creates a new canonical relations database handler.
// The runs table has to exist.
// If force is true, it will reload the SQL functions even if they already exist.
func NewCanonicalRelationsDBHandler(db *helper.Database, force bool) (*CanonicalRelationsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	relationsDbHandler := &CanonicalRelationsDBHandler{
		db: db,
	}

	err := loadSql.LoadCanonicalRelationsSql(relationsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load canonical relations sql", err)
	}

	err = relationsDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized CanonicalRelationsDBHandler")

	return relationsDbHandler, nil
}

// CreateTable creates the 'canonical_relations' table in the database.
// If the table already exists, it does not create it again.
func (h *CanonicalRelationsDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_canonical_relations();`)
	if err != nil {
		log.Panicf("error initializing canonical_relations table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table canonical_relations")

	return nil
}

// InsertCanonicalRelation inserts a graph edge, an existing edge with the
// same head, tail and relation in the run is overwritten.
func (h *CanonicalRelationsDBHandler) InsertCanonicalRelation(relation *model.StoredRelation) error {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_canonical_relation($1, $2, $3, $4, $5, $6)`,
		relation.RunID,
		relation.Head,
		relation.Tail,
		relation.Relation,
		pq.Array(relation.ChunkIDs),
		relation.Count,
	)

	err := row.Scan(
		&relation.ID,
		&relation.CreatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectCanonicalRelations retrieves all edges of a run
func (h *CanonicalRelationsDBHandler) SelectCanonicalRelations(runID uuid.UUID) ([]*model.StoredRelation, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_canonical_relations($1)`,
		runID,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	return scanRelations(rows)
}

// SelectCanonicalRelationsOfEntity retrieves the edges a canonical entity takes part in
func (h *CanonicalRelationsDBHandler) SelectCanonicalRelationsOfEntity(runID uuid.UUID, name string) ([]*model.StoredRelation, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_canonical_relations_of_entity($1, $2)`,
		runID,
		name,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	return scanRelations(rows)
}

// DeleteCanonicalRelations deletes all edges of a run
func (h *CanonicalRelationsDBHandler) DeleteCanonicalRelations(runID uuid.UUID) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_canonical_relations($1)`,
		runID,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

func scanRelations(rows *sql.Rows) ([]*model.StoredRelation, error) {
	var relations []*model.StoredRelation
	for rows.Next() {
		relation := &model.StoredRelation{}
		err := rows.Scan(
			&relation.ID,
			&relation.RunID,
			&relation.Head,
			&relation.Tail,
			&relation.Relation,
			pq.Array(&relation.ChunkIDs),
			&relation.Count,
			&relation.CreatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		relations = append(relations, relation)
	}

	err := rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return relations, nil
}
