package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/kgraph/helper"
	"github.com/siherrmann/kgraph/model"
	loadSql "github.com/siherrmann/kgraph/sql"
)

// RunsDBHandlerFunctions defines the interface for Runs database operations.
type RunsDBHandlerFunctions interface {
	InsertRun(run *model.Run) error
	SelectRun(id uuid.UUID) (*model.Run, error)
	SelectLatestRun() (*model.Run, error)
	SelectAllRuns() ([]*model.Run, error)
	DeleteRun(id uuid.UUID) error
}

// RunsDBHandler handles run-related database operations
type RunsDBHandler struct {
	db *helper.Database
}

// NewRunsDBHandler creates a new runs database handler.
// It loads the run SQL functions and creates the runs table.
// If force is true, it will reload the SQL functions even if they already exist.
func NewRunsDBHandler(db *helper.Database, force bool) (*RunsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	runsDbHandler := &RunsDBHandler{
		db: db,
	}

	err := loadSql.LoadRunsSql(runsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load runs sql", err)
	}

	err = runsDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized RunsDBHandler")

	return runsDbHandler, nil
}

// CreateTable creates the 'runs' table in the database.
// If the table already exists, it does not create it again.
func (h *RunsDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_runs();`)
	if err != nil {
		log.Panicf("error initializing runs table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table runs")

	return nil
}

// InsertRun inserts a new run
func (h *RunsDBHandler) InsertRun(run *model.Run) error {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_run($1, $2, $3)`,
		run.ID,
		run.Config,
		run.Report,
	)

	err := row.Scan(
		&run.ID,
		&run.Config,
		&run.Report,
		&run.CreatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectRun retrieves a run by ID
func (h *RunsDBHandler) SelectRun(id uuid.UUID) (*model.Run, error) {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_run($1)`,
		id,
	)

	run := &model.Run{}
	err := row.Scan(
		&run.ID,
		&run.Config,
		&run.Report,
		&run.CreatedAt,
	)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return run, nil
}

// SelectLatestRun retrieves the most recently published run
func (h *RunsDBHandler) SelectLatestRun() (*model.Run, error) {
	row := h.db.Instance.QueryRow(`SELECT * FROM select_latest_run()`)

	run := &model.Run{}
	err := row.Scan(
		&run.ID,
		&run.Config,
		&run.Report,
		&run.CreatedAt,
	)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return run, nil
}

// SelectAllRuns retrieves all runs, newest first
func (h *RunsDBHandler) SelectAllRuns() ([]*model.Run, error) {
	rows, err := h.db.Instance.Query(`SELECT * FROM select_all_runs()`)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var runs []*model.Run
	for rows.Next() {
		run := &model.Run{}
		err := rows.Scan(
			&run.ID,
			&run.Config,
			&run.Report,
			&run.CreatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		runs = append(runs, run)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return runs, nil
}

// DeleteRun deletes a run together with its entities and relations
func (h *RunsDBHandler) DeleteRun(id uuid.UUID) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_run($1)`,
		id,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}
