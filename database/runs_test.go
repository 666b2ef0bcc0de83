package database

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/kgraph/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunsNewRunsDBHandler(t *testing.T) {
	database := initDB(t)

	t.Run("Valid call NewRunsDBHandler", func(t *testing.T) {
		runsDbHandler, err := NewRunsDBHandler(database, true)
		assert.NoError(t, err, "Expected NewRunsDBHandler to not return an error")
		require.NotNil(t, runsDbHandler, "Expected NewRunsDBHandler to return a non-nil instance")
		require.NotNil(t, runsDbHandler.db, "Expected NewRunsDBHandler to have a non-nil database instance")
	})

	t.Run("Invalid call NewRunsDBHandler with nil database", func(t *testing.T) {
		_, err := NewRunsDBHandler(nil, false)
		assert.Error(t, err, "Expected error when creating RunsDBHandler with nil database")
		assert.Contains(t, err.Error(), "database connection is nil", "Expected specific error message for nil database connection")
	})
}

func TestRunsInsertAndSelect(t *testing.T) {
	database := initDB(t)

	runsDbHandler, err := NewRunsDBHandler(database, true)
	require.NoError(t, err, "Expected NewRunsDBHandler to not return an error")

	t.Run("Insert run", func(t *testing.T) {
		run := &model.Run{
			ID:     uuid.New(),
			Config: model.Metadata{"similarity_threshold": 0.95, "strategy": "longest"},
			Report: model.Metadata{"canonical_entities": 4},
		}

		err := runsDbHandler.InsertRun(run)
		assert.NoError(t, err, "Expected InsertRun to not return an error")
		assert.WithinDuration(t, time.Now(), run.CreatedAt, 5*time.Second, "Expected CreatedAt to be set")
		assert.Equal(t, "longest", run.Config["strategy"], "Expected config to be returned")

		selected, err := runsDbHandler.SelectRun(run.ID)
		require.NoError(t, err, "Expected SelectRun to not return an error")
		assert.Equal(t, run.ID, selected.ID, "Expected same run id")
		assert.Equal(t, float64(4), selected.Report["canonical_entities"], "Expected report to be stored")

		err = runsDbHandler.DeleteRun(run.ID)
		assert.NoError(t, err, "Expected DeleteRun to not return an error")
	})

	t.Run("Insert duplicate run id", func(t *testing.T) {
		run := insertTestRun(t, runsDbHandler)

		err := runsDbHandler.InsertRun(&model.Run{ID: run.ID})
		assert.Error(t, err, "Expected error for a duplicate run id")
	})

	t.Run("Select latest and all runs", func(t *testing.T) {
		first := insertTestRun(t, runsDbHandler)
		time.Sleep(10 * time.Millisecond)
		second := insertTestRun(t, runsDbHandler)

		latest, err := runsDbHandler.SelectLatestRun()
		require.NoError(t, err, "Expected SelectLatestRun to not return an error")
		assert.Equal(t, second.ID, latest.ID, "Expected the newest run")

		runs, err := runsDbHandler.SelectAllRuns()
		require.NoError(t, err, "Expected SelectAllRuns to not return an error")
		ids := make([]uuid.UUID, 0, len(runs))
		for _, r := range runs {
			ids = append(ids, r.ID)
		}
		assert.Contains(t, ids, first.ID, "Expected first run to be listed")
		assert.Contains(t, ids, second.ID, "Expected second run to be listed")
	})

	t.Run("Select deleted run", func(t *testing.T) {
		run := insertTestRun(t, runsDbHandler)
		err := runsDbHandler.DeleteRun(run.ID)
		require.NoError(t, err)

		_, err = runsDbHandler.SelectRun(run.ID)
		assert.Error(t, err, "Expected error when selecting a deleted run")
	})
}
