package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChangeIndexType(t *testing.T) {
	database := initDB(t)

	_, err := NewRunsDBHandler(database, true)
	require.NoError(t, err, "Expected NewRunsDBHandler to not return an error")
	entitiesDbHandler, err := NewCanonicalEntitiesDBHandler(database, testEmbeddingDim, true)
	require.NoError(t, err, "Expected NewCanonicalEntitiesDBHandler to not return an error")

	ctx := context.Background()

	t.Run("Change index to HNSW with default options", func(t *testing.T) {
		err := entitiesDbHandler.ChangeIndexType(ctx, IndexHNSW, IndexOptions{})
		assert.NoError(t, err, "Expected ChangeIndexType to hnsw to not return an error")
	})

	t.Run("Change index to HNSW with custom options", func(t *testing.T) {
		err := entitiesDbHandler.ChangeIndexType(ctx, IndexHNSW, IndexOptions{M: 32, EfConstruction: 128})
		assert.NoError(t, err, "Expected ChangeIndexType to hnsw with custom options to not return an error")
	})

	t.Run("Change index to IVFFlat", func(t *testing.T) {
		err := entitiesDbHandler.ChangeIndexType(ctx, IndexIVFFlat, IndexOptions{Lists: 10})
		assert.NoError(t, err, "Expected ChangeIndexType to ivfflat to not return an error")
	})

	t.Run("Drop index", func(t *testing.T) {
		err := entitiesDbHandler.ChangeIndexType(ctx, IndexNone, IndexOptions{})
		assert.NoError(t, err, "Expected dropping the index to not return an error")
	})

	t.Run("Change index with unsupported index type", func(t *testing.T) {
		err := entitiesDbHandler.ChangeIndexType(ctx, IndexType("invalid"), IndexOptions{})
		assert.Error(t, err, "Expected error when using unsupported index type")
		assert.Contains(t, err.Error(), "unsupported index type")
	})
}

func TestIndexOptionsCreateStatement(t *testing.T) {
	t.Run("HNSW defaults", func(t *testing.T) {
		statement, err := IndexOptions{}.createStatement(IndexHNSW)
		require.NoError(t, err)
		assert.Contains(t, statement, "m = 16, ef_construction = 64")
	})

	t.Run("IVFFlat custom lists", func(t *testing.T) {
		statement, err := IndexOptions{Lists: 7}.createStatement(IndexIVFFlat)
		require.NoError(t, err)
		assert.Contains(t, statement, "lists = 7")
	})

	t.Run("None", func(t *testing.T) {
		statement, err := IndexOptions{}.createStatement(IndexNone)
		require.NoError(t, err)
		assert.Empty(t, statement)
	})
}
