package database

import (
	"context"
	"fmt"
	"time"

	"github.com/siherrmann/kgraph/helper"
)

// IndexType is the kind of vector index on canonical entity embeddings.
type IndexType string

const (
	IndexHNSW    IndexType = "hnsw"
	IndexIVFFlat IndexType = "ivfflat"
	// IndexNone drops the index, searches fall back to a sequential scan.
	IndexNone IndexType = "none"
)

// IndexOptions are the build parameters of the vector index.
// Zero values are replaced by the pgvector defaults.
type IndexOptions struct {
	M              int
	EfConstruction int
	Lists          int
}

func (o IndexOptions) createStatement(indexType IndexType) (string, error) {
	switch indexType {
	case IndexHNSW:
		m, efConstruction := o.M, o.EfConstruction
		if m <= 0 {
			m = 16
		}
		if efConstruction <= 0 {
			efConstruction = 64
		}
		return fmt.Sprintf(
			`CREATE INDEX idx_canonical_entities_embedding ON canonical_entities USING hnsw (embedding vector_cosine_ops) WITH (m = %d, ef_construction = %d);`,
			m, efConstruction,
		), nil
	case IndexIVFFlat:
		lists := o.Lists
		if lists <= 0 {
			lists = 100
		}
		return fmt.Sprintf(
			`CREATE INDEX idx_canonical_entities_embedding ON canonical_entities USING ivfflat (embedding vector_cosine_ops) WITH (lists = %d);`,
			lists,
		), nil
	case IndexNone:
		return "", nil
	}
	return "", fmt.Errorf("unsupported index type: %s (use 'hnsw', 'ivfflat' or 'none')", indexType)
}

// ChangeIndexType replaces the vector index on the canonical entity embeddings.
func (h *CanonicalEntitiesDBHandler) ChangeIndexType(ctx context.Context, indexType IndexType, options IndexOptions) error {
	createIndexSQL, err := options.createStatement(indexType)
	if err != nil {
		return helper.NewError("change index type", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	_, err = h.db.Instance.ExecContext(ctx, `DROP INDEX IF EXISTS idx_canonical_entities_embedding;`)
	if err != nil {
		return helper.NewError("drop index", err)
	}

	if createIndexSQL == "" {
		h.db.Logger.Info("Dropped vector index")
		return nil
	}

	_, err = h.db.Instance.ExecContext(ctx, createIndexSQL)
	if err != nil {
		return helper.NewError("create index", err)
	}

	h.db.Logger.Info(fmt.Sprintf("Created %s index with options: %+v", indexType, options))

	return nil
}
