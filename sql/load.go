package sql

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log"
)

//go:embed init.sql
var initSQL string

//go:embed runs.sql
var runsSQL string

//go:embed canonical_entities.sql
var canonicalEntitiesSQL string

//go:embed canonical_relations.sql
var canonicalRelationsSQL string

// Function lists for verification
var RunsFunctions = []string{
	"init_runs",
	"insert_run",
	"select_run",
	"select_latest_run",
	"select_all_runs",
	"delete_run",
}

var CanonicalEntitiesFunctions = []string{
	"init_canonical_entities",
	"insert_canonical_entity",
	"select_canonical_entity",
	"select_canonical_entities",
	"select_canonical_entities_by_type",
	"select_canonical_entities_by_similarity",
	"delete_canonical_entities",
}

var CanonicalRelationsFunctions = []string{
	"init_canonical_relations",
	"insert_canonical_relation",
	"select_canonical_relations",
	"select_canonical_relations_of_entity",
	"delete_canonical_relations",
}

// Init intializes db extensions
func Init(db *sql.DB) error {
	_, err := db.Exec(initSQL)
	if err != nil {
		return fmt.Errorf("error executing schema SQL: %w", err)
	}

	log.Println("Database extensions initialized successfully")
	return nil
}

// LoadRunsSql loads run-related SQL functions
func LoadRunsSql(db *sql.DB, force bool) error {
	return loadSql(db, "runs", runsSQL, RunsFunctions, force)
}

// LoadCanonicalEntitiesSql loads canonical entity SQL functions
func LoadCanonicalEntitiesSql(db *sql.DB, force bool) error {
	return loadSql(db, "canonical entities", canonicalEntitiesSQL, CanonicalEntitiesFunctions, force)
}

// LoadCanonicalRelationsSql loads canonical relation SQL functions
func LoadCanonicalRelationsSql(db *sql.DB, force bool) error {
	return loadSql(db, "canonical relations", canonicalRelationsSQL, CanonicalRelationsFunctions, force)
}

// LoadAllSql loads all SQL functions
func LoadAllSql(db *sql.DB, force bool) error {
	if err := LoadRunsSql(db, force); err != nil {
		return err
	}

	if err := LoadCanonicalEntitiesSql(db, force); err != nil {
		return err
	}

	if err := LoadCanonicalRelationsSql(db, force); err != nil {
		return err
	}

	return nil
}

func loadSql(db *sql.DB, name string, script string, functions []string, force bool) error {
	if !force {
		exist, err := checkFunctions(db, functions)
		if err != nil {
			return fmt.Errorf("error checking existing %s functions: %w", name, err)
		}
		if exist {
			return nil
		}
	}

	_, err := db.Exec(script)
	if err != nil {
		return fmt.Errorf("error executing %s SQL: %w", name, err)
	}

	exist, err := checkFunctions(db, functions)
	if err != nil {
		return fmt.Errorf("error checking existing functions: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required SQL functions were created")
	}

	log.Printf("SQL %s functions loaded successfully", name)
	return nil
}

// checkFunctions verifies that all required functions exist in the database
func checkFunctions(db *sql.DB, sqlFunctions []string) (bool, error) {
	var allExist bool
	for _, f := range sqlFunctions {
		err := db.QueryRow(
			`SELECT EXISTS(SELECT 1 FROM pg_proc WHERE proname = $1);`,
			f,
		).Scan(&allExist)
		if err != nil {
			return false, fmt.Errorf("error checking existence of function %s: %w", f, err)
		}
		if !allExist {
			log.Printf("Function %s does not exist", f)
			break
		}
	}
	return allExist, nil
}
