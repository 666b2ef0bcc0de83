// Package export writes build results to disk: canonicalized tables as CSV,
// canonical datasets and attributes as JSON, the graph as GraphML and a
// snapshot that can be reloaded for querying.
package export

import (
	"io"
	"os"
	"path/filepath"

	"github.com/siherrmann/kgraph/core/pipeline"
	"github.com/siherrmann/kgraph/helper"
)

// File names written by WriteAll.
const (
	EntitiesCSVFile         = "entities.csv"
	RelationsCSVFile        = "relations.csv"
	CanonicalEntitiesFile   = "canonical_entities.json"
	CanonicalRelationsFile  = "canonical_relations.json"
	CanonicalAttributesFile = "canonical_attributes.json"
	GraphMLFile             = "graph.graphml"
	ReportFile              = "report.json"
	SnapshotFile            = "graph.json"
)

// WriteAll writes every artifact of result into dir and returns the written paths.
func WriteAll(dir string, result *pipeline.Result) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, helper.NewError("create output directory", err)
	}

	writers := []struct {
		name  string
		write func(io.Writer) error
	}{
		{EntitiesCSVFile, func(w io.Writer) error { return WriteEntitiesCSV(w, result.Entities) }},
		{RelationsCSVFile, func(w io.Writer) error { return WriteRelationsCSV(w, result.Relations) }},
		{CanonicalEntitiesFile, func(w io.Writer) error { return WriteCanonicalEntities(w, result.Entities) }},
		{CanonicalRelationsFile, func(w io.Writer) error { return WriteCanonicalRelations(w, result.Relations) }},
		{CanonicalAttributesFile, func(w io.Writer) error { return WriteCanonicalAttributes(w, result.CanonicalEntities) }},
		{GraphMLFile, func(w io.Writer) error { return WriteGraphML(w, result.Graph) }},
		{ReportFile, func(w io.Writer) error { return WriteReport(w, result.Report) }},
		{SnapshotFile, func(w io.Writer) error { return WriteSnapshot(w, result) }},
	}

	paths := make([]string, 0, len(writers))
	for _, writer := range writers {
		path := filepath.Join(dir, writer.name)
		if err := writeFile(path, writer.write); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return helper.NewError("create "+filepath.Base(path), err)
	}
	defer file.Close()

	if err := write(file); err != nil {
		return err
	}
	return file.Close()
}
