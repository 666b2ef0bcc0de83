package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/siherrmann/kgraph"
	"github.com/siherrmann/kgraph/core/pipeline"
	"github.com/siherrmann/kgraph/core/retrieval"
	"github.com/siherrmann/kgraph/export"
	"github.com/siherrmann/kgraph/helper"
	"github.com/siherrmann/kgraph/model"
)

const farmSchema = `
entity_types: [Person, Animal, Location, Event]
relation_labels: [knows, locatedIn, possesses, participatesIn]
attribute_fields: [name, description, role, gender]
`

var entityDataset = []model.EntityChunk{
	{ChunkID: "1", Entities: []model.EntityRecord{
		{Type: "Person", Name: "Mr. Jones", Attributes: model.NewAttributes(map[string]interface{}{"role": "farmer"})},
		{Type: "Location", Name: "Manor Farm", Attributes: model.NewAttributes(map[string]interface{}{"description": "a farm in England"})},
	}},
	{ChunkID: "2", Entities: []model.EntityRecord{
		{Type: "Person", Name: "Jones", Attributes: model.NewAttributes(map[string]interface{}{"role": "drunkard"})},
		{Type: "Animal", Name: "Old Major", Attributes: model.NewAttributes(map[string]interface{}{"description": "the old boar", "gender": "male"})},
	}},
	{ChunkID: "3", Entities: []model.EntityRecord{
		{Type: "Person", Name: "Jones"},
		{Type: "Event", Name: "Rebellion", Attributes: model.NewAttributes(map[string]interface{}{"description": "the animals drive out Jones"})},
		{Type: "Animal", Name: "Snowball"},
		{Type: "Animal", Name: "Napoleon"},
	}},
}

var relationDataset = []model.RelationChunk{
	{ChunkID: "1", RelationSet: []model.RelationRecord{
		{Head: "Mr. Jones", Relation: "possesses", Tail: model.SingleTail("Manor Farm")},
	}},
	{ChunkID: "2", RelationSet: []model.RelationRecord{
		{Head: "Old Major", Relation: "locatedIn", Tail: model.SingleTail("Manor Farm")},
	}},
	{ChunkID: "3", RelationSet: []model.RelationRecord{
		{Head: "Jones", Relation: "participatesIn", Tail: model.SingleTail("Rebellion")},
		{Head: "Rebellion", Relation: "participatesIn", Tail: model.ListTail("Snowball", "Napoleon")},
	}},
}

func writeDataset(dir, name string, v interface{}) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("Failed to encode %s: %v", name, err)
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		log.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func main() {
	// KGRAPH_* variables select the provider, e.g. KGRAPH_EMBEDDING_PROVIDER=ollama
	helper.LoadEnv()
	config, err := model.NewBuildConfiguration()
	if err != nil {
		log.Fatalf("Failed to read build configuration: %v", err)
	}
	config.Strategy = model.StrategyMostFrequent

	schema, err := model.ParseSchema([]byte(farmSchema))
	if err != nil {
		log.Fatalf("Failed to parse schema: %v", err)
	}

	logger := helper.NewLogger(os.Stdout, slog.LevelInfo)
	embedder, err := pipeline.NewEmbedder(*config, logger)
	if err != nil {
		log.Fatalf("Failed to create embedder: %v", err)
	}

	writer, err := kgraph.NewKGraph(embedder, *config, schema)
	if err != nil {
		log.Fatalf("Failed to create kgraph: %v", err)
	}

	workDir, err := os.MkdirTemp("", "kgraph-advanced-")
	if err != nil {
		log.Fatalf("Failed to create work directory: %v", err)
	}
	defer os.RemoveAll(workDir)

	entityPath := writeDataset(workDir, "entities.json", entityDataset)
	relationPath := writeDataset(workDir, "relations.json", relationDataset)

	report, err := writer.BuildFromFiles(context.Background(), entityPath, relationPath)
	if err != nil {
		log.Fatalf("Failed to build graph: %v", err)
	}
	fmt.Printf("Run %s: %d mentions, %d canonical entities, %d edges (%d merged), %d excluded\n",
		report.RunID, report.EntityMentions, report.CanonicalEntities, report.Edges, report.MergedEdges, report.ExcludedEntities)

	outDir := filepath.Join(workDir, "out")
	if _, err := writer.Export(outDir); err != nil {
		log.Fatalf("Failed to export: %v", err)
	}

	// A second instance serves queries from the exported snapshot
	reader, err := kgraph.NewKGraph(embedder, *config, schema)
	if err != nil {
		log.Fatalf("Failed to create reader: %v", err)
	}
	if err := reader.LoadFile(filepath.Join(outDir, export.SnapshotFile)); err != nil {
		log.Fatalf("Failed to load snapshot: %v", err)
	}

	fmt.Println("\nEntities by type:")
	summary := reader.SummaryByType()
	for _, t := range retrieval.SortedTypes(summary) {
		fmt.Printf("  %-10s %d\n", t, summary[t])
	}

	query := retrieval.SearchQuery{Keywords: []string{"jones"}}
	queryConfig := model.DefaultQueryConfig()
	for _, method := range []string{kgraph.RetrieveKeyword, kgraph.RetrieveMultiHop, kgraph.RetrieveEntityCentric} {
		fmt.Printf("\n%s retrieval for \"jones\":\n", method)
		for _, r := range reader.Retrieve(method, query, queryConfig) {
			fmt.Printf("  %-12s score %.2f distance %d path %v\n", r.Name, r.Score, r.GraphDistance, r.Path)
		}
	}

	fmt.Println("\nAnimals:")
	for name, attributes := range reader.AttributesByType("Animal", []string{"description", "gender"}, 10) {
		fmt.Printf("  %s: %v\n", name, attributes)
	}

	fmt.Println("\nNames closest to \"Jones\":")
	for _, n := range reader.SimilarTo("Jones", 3) {
		fmt.Printf("  %s (%.3f)\n", n.Name, n.Score)
	}

	fmt.Println("\nAdvanced example completed successfully!")
}
