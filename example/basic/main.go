package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/siherrmann/kgraph"
	"github.com/siherrmann/kgraph/core/retrieval"
	"github.com/siherrmann/kgraph/helper"
	"github.com/siherrmann/kgraph/model"
)

func mention(chunk model.ChunkID, entityType, name string, attributes map[string]interface{}) model.EntityMention {
	return model.EntityMention{
		ChunkID:    chunk,
		Type:       entityType,
		Name:       name,
		Attributes: model.NewAttributes(attributes),
	}
}

func main() {
	entities := []model.EntityMention{
		mention("1", "Person", "Mr. Jones", map[string]interface{}{"role": "protagonist", "description": "owner of the Manor Farm"}),
		mention("1", "Location", "Animal Farm", map[string]interface{}{"description": "the farm after the rebellion"}),
		mention("2", "Person", "Jones", map[string]interface{}{"role": "villain"}),
		mention("2", "Animal", "Old Major", map[string]interface{}{"description": "a prize Middle White boar"}),
		mention("3", "Animal", "Boxer", map[string]interface{}{"description": "an enormous cart-horse", "gender": "male"}),
	}
	relations := []model.RelationMention{
		{ChunkID: "1", Head: "Mr. Jones", Relation: "possesses", Tail: model.SingleTail("Animal Farm")},
		{ChunkID: "2", Head: "Jones", Relation: "knows", Tail: model.SingleTail("Old Major")},
		{ChunkID: "3", Head: "Boxer", Relation: "locatedIn", Tail: model.ListTail("Animal Farm")},
	}

	// Local sentence transformer, downloaded on first use
	k, err := kgraph.NewDefaultKGraph(model.DefaultBuildConfig())
	if err != nil {
		log.Fatalf("Failed to create kgraph: %v", err)
	}

	report, err := k.Build(context.Background(), entities, relations)
	if err != nil {
		log.Fatalf("Failed to build graph: %v", err)
	}
	fmt.Printf("Built %d canonical entities, %d nodes and %d edges\n", report.CanonicalEntities, report.Nodes, report.Edges)

	if entity, ok := k.CanonicalEntity("Jones"); ok {
		fmt.Printf("\"Jones\" resolves to %q (members %v, roles %v)\n", entity.Name, entity.Members, entity.Attributes.Values("role"))
	}

	fmt.Println("\nNeighbors of Jones within two hops:")
	for _, n := range k.Neighbors("Jones", 2) {
		fmt.Printf("  %s (distance %d, path %v)\n", n.Name, n.Distance, n.Path)
	}

	location := "Location"
	fmt.Println("\nLocations matching \"farm\":")
	for _, m := range k.SearchEntities(retrieval.SearchQuery{Keywords: []string{"farm"}, Type: &location}) {
		fmt.Printf("  %s (chunk %s)\n", m.Name, m.ChunkID)
	}

	outDir, err := os.MkdirTemp("", "kgraph-basic-")
	if err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}
	paths, err := k.Export(outDir)
	if err != nil {
		log.Fatalf("Failed to export: %v", err)
	}
	fmt.Printf("\nExported %d files to %s\n", len(paths), outDir)

	// Publish into a throwaway PostgreSQL container
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	dbConfig := &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		Database: "database",
		Username: "user",
		Password: "password",
		Schema:   "public",
		SSLMode:  "disable",
	}
	db, err := helper.NewDatabase("kgraph", dbConfig, nil)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	run, err := k.Publish(context.Background(), db)
	if err != nil {
		log.Fatalf("Failed to publish: %v", err)
	}
	fmt.Printf("Published run %s\n", run.ID)

	fmt.Println("\nBasic example completed successfully!")
}
