package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/siherrmann/kgraph"
	"github.com/siherrmann/kgraph/database"
	"github.com/siherrmann/kgraph/helper"
	"github.com/siherrmann/kgraph/model"
	"github.com/spf13/cobra"
)

type buildOptions struct {
	entities  string
	relations string
	out       string
	schema    string
	postgres  bool
	index     string
}

func newBuildCmd() *cobra.Command {
	opts := &buildOptions{}

	buildCmd := &cobra.Command{
		Use:   "build",
		Short: "Build a canonical knowledge graph from entity and relation datasets",
		Long: `Build reads the extracted entity and relation datasets, canonicalizes the
entity names and writes all artifacts into the output directory. Unset flags
fall back to the KGRAPH_* environment.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := model.NewBuildConfiguration()
			if err != nil {
				return err
			}
			if err := applyBuildFlags(cmd, config); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			return runBuild(ctx, cmd, *config, opts)
		},
	}

	flags := buildCmd.Flags()
	flags.StringVarP(&opts.entities, "entities", "e", "", "Entity dataset (JSON)")
	flags.StringVarP(&opts.relations, "relations", "r", "", "Relation dataset (JSON)")
	flags.StringVarP(&opts.out, "out", "o", "kgraph-out", "Output directory")
	flags.StringVar(&opts.schema, "schema", "", "Schema file (YAML), defaults to the story schema")
	flags.BoolVar(&opts.postgres, "postgres", false, "Publish the run to the PostgreSQL database configured by DB_*")
	flags.StringVar(&opts.index, "index", "", "Vector index after publishing (hnsw, ivfflat or none)")
	flags.Float64("threshold", 0, "Cosine similarity threshold for merging names")
	flags.String("strategy", "", "Canonical name strategy (longest or most_frequent)")
	flags.String("provider", "", "Embedding provider (hugot, ollama or openai)")
	flags.String("model", "", "Embedding model")
	flags.String("url", "", "Embedding service URL")
	_ = buildCmd.MarkFlagRequired("entities")
	_ = buildCmd.MarkFlagRequired("relations")

	return buildCmd
}

// applyBuildFlags overrides config with the flags set on the command line.
func applyBuildFlags(cmd *cobra.Command, config *model.BuildConfig) error {
	flags := cmd.Flags()
	if flags.Changed("threshold") {
		config.SimilarityThreshold, _ = flags.GetFloat64("threshold")
	}
	if flags.Changed("strategy") {
		strategy, _ := flags.GetString("strategy")
		config.Strategy = model.Strategy(strategy)
	}
	if flags.Changed("provider") {
		config.EmbeddingProvider, _ = flags.GetString("provider")
	}
	if flags.Changed("model") {
		config.EmbeddingModel, _ = flags.GetString("model")
	}
	if flags.Changed("url") {
		config.EmbeddingURL, _ = flags.GetString("url")
	}
	return config.Validate()
}

func runBuild(ctx context.Context, cmd *cobra.Command, config model.BuildConfig, opts *buildOptions) error {
	log := logger(cmd.ErrOrStderr())

	var schema *model.Schema
	if opts.schema != "" {
		var err error
		schema, err = model.LoadSchema(opts.schema)
		if err != nil {
			return err
		}
	}

	embedder, err := newEmbedder(config, log)
	if err != nil {
		return err
	}
	k, err := kgraph.NewKGraphWithLogger(embedder, config, schema, log)
	if err != nil {
		return err
	}

	report, err := k.BuildFromFiles(ctx, opts.entities, opts.relations)
	if err != nil {
		return err
	}

	paths, err := k.Export(opts.out)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s built in %s\n", report.RunID, report.Duration)
	fmt.Fprintf(out, "  entity mentions:    %d (%d names)\n", report.EntityMentions, report.Vocabulary)
	fmt.Fprintf(out, "  canonical entities: %d\n", report.CanonicalEntities)
	fmt.Fprintf(out, "  graph:              %d nodes, %d edges\n", report.Nodes, report.Edges)
	fmt.Fprintf(out, "  excluded entities:  %d\n", report.ExcludedEntities)
	fmt.Fprintf(out, "  dropped relations:  %d\n", report.DroppedRelations)
	for _, path := range paths {
		fmt.Fprintf(out, "Wrote %s\n", path)
	}

	if !opts.postgres {
		return nil
	}
	return publish(ctx, cmd, k, opts.index)
}

func publish(ctx context.Context, cmd *cobra.Command, k *kgraph.KGraph, index string) error {
	log := logger(cmd.ErrOrStderr())

	dbConfig, err := helper.NewDatabaseConfiguration()
	if err != nil {
		return err
	}
	db, err := helper.NewDatabase("kgraph", dbConfig, log)
	if err != nil {
		return err
	}
	defer db.Close()

	run, err := k.Publish(ctx, db)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Published run %s\n", run.ID)

	if index == "" {
		return nil
	}
	entities, err := database.NewCanonicalEntitiesDBHandler(db, k.Snapshot().Index.Dimension(), false)
	if err != nil {
		return err
	}
	return entities.ChangeIndexType(ctx, database.IndexType(index), database.IndexOptions{})
}
