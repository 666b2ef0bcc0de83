package main

import (
	"encoding/json"
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/siherrmann/kgraph/core/pipeline"
	"github.com/siherrmann/kgraph/helper"
	"github.com/spf13/cobra"
)

// newEmbedder is replaced in tests.
var newEmbedder = pipeline.NewEmbedder

var verbose bool

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "kgraph",
		Short: "Canonical knowledge graphs from extracted entities and relations",
		Long: `kgraph merges entity mentions that name the same real-world entity,
rewrites relations onto the canonical names and builds a queryable knowledge graph.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	rootCmd.AddCommand(newBuildCmd(), newQueryCmd())
	return rootCmd
}

func logger(out io.Writer) *slog.Logger {
	level := helper.GetEnvLogLevel("KGRAPH_LOG_LEVEL", slog.LevelInfo)
	if verbose {
		level = slog.LevelDebug
	}
	return helper.NewLogger(out, level)
}

func printJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func main() {
	helper.LoadEnv()

	if err := newRootCmd().Execute(); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}
