package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/siherrmann/kgraph"
	"github.com/siherrmann/kgraph/core/retrieval"
	"github.com/siherrmann/kgraph/model"
	"github.com/spf13/cobra"
)

var errQueryOnly = errors.New("embedding is not available for snapshot queries")

func queryOnlyEmbedder(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, errQueryOnly
}

func newQueryCmd() *cobra.Command {
	var snapshotPath string

	queryCmd := &cobra.Command{
		Use:   "query",
		Short: "Query a snapshot written by build",
	}
	queryCmd.PersistentFlags().StringVarP(&snapshotPath, "snapshot", "s", "kgraph-out/graph.json", "Snapshot file")

	load := func(cmd *cobra.Command) (*kgraph.KGraph, error) {
		k, err := kgraph.NewKGraphWithLogger(queryOnlyEmbedder, model.DefaultBuildConfig(), nil, logger(cmd.ErrOrStderr()))
		if err != nil {
			return nil, err
		}
		if err := k.LoadFile(snapshotPath); err != nil {
			return nil, err
		}
		return k, nil
	}

	queryCmd.AddCommand(
		newEntitiesCmd(load),
		newRelationsCmd(load),
		newSearchCmd(load),
		newNeighborsCmd(load),
		newSummaryCmd(load),
		newAttributesCmd(load),
		newSimilarCmd(load),
		newRetrieveCmd(load),
	)
	return queryCmd
}

type loadFunc func(cmd *cobra.Command) (*kgraph.KGraph, error)

// stringFlag returns the flag value, nil when it was not set.
func stringFlag(cmd *cobra.Command, name string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	value, _ := cmd.Flags().GetString(name)
	return &value
}

func newEntitiesCmd(load loadFunc) *cobra.Command {
	entitiesCmd := &cobra.Command{
		Use:   "entities",
		Short: "List entity mentions matching the filters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := load(cmd)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), k.FilterEntities(retrieval.EntityFilter{
				Type:          stringFlag(cmd, "type"),
				Name:          stringFlag(cmd, "name"),
				ChunkID:       stringFlag(cmd, "chunk"),
				CanonicalName: stringFlag(cmd, "canonical"),
			}))
		},
	}
	entitiesCmd.Flags().String("type", "", "Exact entity type")
	entitiesCmd.Flags().String("name", "", "Name substring")
	entitiesCmd.Flags().String("chunk", "", "Exact chunk id")
	entitiesCmd.Flags().String("canonical", "", "Exact canonical name")
	return entitiesCmd
}

func newRelationsCmd(load loadFunc) *cobra.Command {
	relationsCmd := &cobra.Command{
		Use:   "relations",
		Short: "List relations matching the filters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := load(cmd)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), k.FilterRelations(retrieval.RelationFilter{
				Head:          stringFlag(cmd, "head"),
				Tail:          stringFlag(cmd, "tail"),
				Relation:      stringFlag(cmd, "relation"),
				ChunkID:       stringFlag(cmd, "chunk"),
				CanonicalHead: stringFlag(cmd, "canonical-head"),
				CanonicalTail: stringFlag(cmd, "canonical-tail"),
			}))
		},
	}
	relationsCmd.Flags().String("head", "", "Head substring")
	relationsCmd.Flags().String("tail", "", "Tail substring")
	relationsCmd.Flags().String("relation", "", "Relation substring")
	relationsCmd.Flags().String("chunk", "", "Exact chunk id")
	relationsCmd.Flags().String("canonical-head", "", "Exact canonical head")
	relationsCmd.Flags().String("canonical-tail", "", "Exact canonical tail")
	return relationsCmd
}

func newSearchCmd(load loadFunc) *cobra.Command {
	searchCmd := &cobra.Command{
		Use:   "search <keyword>...",
		Short: "Keyword search over entity mentions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := load(cmd)
			if err != nil {
				return err
			}
			fields, _ := cmd.Flags().GetStringSlice("fields")
			return printJSON(cmd.OutOrStdout(), k.SearchEntities(retrieval.SearchQuery{
				Keywords: args,
				Fields:   fields,
				Type:     stringFlag(cmd, "type"),
			}))
		},
	}
	searchCmd.Flags().String("type", "", "Exact entity type")
	searchCmd.Flags().StringSlice("fields", nil, "Fields to search, defaults to name and description")
	return searchCmd
}

func newNeighborsCmd(load loadFunc) *cobra.Command {
	neighborsCmd := &cobra.Command{
		Use:   "neighbors <name>",
		Short: "Nodes reachable from an entity within the hop limit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := load(cmd)
			if err != nil {
				return err
			}
			hops, _ := cmd.Flags().GetInt("hops")
			if depthFirst, _ := cmd.Flags().GetBool("depth-first"); depthFirst {
				return printJSON(cmd.OutOrStdout(), k.DepthFirst(args[0], hops))
			}
			return printJSON(cmd.OutOrStdout(), k.Neighbors(args[0], hops))
		},
	}
	neighborsCmd.Flags().Int("hops", 2, "Maximum number of hops")
	neighborsCmd.Flags().Bool("depth-first", false, "Walk depth first instead of breadth first")
	return neighborsCmd
}

func newSummaryCmd(load loadFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Number of entity mentions per type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := load(cmd)
			if err != nil {
				return err
			}
			summary := k.SummaryByType()
			for _, t := range retrieval.SortedTypes(summary) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\n", t, summary[t])
			}
			return nil
		},
	}
}

func newAttributesCmd(load loadFunc) *cobra.Command {
	attributesCmd := &cobra.Command{
		Use:   "attributes <type>",
		Short: "Attributes of the entities of one type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := load(cmd)
			if err != nil {
				return err
			}
			fields, _ := cmd.Flags().GetStringSlice("fields")
			limit, _ := cmd.Flags().GetInt("limit")
			return printJSON(cmd.OutOrStdout(), k.AttributesByType(args[0], fields, limit))
		},
	}
	attributesCmd.Flags().StringSlice("fields", nil, "Attribute fields, all when empty")
	attributesCmd.Flags().Int("limit", 0, "Maximum number of entities, 0 for all")
	return attributesCmd
}

func newSimilarCmd(load loadFunc) *cobra.Command {
	similarCmd := &cobra.Command{
		Use:   "similar <name>",
		Short: "Names with the most similar embeddings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := load(cmd)
			if err != nil {
				return err
			}
			top, _ := cmd.Flags().GetInt("top")
			return printJSON(cmd.OutOrStdout(), k.SimilarTo(args[0], top))
		},
	}
	similarCmd.Flags().Int("top", 5, "Number of results")
	return similarCmd
}

func newRetrieveCmd(load loadFunc) *cobra.Command {
	retrieveCmd := &cobra.Command{
		Use:   "retrieve <keyword>...",
		Short: "Rank canonical entities for the keywords",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := load(cmd)
			if err != nil {
				return err
			}
			method, _ := cmd.Flags().GetString("method")
			config := model.DefaultQueryConfig()
			config.MaxHops, _ = cmd.Flags().GetInt("hops")
			config.Limit, _ = cmd.Flags().GetInt("limit")

			return printJSON(cmd.OutOrStdout(), k.Retrieve(method, retrieval.SearchQuery{
				Keywords: args,
				Type:     stringFlag(cmd, "type"),
			}, config))
		},
	}
	retrieveCmd.Flags().String("method", kgraph.RetrieveMultiHop, "Retrieval method (keyword, multi_hop or entity_centric)")
	retrieveCmd.Flags().String("type", "", "Exact entity type")
	retrieveCmd.Flags().Int("hops", 2, "Maximum number of hops")
	retrieveCmd.Flags().Int("limit", 10, "Maximum number of results")
	return retrieveCmd
}
