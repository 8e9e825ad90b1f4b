package main

import (
	"github.com/spf13/cobra"

	"github.com/hannibalxking/movie-social-knowledge-graph/internal/platform/logger"
)

func newLoadCmd(log *logger.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "load",
		Short: "Run the full ingestion pipeline (schema guard and all loaders)",
		Long: `Runs the dependency-ordered ingestion pipeline. Re-running with the
same dataset is safe: every loader merges on identity keys, so nothing
is duplicated, except reviews, which are an append-only log and grow
the graph on every run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			orch, client, err := setup(ctx, log)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close(ctx) }()

			ds, err := resolveDataset()
			if err != nil {
				return err
			}
			return orch.Load(ctx, ds)
		},
	}
}
