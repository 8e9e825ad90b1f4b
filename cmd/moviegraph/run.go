package main

import (
	"github.com/spf13/cobra"

	"github.com/hannibalxking/movie-social-knowledge-graph/internal/platform/logger"
)

func newRunCmd(log *logger.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Load the graph, then run both analyses",
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
			if err := orch.Load(ctx, ds); err != nil {
				return err
			}
			results, err := orch.Analyze(ctx)
			if err != nil {
				return err
			}
			printResults(results)
			return nil
		},
	}
}
