package main

import (
	"github.com/spf13/cobra"

	"github.com/hannibalxking/movie-social-knowledge-graph/internal/platform/logger"
)

func newAnalyzeCmd(log *logger.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze",
		Short: "Run the configured graph analyses and print result rows",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			orch, client, err := setup(ctx, log)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close(ctx) }()

			results, err := orch.Analyze(ctx)
			if err != nil {
				return err
			}
			printResults(results)
			return nil
		},
	}
}
