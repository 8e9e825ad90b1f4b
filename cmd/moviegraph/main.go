// Command moviegraph loads the movie/social knowledge graph and runs
// the graph analyses against it.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/hannibalxking/movie-social-knowledge-graph/internal/domain"
	"github.com/hannibalxking/movie-social-knowledge-graph/internal/observability"
	"github.com/hannibalxking/movie-social-knowledge-graph/internal/pipeline"
	"github.com/hannibalxking/movie-social-knowledge-graph/internal/platform/envutil"
	"github.com/hannibalxking/movie-social-knowledge-graph/internal/platform/logger"
	"github.com/hannibalxking/movie-social-knowledge-graph/internal/platform/neo4jdb"
)

var (
	version     = "0.1.0-dev"
	datasetPath string
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	_ = godotenv.Load()

	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	shutdown := observability.Init(ctx, log, observability.Config{
		ServiceName: "moviegraph",
		Environment: envutil.String("APP_ENV", "development"),
		Version:     version,
	})
	if shutdown != nil {
		defer func() { _ = shutdown(context.Background()) }()
	}

	rootCmd := &cobra.Command{
		Use:     "moviegraph",
		Short:   "Movie and social knowledge graph ingestion and analytics",
		Version: version,
	}
	rootCmd.PersistentFlags().StringVarP(&datasetPath, "dataset", "d", "", "Dataset YAML file (defaults to the embedded sample)")

	rootCmd.AddCommand(
		newLoadCmd(log),
		newAnalyzeCmd(log),
		newRunCmd(log),
	)

	return rootCmd.ExecuteContext(ctx)
}

// setup builds the long-lived store client and the orchestrator; the
// caller owns closing the client.
func setup(ctx context.Context, log *logger.Logger) (*pipeline.Orchestrator, *neo4jdb.Client, error) {
	client, err := neo4jdb.NewFromEnv(ctx, log)
	if err != nil {
		return nil, nil, err
	}
	spec, err := pipeline.LoadSpec()
	if err != nil {
		_ = client.Close(ctx)
		return nil, nil, err
	}
	orch, err := pipeline.New(client, log, spec)
	if err != nil {
		_ = client.Close(ctx)
		return nil, nil, err
	}
	return orch, client, nil
}

func resolveDataset() (*domain.Dataset, error) {
	if datasetPath != "" {
		return domain.LoadDataset(datasetPath)
	}
	return domain.SampleDataset()
}

func printResults(results []pipeline.AnalysisResult) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, res := range results {
		fmt.Fprintf(w, "\n== %s ==\n", res.Name)
		switch res.Algorithm {
		case pipeline.AlgorithmRankPropagation:
			fmt.Fprintln(w, "name\tscore")
			for _, r := range res.Ranks {
				fmt.Fprintf(w, "%s\t%.3f\n", r.Name, r.Score)
			}
		case pipeline.AlgorithmPairwiseSimilarity:
			fmt.Fprintln(w, "a\tb\tsimilarity")
			for _, r := range res.Similarities {
				fmt.Fprintf(w, "%s\t%s\t%.3f\n", r.A, r.B, r.Similarity)
			}
		}
	}
	_ = w.Flush()
}
