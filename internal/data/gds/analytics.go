package gds

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/hannibalxking/movie-social-knowledge-graph/internal/data/graph"
	"github.com/hannibalxking/movie-social-knowledge-graph/internal/platform/logger"
	"github.com/hannibalxking/movie-social-knowledge-graph/internal/platform/neo4jdb"
)

// RankRow is one rank-propagation result: a node identity and its
// score, rounded to 3 decimals. Rows arrive ordered by descending
// score; tie order is store-native and unspecified.
type RankRow struct {
	Name  string
	Score float64
}

// SimilarityRow is one pairwise-similarity result. Each unordered pair
// appears at most once.
type SimilarityRow struct {
	A          string
	B          string
	Similarity float64
}

// AnalyticsRunner executes one named algorithm against an existing
// projection and materializes a bounded result set. Results are read in
// read-only transactions and never restart as a live stream.
type AnalyticsRunner struct {
	client *neo4jdb.Client
	log    *logger.Logger
}

func NewAnalyticsRunner(client *neo4jdb.Client, log *logger.Logger) *AnalyticsRunner {
	return &AnalyticsRunner{client: client, log: log}
}

const pageRankCypher = `
CALL gds.pageRank.stream($name)
YIELD nodeId, score
RETURN gds.util.asNode(nodeId).name AS name, round(score, 3) AS score
ORDER BY score DESC
`

// PageRank runs rank propagation over the named projection. An empty
// projection yields an empty slice, not an error; a missing projection
// is a projection-not-found error.
func (r *AnalyticsRunner) PageRank(ctx context.Context, projection string) ([]RankRow, error) {
	session := r.client.ReadSession(ctx)
	defer session.Close(ctx)

	if err := r.requireProjection(ctx, session, projection); err != nil {
		return nil, err
	}

	records, err := collect(ctx, session, pageRankCypher, map[string]any{"name": projection})
	if err != nil {
		return nil, fmt.Errorf("rank propagation on %q: %w", projection, err)
	}

	rows := make([]RankRow, 0, len(records))
	for _, rec := range records {
		name, _ := rec.Values[0].(string)
		score, _ := rec.Values[1].(float64)
		rows = append(rows, RankRow{Name: name, Score: score})
	}
	return rows, nil
}

const nodeSimilarityCypher = `
CALL gds.nodeSimilarity.stream($name, {similarityCutoff: $cutoff})
YIELD node1, node2, similarity
RETURN gds.util.asNode(node1).title AS a,
       gds.util.asNode(node2).title AS b,
       round(similarity, 3) AS sim
ORDER BY sim DESC
LIMIT $limit
`

// NodeSimilarity runs pairwise similarity over the named projection,
// excluding pairs below cutoff and capping the result at limit.
func (r *AnalyticsRunner) NodeSimilarity(ctx context.Context, projection string, cutoff float64, limit int) ([]SimilarityRow, error) {
	session := r.client.ReadSession(ctx)
	defer session.Close(ctx)

	if err := r.requireProjection(ctx, session, projection); err != nil {
		return nil, err
	}

	records, err := collect(ctx, session, nodeSimilarityCypher, map[string]any{
		"name":   projection,
		"cutoff": cutoff,
		"limit":  int64(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("pairwise similarity on %q: %w", projection, err)
	}

	rows := make([]SimilarityRow, 0, len(records))
	for _, rec := range records {
		a, _ := rec.Values[0].(string)
		b, _ := rec.Values[1].(string)
		sim, _ := rec.Values[2].(float64)
		rows = append(rows, SimilarityRow{A: a, B: b, Similarity: sim})
	}
	return rows, nil
}

func (r *AnalyticsRunner) requireProjection(ctx context.Context, session neo4j.SessionWithContext, name string) error {
	exists, err := projectionExists(ctx, session, name)
	if err != nil {
		return err
	}
	if !exists {
		return graph.ProjectionNotFound(name)
	}
	return nil
}

func collect(ctx context.Context, session neo4j.SessionWithContext, cypher string, params map[string]any) ([]*neo4j.Record, error) {
	res, err := session.Run(ctx, cypher, params)
	if err != nil {
		return nil, err
	}
	return res.Collect(ctx)
}
