package pipeline

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/hannibalxking/movie-social-knowledge-graph/internal/data/gds"
	"github.com/hannibalxking/movie-social-knowledge-graph/internal/data/graph"
	"github.com/hannibalxking/movie-social-knowledge-graph/internal/domain"
	"github.com/hannibalxking/movie-social-knowledge-graph/internal/platform/logger"
	"github.com/hannibalxking/movie-social-knowledge-graph/internal/platform/neo4jdb"
)

// Stage names bound to loaders. The YAML spec may reorder or disable
// them (within dependency constraints) but cannot invent new ones.
const (
	StageSchema        = "schema"
	StageReferenceData = "reference_data"
	StageMovies        = "movies"
	StageRelationships = "relationships"
	StageSocial        = "social_feedback"
	StageTemporal      = "temporal"
)

// Node and pair selection for the genre-similarity projection. The
// id(m1) < id(m2) guard emits each co-genre pair exactly once.
const (
	movieNodesQuery = `MATCH (m:Movie) RETURN id(m) AS id`

	sharedGenrePairsQuery = `MATCH (m1:Movie)-[:IN_GENRE]->(:Genre)<-[:IN_GENRE]-(m2:Movie) ` +
		`WHERE id(m1) < id(m2) ` +
		`RETURN id(m1) AS source, id(m2) AS target`
)

// Orchestrator sequences the loaders as one logical load, then the
// analyses. It is the sole abort-vs-continue decision point: the first
// failure stops the run and is surfaced with only the stage name added.
type Orchestrator struct {
	client      *neo4jdb.Client
	log         *logger.Logger
	spec        *Spec
	projections *gds.ProjectionManager
	analytics   *gds.AnalyticsRunner
	tracer      trace.Tracer
}

func New(client *neo4jdb.Client, log *logger.Logger, spec *Spec) (*Orchestrator, error) {
	for _, name := range spec.StageOrder() {
		if !knownStage(name) {
			return nil, fmt.Errorf("pipeline: no loader bound to stage %q", name)
		}
	}
	return &Orchestrator{
		client:      client,
		log:         log,
		spec:        spec,
		projections: gds.NewProjectionManager(client, log),
		analytics:   gds.NewAnalyticsRunner(client, log),
		tracer:      otel.Tracer("moviegraph/pipeline"),
	}, nil
}

func knownStage(name string) bool {
	switch name {
	case StageSchema, StageReferenceData, StageMovies, StageRelationships, StageSocial, StageTemporal:
		return true
	}
	return false
}

// Load runs every stage in dependency order. Each loader body is one
// transaction; re-running the whole load with the same dataset is safe.
// Only review nodes accumulate across runs.
func (o *Orchestrator) Load(ctx context.Context, ds *domain.Dataset) error {
	if err := ds.Validate(); err != nil {
		return err
	}
	for _, name := range o.spec.StageOrder() {
		if err := o.runStage(ctx, name, ds); err != nil {
			o.log.Error("stage failed; aborting pipeline", "stage", name, "error", err)
			return fmt.Errorf("stage %s: %w", name, err)
		}
	}
	o.log.Info("load complete", "stages", len(o.spec.StageOrder()))
	return nil
}

func (o *Orchestrator) runStage(ctx context.Context, name string, ds *domain.Dataset) error {
	ctx, span := o.tracer.Start(ctx, "stage."+name)
	defer span.End()

	var err error
	switch name {
	case StageSchema:
		err = graph.EnsureSchema(ctx, o.client, o.log)
	case StageReferenceData:
		err = graph.LoadReferenceData(ctx, o.client, o.log, ds.Genres, ds.Companies)
	case StageMovies:
		err = graph.LoadMovies(ctx, o.client, o.log, ds.Movies)
	case StageRelationships:
		err = graph.LoadPeople(ctx, o.client, o.log, ds.Characters, ds.Actors, ds.Directors)
	case StageSocial:
		err = graph.LoadSocial(ctx, o.client, o.log, ds.Users, ds.Reviews, ds.Follows)
	case StageTemporal:
		err = graph.LoadTemporal(ctx, o.client, o.log, ds.Releases, ds.Versions)
	default:
		err = fmt.Errorf("no loader bound to stage %q", name)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// AnalysisResult carries the rows of one completed analysis. Exactly
// one of Ranks and Similarities is populated, matching the algorithm.
type AnalysisResult struct {
	Name         string
	Algorithm    string
	Ranks        []gds.RankRow
	Similarities []gds.SimilarityRow
}

// Analyze runs every configured analysis: drop the projection name,
// create the projection, read the result set, then drop again. The
// leading drop is unconditional; a projection left over from a failed
// prior run would serve stale data.
func (o *Orchestrator) Analyze(ctx context.Context) ([]AnalysisResult, error) {
	results := make([]AnalysisResult, 0, len(o.spec.Analyses))
	for _, a := range o.spec.Analyses {
		res, err := o.runAnalysis(ctx, a)
		if err != nil {
			o.log.Error("analysis failed; aborting", "analysis", a.Name, "error", err)
			return nil, fmt.Errorf("analysis %s: %w", a.Name, err)
		}
		results = append(results, res)
	}
	return results, nil
}

func (o *Orchestrator) runAnalysis(ctx context.Context, a AnalysisSpec) (AnalysisResult, error) {
	ctx, span := o.tracer.Start(ctx, "analysis."+a.Name)
	defer span.End()

	res := AnalysisResult{Name: a.Name, Algorithm: a.Algorithm}

	fail := func(err error) (AnalysisResult, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return res, err
	}

	if err := o.projections.Drop(ctx, a.Projection); err != nil {
		return fail(err)
	}

	switch a.Algorithm {
	case AlgorithmRankPropagation:
		if err := o.projections.CreateNative(ctx, a.Projection, a.NodeLabel, a.Relationship); err != nil {
			return fail(err)
		}
		rows, err := o.analytics.PageRank(ctx, a.Projection)
		if err != nil {
			return fail(err)
		}
		res.Ranks = rows
	case AlgorithmPairwiseSimilarity:
		if err := o.projections.CreateCypher(ctx, a.Projection, movieNodesQuery, sharedGenrePairsQuery); err != nil {
			return fail(err)
		}
		rows, err := o.analytics.NodeSimilarity(ctx, a.Projection, a.Cutoff, a.Limit)
		if err != nil {
			return fail(err)
		}
		res.Similarities = rows
	default:
		return fail(fmt.Errorf("unknown algorithm %q", a.Algorithm))
	}

	if err := o.projections.Drop(ctx, a.Projection); err != nil {
		o.log.Warn("projection cleanup failed", "projection", a.Projection, "error", err)
	}
	return res, nil
}
