// Package gds wraps the store's graph-algorithm surface: the projection
// catalog plus the two streaming algorithms used by the analyses.
package gds

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/hannibalxking/movie-social-knowledge-graph/internal/data/graph"
	"github.com/hannibalxking/movie-social-knowledge-graph/internal/platform/logger"
	"github.com/hannibalxking/movie-social-knowledge-graph/internal/platform/neo4jdb"
)

// ProjectionManager manages named ephemeral analytical subgraphs.
// Projection names are single-writer resources: callers drop before
// they create, and a name collision fails rather than overwrites.
type ProjectionManager struct {
	client *neo4jdb.Client
	log    *logger.Logger
}

func NewProjectionManager(client *neo4jdb.Client, log *logger.Logger) *ProjectionManager {
	return &ProjectionManager{client: client, log: log}
}

// Drop removes the named projection if present. Dropping a projection
// that does not exist is a no-op, not an error.
func (p *ProjectionManager) Drop(ctx context.Context, name string) error {
	session := p.client.WriteSession(ctx)
	defer session.Close(ctx)

	res, err := session.Run(ctx, `CALL gds.graph.drop($name, false)`, map[string]any{"name": name})
	if err != nil {
		return fmt.Errorf("drop projection %q: %w", name, err)
	}
	if _, err := res.Consume(ctx); err != nil {
		return fmt.Errorf("drop projection %q: %w", name, err)
	}
	return nil
}

// CreateNative builds a projection over one node label and one
// relationship type in its natural orientation. Fails with a
// projection-conflict error when the name is already in use.
func (p *ProjectionManager) CreateNative(ctx context.Context, name, nodeLabel, relType string) error {
	session := p.client.WriteSession(ctx)
	defer session.Close(ctx)

	if err := p.failIfExists(ctx, session, name); err != nil {
		return err
	}

	res, err := session.Run(ctx, `CALL gds.graph.project($name, $label, $rels)`, map[string]any{
		"name":  name,
		"label": nodeLabel,
		"rels":  map[string]any{relType: map[string]any{"orientation": "NATURAL"}},
	})
	if err != nil {
		return fmt.Errorf("create projection %q: %w", name, err)
	}
	if _, err := res.Consume(ctx); err != nil {
		return fmt.Errorf("create projection %q: %w", name, err)
	}
	if p.log != nil {
		p.log.Debug("projection created", "name", name, "label", nodeLabel, "relationship", relType)
	}
	return nil
}

// CreateCypher builds a projection from explicit node and relationship
// queries. Used for derived pair-relationships; the relationship query
// is responsible for emitting each pair exactly once (canonical
// smaller-id-first ordering).
func (p *ProjectionManager) CreateCypher(ctx context.Context, name, nodeQuery, relQuery string) error {
	session := p.client.WriteSession(ctx)
	defer session.Close(ctx)

	if err := p.failIfExists(ctx, session, name); err != nil {
		return err
	}

	res, err := session.Run(ctx,
		`CALL gds.graph.project.cypher($name, $nodeQuery, $relQuery)`,
		map[string]any{"name": name, "nodeQuery": nodeQuery, "relQuery": relQuery})
	if err != nil {
		return fmt.Errorf("create projection %q: %w", name, err)
	}
	if _, err := res.Consume(ctx); err != nil {
		return fmt.Errorf("create projection %q: %w", name, err)
	}
	if p.log != nil {
		p.log.Debug("cypher projection created", "name", name)
	}
	return nil
}

func (p *ProjectionManager) failIfExists(ctx context.Context, session neo4j.SessionWithContext, name string) error {
	exists, err := projectionExists(ctx, session, name)
	if err != nil {
		return err
	}
	if exists {
		return graph.ProjectionConflict(name)
	}
	return nil
}

func projectionExists(ctx context.Context, session neo4j.SessionWithContext, name string) (bool, error) {
	res, err := session.Run(ctx, `CALL gds.graph.exists($name) YIELD exists RETURN exists`, map[string]any{"name": name})
	if err != nil {
		return false, fmt.Errorf("check projection %q: %w", name, err)
	}
	rec, err := res.Single(ctx)
	if err != nil {
		return false, fmt.Errorf("check projection %q: %w", name, err)
	}
	exists, _ := rec.Values[0].(bool)
	return exists, nil
}
