package graph

import (
	"context"

	"github.com/hannibalxking/movie-social-knowledge-graph/internal/platform/logger"
	"github.com/hannibalxking/movie-social-knowledge-graph/internal/platform/neo4jdb"
)

// schemaStatements declare the uniqueness and key constraints every
// merge relies on, plus the query-side indexes. All are IF NOT EXISTS
// so re-running is a no-op. Version.label deliberately has no
// constraint: it is a best-effort merge key only.
var schemaStatements = []string{
	`CREATE CONSTRAINT movie_title_unique IF NOT EXISTS FOR (m:Movie) REQUIRE m.title IS UNIQUE`,
	`CREATE CONSTRAINT person_name_unique IF NOT EXISTS FOR (p:Person) REQUIRE p.name IS UNIQUE`,
	`CREATE CONSTRAINT character_scope_key IF NOT EXISTS FOR (c:Character) REQUIRE (c.name, c.movie) IS NODE KEY`,
	`CREATE CONSTRAINT company_name_unique IF NOT EXISTS FOR (co:Company) REQUIRE co.name IS UNIQUE`,
	`CREATE CONSTRAINT genre_name_unique IF NOT EXISTS FOR (g:Genre) REQUIRE g.name IS UNIQUE`,
	`CREATE CONSTRAINT user_name_unique IF NOT EXISTS FOR (u:User) REQUIRE u.name IS UNIQUE`,
	`CREATE INDEX movie_year IF NOT EXISTS FOR (m:Movie) ON (m.released)`,
	`CREATE FULLTEXT INDEX movie_text IF NOT EXISTS FOR (m:Movie) ON EACH [m.title, m.tagline]`,
}

// EnsureSchema declares constraints and indexes before any data
// mutation. Schema statements run in their own auto-commit
// transactions; Neo4j does not allow them inside data transactions.
// Any failure is fatal for the run: without the constraints, concurrent
// merges could race and create duplicates.
func EnsureSchema(ctx context.Context, client *neo4jdb.Client, log *logger.Logger) error {
	session := client.WriteSession(ctx)
	defer session.Close(ctx)

	for _, stmt := range schemaStatements {
		res, err := session.Run(ctx, stmt, nil)
		if err != nil {
			return wrap(ErrSchema, "ensure schema", err)
		}
		if _, err := res.Consume(ctx); err != nil {
			return wrap(ErrSchema, "ensure schema", err)
		}
	}
	if log != nil {
		log.Debug("graph schema ensured", "statements", len(schemaStatements))
	}
	return nil
}
