package graph

import (
	"context"

	"github.com/hannibalxking/movie-social-knowledge-graph/internal/domain"
	"github.com/hannibalxking/movie-social-knowledge-graph/internal/platform/logger"
	"github.com/hannibalxking/movie-social-knowledge-graph/internal/platform/neo4jdb"
)

const mergeMoviesCypher = `
UNWIND $rows AS r
MERGE (m:Movie {title: r.title})
SET m.released = r.released, m.tagline = r.tagline
`

// linkGenresCypher matches both endpoints instead of merging them: a
// genre missing from the vocabulary must fail the load, not be created
// on the fly. The trailing count detects dropped rows.
const linkGenresCypher = `
UNWIND $links AS l
MATCH (m:Movie {title: l.title}), (g:Genre {name: l.genre})
MERGE (m)-[:IN_GENRE]->(g)
RETURN count(*)
`

// LoadMovies merges movies by title, refreshes released/tagline, and
// links each movie to its already-loaded genres. Requires the genre
// vocabulary from LoadReferenceData; a link to an unloaded genre is a
// dependency violation.
func LoadMovies(ctx context.Context, client *neo4jdb.Client, log *logger.Logger, movies []domain.Movie) error {
	movieRows := make([]map[string]any, 0, len(movies))
	linkRows := make([]map[string]any, 0, len(movies))
	for _, m := range movies {
		movieRows = append(movieRows, map[string]any{
			"title":    m.Title,
			"released": int64(m.Released),
			"tagline":  m.Tagline,
		})
		for _, g := range m.Genres {
			linkRows = append(linkRows, map[string]any{"title": m.Title, "genre": g})
		}
	}

	session := client.WriteSession(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4jTx) (any, error) {
		if len(movieRows) > 0 {
			if err := runWrite(ctx, tx, mergeMoviesCypher, map[string]any{"rows": movieRows}); err != nil {
				return nil, err
			}
		}
		if len(linkRows) > 0 {
			n, err := runCount(ctx, tx, linkGenresCypher, map[string]any{"links": linkRows})
			if err != nil {
				return nil, err
			}
			if err := expectMatched("link movie genres", n, len(linkRows)); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return asLoaderError("load movies", err)
	}
	if log != nil {
		log.Info("movies loaded", "movies", len(movieRows), "genre_links", len(linkRows))
	}
	return nil
}
