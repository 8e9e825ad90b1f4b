package graph

import (
	"context"

	"github.com/hannibalxking/movie-social-knowledge-graph/internal/domain"
	"github.com/hannibalxking/movie-social-knowledge-graph/internal/platform/logger"
	"github.com/hannibalxking/movie-social-knowledge-graph/internal/platform/neo4jdb"
)

// Characters merge on the (name, movie) node key, so two movies can
// each have a character of the same name as distinct nodes. The movie
// must already exist.
const mergeCharactersCypher = `
UNWIND $rows AS r
MATCH (:Movie {title: r.movie})
MERGE (c:Character {name: r.name, movie: r.movie})
SET c.archetype = r.archetype
RETURN count(*)
`

const mergeActorsCypher = `
UNWIND $rows AS r
MERGE (p:Person {name: r.name})
SET p.born = r.born, p.nationality = r.nationality
`

const linkActedAsCypher = `
UNWIND $rows AS r
MATCH (p:Person {name: r.name}), (c:Character {name: r.character, movie: r.movie})
MERGE (p)-[a:ACTED_AS]->(c)
SET a.roles = r.roles, a.year = r.year
RETURN count(*)
`

// Directors are merged here because a director need not appear in any
// acting credit; the movie, however, must already be loaded.
const linkDirectedCypher = `
UNWIND $rows AS r
MERGE (p:Person {name: r.name})
WITH p, r
MATCH (m:Movie {title: r.movie})
MERGE (p)-[d:DIRECTED]->(m)
SET d.year = r.year
RETURN count(*)
`

// LoadPeople merges characters, actors, and directors, and links
// ACTED_AS and DIRECTED edges. Depends on movies being loaded: any
// credit or character referencing an unloaded movie is a dependency
// violation. Edge attributes (roles, year) refresh on reload.
func LoadPeople(ctx context.Context, client *neo4jdb.Client, log *logger.Logger, characters []domain.Character, actors []domain.ActingCredit, directors []domain.DirectingCredit) error {
	characterRows := make([]map[string]any, 0, len(characters))
	for _, c := range characters {
		characterRows = append(characterRows, map[string]any{
			"name":      c.Name,
			"movie":     c.Movie,
			"archetype": c.Archetype,
		})
	}
	actorRows := make([]map[string]any, 0, len(actors))
	for _, a := range actors {
		roles := a.Roles
		if len(roles) == 0 {
			roles = []string{a.Character}
		}
		actorRows = append(actorRows, map[string]any{
			"name":        a.Name,
			"born":        int64(a.Born),
			"nationality": a.Nationality,
			"character":   a.Character,
			"movie":       a.Movie,
			"roles":       roles,
			"year":        int64(a.Year),
		})
	}
	directorRows := make([]map[string]any, 0, len(directors))
	for _, d := range directors {
		directorRows = append(directorRows, map[string]any{
			"name":  d.Name,
			"movie": d.Movie,
			"year":  int64(d.Year),
		})
	}

	session := client.WriteSession(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4jTx) (any, error) {
		if len(characterRows) > 0 {
			n, err := runCount(ctx, tx, mergeCharactersCypher, map[string]any{"rows": characterRows})
			if err != nil {
				return nil, err
			}
			if err := expectMatched("merge characters", n, len(characterRows)); err != nil {
				return nil, err
			}
		}
		if len(actorRows) > 0 {
			if err := runWrite(ctx, tx, mergeActorsCypher, map[string]any{"rows": actorRows}); err != nil {
				return nil, err
			}
			n, err := runCount(ctx, tx, linkActedAsCypher, map[string]any{"rows": actorRows})
			if err != nil {
				return nil, err
			}
			if err := expectMatched("link acting credits", n, len(actorRows)); err != nil {
				return nil, err
			}
		}
		if len(directorRows) > 0 {
			n, err := runCount(ctx, tx, linkDirectedCypher, map[string]any{"rows": directorRows})
			if err != nil {
				return nil, err
			}
			if err := expectMatched("link directing credits", n, len(directorRows)); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return asLoaderError("load people", err)
	}
	if log != nil {
		log.Info("people loaded",
			"characters", len(characterRows),
			"actors", len(actorRows),
			"directors", len(directorRows))
	}
	return nil
}
