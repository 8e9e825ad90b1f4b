package graph

import (
	"context"

	"github.com/hannibalxking/movie-social-knowledge-graph/internal/domain"
	"github.com/hannibalxking/movie-social-knowledge-graph/internal/platform/logger"
	"github.com/hannibalxking/movie-social-knowledge-graph/internal/platform/neo4jdb"
)

const mergeGenresCypher = `
UNWIND $rows AS r
MERGE (:Genre {name: r.name})
`

const mergeCompaniesCypher = `
UNWIND $rows AS r
MERGE (co:Company {name: r.name})
SET co.founded = r.founded, co.country = r.country
`

// LoadReferenceData merges the genre vocabulary and the production
// companies. Neither depends on any other loaded data, so this is the
// first data stage after the schema. Re-running with the same input
// leaves the graph unchanged; non-key company attributes are refreshed
// on every run.
func LoadReferenceData(ctx context.Context, client *neo4jdb.Client, log *logger.Logger, genres []string, companies []domain.Company) error {
	genreRows := make([]map[string]any, 0, len(genres))
	for _, name := range genres {
		genreRows = append(genreRows, map[string]any{"name": name})
	}
	companyRows := make([]map[string]any, 0, len(companies))
	for _, c := range companies {
		companyRows = append(companyRows, map[string]any{
			"name":    c.Name,
			"founded": int64(c.Founded),
			"country": c.Country,
		})
	}

	session := client.WriteSession(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4jTx) (any, error) {
		if len(genreRows) > 0 {
			if err := runWrite(ctx, tx, mergeGenresCypher, map[string]any{"rows": genreRows}); err != nil {
				return nil, err
			}
		}
		if len(companyRows) > 0 {
			if err := runWrite(ctx, tx, mergeCompaniesCypher, map[string]any{"rows": companyRows}); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return asLoaderError("load reference data", err)
	}
	if log != nil {
		log.Info("reference data loaded", "genres", len(genreRows), "companies", len(companyRows))
	}
	return nil
}
