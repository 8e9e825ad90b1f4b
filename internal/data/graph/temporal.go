package graph

import (
	"context"

	"github.com/hannibalxking/movie-social-knowledge-graph/internal/domain"
	"github.com/hannibalxking/movie-social-knowledge-graph/internal/platform/logger"
	"github.com/hannibalxking/movie-social-knowledge-graph/internal/platform/neo4jdb"
)

// The RELEASED_IN edge carries a denormalized copy of the release's
// (region, date) key. Copying from the merged node itself, in the same
// statement, keeps the edge properties and node properties from ever
// diverging; the store does not enforce that structurally.
const mergeReleasesCypher = `
UNWIND $rows AS r
MERGE (rel:Release {region: r.region, date: date(r.date)})
WITH rel, r
MATCH (m:Movie {title: r.movie})
MERGE (m)-[e:RELEASED_IN]->(rel)
SET e.region = rel.region, e.date = rel.date
RETURN count(*)
`

// Version.label is a best-effort unique merge key (no constraint backs
// it); releaseDate refreshes on reload and the HAS_VERSION edge carries
// the same denormalized copy, taken from the node.
const mergeVersionsCypher = `
UNWIND $rows AS r
MERGE (v:Version {label: r.label})
SET v.releaseDate = date(r.release_date)
WITH v, r
MATCH (m:Movie {title: r.movie})
MERGE (m)-[e:HAS_VERSION]->(v)
SET e.releaseDate = v.releaseDate
RETURN count(*)
`

// LoadTemporal merges regional releases and alternate versions and
// links them to their movies. Depends on movies being loaded; a release
// or version referencing an unloaded movie is a dependency violation.
func LoadTemporal(ctx context.Context, client *neo4jdb.Client, log *logger.Logger, releases []domain.Release, versions []domain.Version) error {
	releaseRows := make([]map[string]any, 0, len(releases))
	for _, r := range releases {
		releaseRows = append(releaseRows, map[string]any{
			"movie":  r.Movie,
			"region": r.Region,
			"date":   r.Date,
		})
	}
	versionRows := make([]map[string]any, 0, len(versions))
	for _, v := range versions {
		versionRows = append(versionRows, map[string]any{
			"movie":        v.Movie,
			"label":        v.Label,
			"release_date": v.ReleaseDate,
		})
	}

	session := client.WriteSession(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4jTx) (any, error) {
		if len(releaseRows) > 0 {
			n, err := runCount(ctx, tx, mergeReleasesCypher, map[string]any{"rows": releaseRows})
			if err != nil {
				return nil, err
			}
			if err := expectMatched("merge releases", n, len(releaseRows)); err != nil {
				return nil, err
			}
		}
		if len(versionRows) > 0 {
			n, err := runCount(ctx, tx, mergeVersionsCypher, map[string]any{"rows": versionRows})
			if err != nil {
				return nil, err
			}
			if err := expectMatched("merge versions", n, len(versionRows)); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return asLoaderError("load temporal", err)
	}
	if log != nil {
		log.Info("temporal data loaded", "releases", len(releaseRows), "versions", len(versionRows))
	}
	return nil
}
