package graph

import (
	"context"

	"github.com/google/uuid"

	"github.com/hannibalxking/movie-social-knowledge-graph/internal/domain"
	"github.com/hannibalxking/movie-social-knowledge-graph/internal/platform/logger"
	"github.com/hannibalxking/movie-social-knowledge-graph/internal/platform/neo4jdb"
)

const mergeUsersCypher = `
UNWIND $rows AS r
MERGE (:User {name: r.name})
`

// createReviewsCypher is the one deliberately non-idempotent statement
// in the pipeline: reviews are an append-only log, so the Review node
// is CREATEd, never merged. Each row carries a fresh generated id.
// Loading the same review descriptor N times yields N Review nodes.
const createReviewsCypher = `
UNWIND $rows AS r
MATCH (u:User {name: r.user}), (m:Movie {title: r.movie})
CREATE (rev:Review {id: r.id, rating: r.rating, date: date(r.date), comment: r.comment})
MERGE (u)-[:WROTE]->(rev)
MERGE (m)<-[:FOR_MOVIE]-(rev)
RETURN count(*)
`

// mergeFollowsCypher sets since only when the edge is first created:
// the first observed timestamp wins and reloads never move it.
const mergeFollowsCypher = `
UNWIND $rows AS r
MATCH (a:User {name: r.follower}), (b:User {name: r.followee})
MERGE (a)-[f:FOLLOWS]->(b)
ON CREATE SET f.since = date(r.since)
RETURN count(*)
`

// LoadSocial merges users and FOLLOWS edges and appends reviews.
// Everything here except review creation is idempotent; review rows
// grow the graph on every call. Reviews and follows
// referencing users or movies that were never loaded are dependency
// violations.
func LoadSocial(ctx context.Context, client *neo4jdb.Client, log *logger.Logger, users []string, reviews []domain.Review, follows []domain.Follow) error {
	userRows := make([]map[string]any, 0, len(users))
	for _, name := range users {
		userRows = append(userRows, map[string]any{"name": name})
	}
	reviewRows := reviewParamRows(reviews)
	followRows := make([]map[string]any, 0, len(follows))
	for _, f := range follows {
		followRows = append(followRows, map[string]any{
			"follower": f.Follower,
			"followee": f.Followee,
			"since":    f.Since,
		})
	}

	session := client.WriteSession(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4jTx) (any, error) {
		if len(userRows) > 0 {
			if err := runWrite(ctx, tx, mergeUsersCypher, map[string]any{"rows": userRows}); err != nil {
				return nil, err
			}
		}
		if len(reviewRows) > 0 {
			n, err := runCount(ctx, tx, createReviewsCypher, map[string]any{"rows": reviewRows})
			if err != nil {
				return nil, err
			}
			if err := expectMatched("create reviews", n, len(reviewRows)); err != nil {
				return nil, err
			}
		}
		if len(followRows) > 0 {
			n, err := runCount(ctx, tx, mergeFollowsCypher, map[string]any{"rows": followRows})
			if err != nil {
				return nil, err
			}
			if err := expectMatched("merge follows", n, len(followRows)); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return asLoaderError("load social", err)
	}
	if log != nil {
		log.Info("social data loaded",
			"users", len(userRows),
			"reviews", len(reviewRows),
			"follows", len(followRows))
	}
	return nil
}

// reviewParamRows assigns each review descriptor a fresh identity. Two
// calls with the same input produce distinct rows on purpose.
func reviewParamRows(reviews []domain.Review) []map[string]any {
	rows := make([]map[string]any, 0, len(reviews))
	for _, r := range reviews {
		rows = append(rows, map[string]any{
			"id":      uuid.NewString(),
			"user":    r.User,
			"movie":   r.Movie,
			"rating":  int64(r.Rating),
			"date":    r.Date,
			"comment": r.Comment,
		})
	}
	return rows
}
