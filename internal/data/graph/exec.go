package graph

import (
	"context"
	"errors"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

type neo4jTx = neo4j.ManagedTransaction

// asLoaderError classifies a loader failure. Dependency violations keep
// their kind; anything else is a failed unit of work whose cause is
// surfaced unmodified through Unwrap.
func asLoaderError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrDependencyViolation) {
		return err
	}
	return wrap(ErrTransaction, op, err)
}

func runWrite(ctx context.Context, tx neo4j.ManagedTransaction, cypher string, params map[string]any) error {
	res, err := tx.Run(ctx, cypher, params)
	if err != nil {
		return err
	}
	_, err = res.Consume(ctx)
	return err
}

// runCount runs a statement ending in RETURN count(*) and returns the
// count of rows that made it through the MATCH clauses.
func runCount(ctx context.Context, tx neo4j.ManagedTransaction, cypher string, params map[string]any) (int64, error) {
	res, err := tx.Run(ctx, cypher, params)
	if err != nil {
		return 0, err
	}
	rec, err := res.Single(ctx)
	if err != nil {
		return 0, err
	}
	n, ok := rec.Values[0].(int64)
	if !ok {
		return 0, fmt.Errorf("unexpected count type %T", rec.Values[0])
	}
	return n, nil
}

// expectMatched turns a short row count into a dependency violation: an
// edge batch whose MATCH clauses dropped rows referenced entities that
// were never loaded, and must not silently no-op.
func expectMatched(op string, got int64, want int) error {
	if got >= int64(want) {
		return nil
	}
	return wrap(ErrDependencyViolation, op, fmt.Errorf("matched %d of %d descriptor rows", got, want))
}
