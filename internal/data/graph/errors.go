package graph

import (
	"errors"
	"fmt"
)

// Error kinds for the ingestion and analysis core. Callers match them
// with errors.Is; the concrete cause stays reachable through Unwrap.
var (
	// ErrSchema: a constraint or index declaration failed. Fatal;
	// loading must not start without the constraints that make
	// concurrent merges safe.
	ErrSchema = errors.New("schema declaration failed")

	// ErrTransaction: a loader's unit of work did not commit. No
	// partial state from that unit is visible.
	ErrTransaction = errors.New("transaction failed")

	// ErrProjectionConflict: the projection name is already in use.
	// Drop it first; names are single-writer resources.
	ErrProjectionConflict = errors.New("projection name already in use")

	// ErrProjectionNotFound: analytics requested against a projection
	// that does not exist.
	ErrProjectionNotFound = errors.New("projection not found")

	// ErrDependencyViolation: an edge descriptor referenced an entity
	// that was never loaded, so its merge matched nothing.
	ErrDependencyViolation = errors.New("referenced entity not loaded")
)

// ProjectionConflict reports a create against a name already in use.
func ProjectionConflict(name string) error {
	return wrap(ErrProjectionConflict, fmt.Sprintf("projection %q", name), nil)
}

// ProjectionNotFound reports analytics against a nonexistent projection.
func ProjectionNotFound(name string) error {
	return wrap(ErrProjectionNotFound, fmt.Sprintf("projection %q", name), nil)
}

// Error tags a cause with one of the kinds above and the operation that
// produced it.
type Error struct {
	kind error
	op   string
	err  error
}

func wrap(kind error, op string, err error) error {
	if err == nil {
		return &Error{kind: kind, op: op}
	}
	return &Error{kind: kind, op: op, err: err}
}

func (e *Error) Error() string {
	if e.err == nil {
		return fmt.Sprintf("%s: %v", e.op, e.kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.op, e.kind, e.err)
}

func (e *Error) Unwrap() []error {
	if e.err == nil {
		return []error{e.kind}
	}
	return []error{e.kind, e.err}
}
