package mcts

import "github.com/pkg/errors"

// EnvironmentError wraps a failure surfaced by an Environment call during a
// trial. It is non-fatal: the worker that observed it records the failure
// and aborts only that trial.
type EnvironmentError struct {
	cause error
}

func (e *EnvironmentError) Error() string { return "environment: " + e.cause.Error() }
func (e *EnvironmentError) Unwrap() error { return e.cause }

func wrapEnvironmentError(cause error) error {
	if cause == nil {
		return nil
	}
	return &EnvironmentError{cause: errors.WithStack(cause)}
}

// TreeInvariantError reports a programmer error: code asked GetChild for a
// key that does not exist. It is fatal: callers should let it panic rather
// than attempt to recover the tree's consistency.
type TreeInvariantError struct {
	cause error
}

func (e *TreeInvariantError) Error() string { return "tree invariant violated: " + e.cause.Error() }
func (e *TreeInvariantError) Unwrap() error { return e.cause }

func panicInvariant(format string, args ...any) {
	panic(&TreeInvariantError{cause: errors.Errorf(format, args...)})
}
