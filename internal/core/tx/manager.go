// Package tx defines the unit-of-work contract used by ledger services.
// Services compose repository calls inside RunInTransaction; repositories pick
// the active transaction up from the context they receive.
package tx

import (
	"context"
)

// Manager runs a unit of work atomically.
type Manager interface {
	// RunInTransaction executes fn within a database transaction.
	// A non-nil error from fn rolls everything back; otherwise the work commits.
	// Implementations may re-run fn from scratch on lock contention, so fn
	// must not have side effects outside the transaction.
	//
	// Nested calls reuse the existing transaction from context.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReadOnlyManager extends Manager with read-only transaction support.
type ReadOnlyManager interface {
	Manager

	// ReadOnly executes fn in a read-only transaction, giving the read side
	// a consistent snapshot across several queries.
	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}
