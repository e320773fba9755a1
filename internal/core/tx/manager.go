// Package tx provides transaction management abstractions.
// Domain services depend on Manager; the Postgres and SQLite stores
// each provide an implementation.
package tx

import (
	"context"
)

// Manager runs a unit of work inside one database transaction.
type Manager interface {
	// RunInTransaction executes fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn succeeds, the transaction is committed.
	//
	// Nested calls reuse the existing transaction from context.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReadOnlyManager extends Manager with read-only transaction support.
type ReadOnlyManager interface {
	Manager

	// ReadOnly executes fn in a read-only transaction.
	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}

// Passthrough runs fn directly without a transaction.
// For stores that have no transactional semantics, and for tests.
type Passthrough struct{}

// RunInTransaction implements Manager.
func (Passthrough) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// ReadOnly implements ReadOnlyManager.
func (Passthrough) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
