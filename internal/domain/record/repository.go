package record

import (
	"context"
)

// Repository is the Record Store: the authoritative persistence for records.
type Repository interface {
	// Create inserts rec and sets rec.ID to the store-assigned key.
	// Keys are never reused, even after a delete.
	Create(ctx context.Context, rec *Record) error

	// GetByID retrieves a record. Returns a NOT_FOUND AppError if absent.
	GetByID(ctx context.Context, id int64) (*Record, error)

	// GetForUpdate retrieves a record and locks it until the surrounding
	// transaction ends (where the store supports row locks).
	GetForUpdate(ctx context.Context, id int64) (*Record, error)

	// Update overwrites the mutable columns of rec. id and created_at are
	// never written. Returns a NOT_FOUND AppError if the row is gone.
	Update(ctx context.Context, rec *Record) error

	// Delete removes the record. Returns a NOT_FOUND AppError if absent.
	Delete(ctx context.Context, id int64) error

	// List returns every record ordered by id.
	List(ctx context.Context) ([]*Record, error)
}

// Mirror receives every committed change so it can be copied to the
// secondary document store. Implementations must not fail the caller:
// errors are theirs to log.
type Mirror interface {
	// Upsert is called after a record was created or updated.
	Upsert(ctx context.Context, rec *Record)

	// Remove is called after a record was deleted.
	Remove(ctx context.Context, id int64)
}
