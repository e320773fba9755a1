// Package testutil provides in-memory collaborators for tests.
package testutil

import (
	"context"
	"sync"

	"studentrecords/internal/core/apperror"
	"studentrecords/internal/domain/record"
)

var _ record.Repository = (*RecordRepo)(nil)

// RecordRepo is an in-memory record.Repository.
// Ids start at 1 and are never reused.
type RecordRepo struct {
	mu     sync.Mutex
	lastID int64
	rows   map[int64]record.Record

	// Err, when set, is returned by every write.
	Err error
}

// NewRecordRepo creates an empty repository.
func NewRecordRepo() *RecordRepo {
	return &RecordRepo{rows: make(map[int64]record.Record)}
}

// Create implements record.Repository.
func (r *RecordRepo) Create(_ context.Context, rec *record.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.lastID++
	rec.ID = r.lastID
	r.rows[rec.ID] = *rec
	return nil
}

// GetByID implements record.Repository.
func (r *RecordRepo) GetByID(_ context.Context, id int64) (*record.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, apperror.NewNotFound("student_records", id)
	}
	return &row, nil
}

// GetForUpdate implements record.Repository.
func (r *RecordRepo) GetForUpdate(ctx context.Context, id int64) (*record.Record, error) {
	return r.GetByID(ctx, id)
}

// Update implements record.Repository. Only mutable columns are written.
func (r *RecordRepo) Update(_ context.Context, rec *record.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	row, ok := r.rows[rec.ID]
	if !ok {
		return apperror.NewNotFound("student_records", rec.ID)
	}
	rec.Fields().Replace().ApplyTo(&row)
	r.rows[rec.ID] = row
	return nil
}

// Delete implements record.Repository.
func (r *RecordRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if _, ok := r.rows[id]; !ok {
		return apperror.NewNotFound("student_records", id)
	}
	delete(r.rows, id)
	return nil
}

// List implements record.Repository.
func (r *RecordRepo) List(_ context.Context) ([]*record.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*record.Record, 0, len(r.rows))
	for id := int64(1); id <= r.lastID; id++ {
		if row, ok := r.rows[id]; ok {
			out = append(out, &row)
		}
	}
	return out, nil
}
