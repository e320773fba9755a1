package sqlite

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/sqlscan"

	"studentrecords/internal/core/apperror"
	"studentrecords/internal/domain/record"
	"studentrecords/internal/infrastructure/storage/columns"
)

const recordsTable = "student_records"

var recordCols = columns.Of[record.Record]()

var _ record.Repository = (*RecordRepo)(nil)

// RecordRepo implements record.Repository on SQLite.
// AUTOINCREMENT guarantees ids are never reused after a delete.
type RecordRepo struct {
	txm *TxManager
}

// NewRecordRepo creates a new record repository.
func NewRecordRepo(txm *TxManager) *RecordRepo {
	return &RecordRepo{txm: txm}
}

// Create implements record.Repository.
func (r *RecordRepo) Create(ctx context.Context, rec *record.Record) error {
	sql, args, err := builder().Insert(recordsTable).SetMap(columns.Map(rec, "id")).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	res, err := r.txm.GetQuerier(ctx).ExecContext(ctx, sql, args...)
	if err != nil {
		return apperror.NewDatabase("insert "+recordsTable, err)
	}
	newID, err := res.LastInsertId()
	if err != nil {
		return apperror.NewDatabase("insert "+recordsTable, err)
	}
	rec.ID = newID
	return nil
}

// GetByID implements record.Repository.
func (r *RecordRepo) GetByID(ctx context.Context, id int64) (*record.Record, error) {
	sql, args, err := builder().Select(recordCols...).From(recordsTable).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rec record.Record
	if err := sqlscan.Get(ctx, r.txm.GetQuerier(ctx), &rec, sql, args...); err != nil {
		if sqlscan.NotFound(err) {
			return nil, apperror.NewNotFound(recordsTable, id)
		}
		return nil, apperror.NewDatabase("get "+recordsTable, err)
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	return &rec, nil
}

// GetForUpdate implements record.Repository. SQLite has no row locks;
// the single connection already serializes writers.
func (r *RecordRepo) GetForUpdate(ctx context.Context, id int64) (*record.Record, error) {
	return r.GetByID(ctx, id)
}

// Update implements record.Repository.
func (r *RecordRepo) Update(ctx context.Context, rec *record.Record) error {
	sql, args, err := builder().Update(recordsTable).
		SetMap(columns.Map(rec, "id", "created_at")).
		Where(squirrel.Eq{"id": rec.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	return r.execOne(ctx, "update", rec.ID, sql, args)
}

// Delete implements record.Repository.
func (r *RecordRepo) Delete(ctx context.Context, id int64) error {
	sql, args, err := builder().Delete(recordsTable).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	return r.execOne(ctx, "delete", id, sql, args)
}

func (r *RecordRepo) execOne(ctx context.Context, op string, id int64, sql string, args []any) error {
	res, err := r.txm.GetQuerier(ctx).ExecContext(ctx, sql, args...)
	if err != nil {
		return apperror.NewDatabase(op+" "+recordsTable, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperror.NewDatabase(op+" "+recordsTable, err)
	}
	if n == 0 {
		return apperror.NewNotFound(recordsTable, id)
	}
	return nil
}

// List implements record.Repository.
func (r *RecordRepo) List(ctx context.Context) ([]*record.Record, error) {
	sql, args, err := builder().Select(recordCols...).From(recordsTable).OrderBy("id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var recs []*record.Record
	if err := sqlscan.Select(ctx, r.txm.GetQuerier(ctx), &recs, sql, args...); err != nil {
		return nil, apperror.NewDatabase("list "+recordsTable, err)
	}
	for _, rec := range recs {
		rec.CreatedAt = rec.CreatedAt.UTC()
	}
	return recs, nil
}
