// Package record_repo provides the PostgreSQL Record Store.
package record_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"studentrecords/internal/core/apperror"
	"studentrecords/internal/domain/record"
	"studentrecords/internal/infrastructure/storage/columns"
	"studentrecords/internal/infrastructure/storage/postgres"
)

const tableName = "student_records"

var (
	selectCols = columns.Of[record.Record]()
	insertSkip = []string{"id"}                 // assigned by the identity column
	updateSkip = []string{"id", "created_at"} // immutable after creation
)

var _ record.Repository = (*RecordRepo)(nil)

// RecordRepo implements record.Repository on PostgreSQL.
type RecordRepo struct {
	txm *postgres.TxManager
}

// NewRecordRepo creates a new record repository.
func NewRecordRepo(txm *postgres.TxManager) *RecordRepo {
	return &RecordRepo{txm: txm}
}

func builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func insertQuery(rec *record.Record) squirrel.InsertBuilder {
	return builder().
		Insert(tableName).
		SetMap(columns.Map(rec, insertSkip...)).
		Suffix("RETURNING id")
}

func selectQuery() squirrel.SelectBuilder {
	return builder().Select(selectCols...).From(tableName)
}

func updateQuery(rec *record.Record) squirrel.UpdateBuilder {
	return builder().
		Update(tableName).
		SetMap(columns.Map(rec, updateSkip...)).
		Where(squirrel.Eq{"id": rec.ID})
}

func deleteQuery(id int64) squirrel.DeleteBuilder {
	return builder().Delete(tableName).Where(squirrel.Eq{"id": id})
}

// Create implements record.Repository.
func (r *RecordRepo) Create(ctx context.Context, rec *record.Record) error {
	sql, args, err := insertQuery(rec).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&rec.ID); err != nil {
		return apperror.NewDatabase("insert "+tableName, err)
	}
	return nil
}

// GetByID implements record.Repository.
func (r *RecordRepo) GetByID(ctx context.Context, id int64) (*record.Record, error) {
	return r.get(ctx, selectQuery().Where(squirrel.Eq{"id": id}).Limit(1), id)
}

// GetForUpdate implements record.Repository. The row stays locked until
// the surrounding transaction ends.
func (r *RecordRepo) GetForUpdate(ctx context.Context, id int64) (*record.Record, error) {
	return r.get(ctx, selectQuery().Where(squirrel.Eq{"id": id}).Suffix("FOR UPDATE"), id)
}

func (r *RecordRepo) get(ctx context.Context, q squirrel.SelectBuilder, id int64) (*record.Record, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rec record.Record
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &rec, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(tableName, id)
		}
		return nil, apperror.NewDatabase("get "+tableName, err)
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	return &rec, nil
}

// Update implements record.Repository.
func (r *RecordRepo) Update(ctx context.Context, rec *record.Record) error {
	sql, args, err := updateQuery(rec).ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return apperror.NewDatabase("update "+tableName, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound(tableName, rec.ID)
	}
	return nil
}

// Delete implements record.Repository.
func (r *RecordRepo) Delete(ctx context.Context, id int64) error {
	sql, args, err := deleteQuery(id).ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return apperror.NewDatabase("delete "+tableName, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound(tableName, id)
	}
	return nil
}

// List implements record.Repository.
func (r *RecordRepo) List(ctx context.Context) ([]*record.Record, error) {
	sql, args, err := selectQuery().OrderBy("id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var recs []*record.Record
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &recs, sql, args...); err != nil {
		return nil, apperror.NewDatabase("list "+tableName, err)
	}
	for _, rec := range recs {
		rec.CreatedAt = rec.CreatedAt.UTC()
	}
	return recs, nil
}
