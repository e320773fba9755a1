package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"studentrecords/internal/core/tx"
	"studentrecords/pkg/logger"
)

var (
	_ tx.Manager         = (*TxManager)(nil)
	_ tx.ReadOnlyManager = (*TxManager)(nil)
)

// TxManager runs units of work in a database/sql transaction carried in the context.
// A nested RunInTransaction joins the outer transaction.
type TxManager struct {
	db *sql.DB
}

// NewTxManager creates a transaction manager over db.
func NewTxManager(db *DB) *TxManager {
	return &TxManager{db: db.DB}
}

type txKey struct{}

// RunInTransaction implements tx.Manager.
func (m *TxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, nil, fn)
}

// ReadOnly implements tx.ReadOnlyManager.
func (m *TxManager) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, &sql.TxOptions{ReadOnly: true}, fn)
}

func (m *TxManager) run(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context) error) error {
	if m.getTx(ctx) != nil {
		return fn(ctx)
	}

	sqlTx, err := m.db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(context.WithValue(ctx, txKey{}, sqlTx)); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			logger.Error(ctx, "rollback failed", "error", rbErr, "original_error", err)
		}
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (m *TxManager) getTx(ctx context.Context) *sql.Tx {
	if t, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return t
	}
	return nil
}

// Querier is the subset of database/sql shared by *sql.DB and *sql.Tx.
// It also satisfies sqlscan.Querier.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// GetQuerier returns the transaction in ctx, or the database outside one.
func (m *TxManager) GetQuerier(ctx context.Context) Querier {
	if t := m.getTx(ctx); t != nil {
		return t
	}
	return m.db
}
