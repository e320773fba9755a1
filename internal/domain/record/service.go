package record

import (
	"context"
	"fmt"
	"time"

	"studentrecords/internal/core/apperror"
	"studentrecords/internal/core/tx"
	"studentrecords/pkg/logger"
)

const entityName = "record"

// Service implements the record operations. Every successful write is
// followed by an explicit call into the Mirror, after the store
// transaction has committed.
type Service struct {
	repo      Repository
	txManager tx.Manager
	mirror    Mirror
	now       func() time.Time
}

// ServiceConfig configures the record service.
type ServiceConfig struct {
	Repo      Repository
	TxManager tx.Manager
	// Mirror is required. Use a bridge over a no-op store to disable mirroring.
	Mirror Mirror
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// NewService creates a new record service.
func NewService(cfg ServiceConfig) *Service {
	txm := cfg.TxManager
	if txm == nil {
		txm = tx.Passthrough{}
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		repo:      cfg.Repo,
		txManager: txm,
		mirror:    cfg.Mirror,
		now:       clock,
	}
}

func normalizeValidationErr(err error) error {
	if err == nil {
		return nil
	}
	if apperror.IsAppError(err) {
		return err
	}
	return apperror.NewValidation(err.Error())
}

func normalizeGetErr(err error, recordID int64) error {
	if err == nil {
		return nil
	}
	if apperror.IsNotFound(err) {
		return apperror.NewNotFound(entityName, recordID)
	}
	if apperror.IsAppError(err) {
		return err
	}
	return apperror.NewInternal(err).WithDetail("entity", entityName).WithDetail("id", recordID)
}

// Add validates and stores a new record, then mirrors it.
func (s *Service) Add(ctx context.Context, fields Fields) (*Record, error) {
	rec := NewRecord(fields, s.now())
	if err := rec.Validate(ctx); err != nil {
		return nil, normalizeValidationErr(err)
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, rec); err != nil {
			return fmt.Errorf("create %s: %w", entityName, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.mirror.Upsert(ctx, rec)

	logger.Info(ctx, "record created", "record_id", rec.ID)
	return rec, nil
}

// Update applies changes to an existing record and mirrors the result.
// ID and CreatedAt always keep the values read from the store.
// Empty changes write nothing and return the current record.
func (s *Service) Update(ctx context.Context, recordID int64, changes Changes) (*Record, error) {
	if changes.IsEmpty() {
		return s.Get(ctx, recordID)
	}

	var updated *Record

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetForUpdate(ctx, recordID)
		if err != nil {
			return normalizeGetErr(err, recordID)
		}

		changes.ApplyTo(current)
		if err := current.Validate(ctx); err != nil {
			return normalizeValidationErr(err)
		}

		if err := s.repo.Update(ctx, current); err != nil {
			if apperror.IsNotFound(err) {
				return apperror.NewNotFound(entityName, recordID)
			}
			return fmt.Errorf("update %s: %w", entityName, err)
		}
		updated = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.mirror.Upsert(ctx, updated)

	logger.Info(ctx, "record updated", "record_id", updated.ID)
	return updated, nil
}

// Delete removes a record and its mirror document.
// A missing record is NOT_FOUND and leaves the mirror untouched.
func (s *Service) Delete(ctx context.Context, recordID int64) error {
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Delete(ctx, recordID); err != nil {
			if apperror.IsNotFound(err) {
				return apperror.NewNotFound(entityName, recordID)
			}
			return fmt.Errorf("delete %s: %w", entityName, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.mirror.Remove(ctx, recordID)

	logger.Info(ctx, "record deleted", "record_id", recordID)
	return nil
}

// Get retrieves a record by id.
func (s *Service) Get(ctx context.Context, recordID int64) (*Record, error) {
	var rec *Record
	err := s.read(ctx, func(ctx context.Context) error {
		var err error
		rec, err = s.repo.GetByID(ctx, recordID)
		return err
	})
	if err != nil {
		return nil, normalizeGetErr(err, recordID)
	}
	return rec, nil
}

// List returns every record, read from the store on each call.
func (s *Service) List(ctx context.Context) ([]*Record, error) {
	var recs []*Record
	err := s.read(ctx, func(ctx context.Context) error {
		var err error
		recs, err = s.repo.List(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list %ss: %w", entityName, err)
	}
	return recs, nil
}

// read runs fn in a read-only transaction when the store supports one.
func (s *Service) read(ctx context.Context, fn func(ctx context.Context) error) error {
	if ro, ok := s.txManager.(tx.ReadOnlyManager); ok {
		return ro.ReadOnly(ctx, fn)
	}
	return fn(ctx)
}
