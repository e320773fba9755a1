package mirror

import (
	"context"

	"studentrecords/internal/core/apperror"
	"studentrecords/internal/domain/record"
	"studentrecords/pkg/logger"
)

var _ record.Mirror = (*Bridge)(nil)

// Bridge translates record changes into Mirror Store operations.
type Bridge struct {
	store Store
}

// NewBridge creates a bridge writing to store.
func NewBridge(store Store) *Bridge {
	if store == nil {
		store = NopStore{}
	}
	return &Bridge{store: store}
}

// Upsert replaces the mirror document of rec. Failures are logged only.
func (b *Bridge) Upsert(ctx context.Context, rec *record.Record) {
	// The store write already committed; a client hanging up must not
	// cancel the mirror write.
	ctx = context.WithoutCancel(ctx)
	if err := b.upsert(ctx, rec); err != nil {
		b.report(ctx, err)
	}
}

// Remove deletes the mirror document of a record. Failures are logged only.
func (b *Bridge) Remove(ctx context.Context, recordID int64) {
	ctx = context.WithoutCancel(ctx)
	if err := b.store.Delete(ctx, recordID); err != nil {
		b.report(ctx, apperror.NewMirrorWrite("delete", recordID, err))
		return
	}
	logger.Debug(ctx, "mirror document removed", "record_id", recordID)
}

// BackfillResult summarizes a Backfill run.
type BackfillResult struct {
	Synced    int
	Failed    int
	FailedIDs []int64
}

// Backfill re-mirrors records that already exist in the store,
// one upsert each. It does not stop at the first failure.
func (b *Bridge) Backfill(ctx context.Context, recs []*record.Record) BackfillResult {
	var res BackfillResult
	for _, rec := range recs {
		if err := ctx.Err(); err != nil {
			logger.Warn(ctx, "mirror backfill interrupted", "synced", res.Synced, "error", err)
			break
		}
		if err := b.upsert(ctx, rec); err != nil {
			b.report(ctx, err)
			res.Failed++
			res.FailedIDs = append(res.FailedIDs, rec.ID)
			continue
		}
		res.Synced++
	}
	return res
}

func (b *Bridge) upsert(ctx context.Context, rec *record.Record) *apperror.AppError {
	if err := b.store.Upsert(ctx, rec.ID, NewDocument(rec)); err != nil {
		return apperror.NewMirrorWrite("upsert", rec.ID, err)
	}
	logger.Debug(ctx, "record mirrored", "record_id", rec.ID)
	return nil
}

func (b *Bridge) report(ctx context.Context, err *apperror.AppError) {
	logger.FromContext(ctx).WithComponent("mirror").Errorw("mirror write failed",
		"code", err.Code,
		"operation", err.Details["operation"],
		"record_id", err.Details["key"],
		"error", err.Err,
	)
}
