package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studentrecords/internal/core/apperror"
	"studentrecords/internal/domain/auth"
	"studentrecords/internal/domain/record"
)

func openTestDB(t *testing.T) *TxManager {
	t.Helper()
	db, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewTxManager(db)
}

func newRecord(first string) *record.Record {
	return record.NewRecord(record.Fields{FirstName: first, LastName: "Lee", ClassLabel: "10A"},
		time.Date(2026, 3, 1, 9, 30, 0, 123456789, time.UTC))
}

func TestRecordRepo_CreateGet(t *testing.T) {
	repo := NewRecordRepo(openTestDB(t))
	ctx := context.Background()

	rec := newRecord("Ann")
	require.NoError(t, repo.Create(ctx, rec))
	assert.Equal(t, int64(1), rec.ID)

	got, err := repo.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec, got)
	assert.Equal(t, 123456000, got.CreatedAt.Nanosecond())
}

func TestRecordRepo_IdsNotReused(t *testing.T) {
	repo := NewRecordRepo(openTestDB(t))
	ctx := context.Background()

	a, b := newRecord("A"), newRecord("B")
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b))
	require.NoError(t, repo.Delete(ctx, b.ID))

	c := newRecord("C")
	require.NoError(t, repo.Create(ctx, c))
	assert.Equal(t, b.ID+1, c.ID)
}

func TestRecordRepo_UpdateKeepsCreatedAt(t *testing.T) {
	repo := NewRecordRepo(openTestDB(t))
	ctx := context.Background()

	rec := newRecord("Ann")
	require.NoError(t, repo.Create(ctx, rec))
	original := rec.CreatedAt

	changed := *rec
	changed.City = "Austin"
	changed.CreatedAt = original.Add(time.Hour)
	require.NoError(t, repo.Update(ctx, &changed))

	got, err := repo.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "Austin", got.City)
	assert.Equal(t, original, got.CreatedAt)
}

func TestRecordRepo_NotFound(t *testing.T) {
	repo := NewRecordRepo(openTestDB(t))
	ctx := context.Background()

	_, err := repo.GetByID(ctx, 7)
	assert.True(t, apperror.IsNotFound(err))

	assert.True(t, apperror.IsNotFound(repo.Delete(ctx, 7)))
	assert.True(t, apperror.IsNotFound(repo.Update(ctx, &record.Record{ID: 7, FirstName: "x", LastName: "y"})))
}

func TestRecordRepo_ListOrdered(t *testing.T) {
	repo := NewRecordRepo(openTestDB(t))
	ctx := context.Background()

	for _, name := range []string{"A", "B", "C"} {
		require.NoError(t, repo.Create(ctx, newRecord(name)))
	}

	recs, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	for i, rec := range recs {
		assert.Equal(t, int64(i+1), rec.ID)
	}
}

func TestTxManager_RollbackOnError(t *testing.T) {
	txm := openTestDB(t)
	repo := NewRecordRepo(txm)
	ctx := context.Background()

	boom := errors.New("boom")
	err := txm.RunInTransaction(ctx, func(ctx context.Context) error {
		require.NoError(t, repo.Create(ctx, newRecord("Ann")))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	recs, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestTxManager_NestedJoinsOuter(t *testing.T) {
	txm := openTestDB(t)
	repo := NewRecordRepo(txm)
	ctx := context.Background()

	err := txm.RunInTransaction(ctx, func(ctx context.Context) error {
		return txm.RunInTransaction(ctx, func(ctx context.Context) error {
			return repo.Create(ctx, newRecord("Ann"))
		})
	})
	require.NoError(t, err)

	recs, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestTxManager_ReadOnly(t *testing.T) {
	txm := openTestDB(t)
	repo := NewRecordRepo(txm)
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, newRecord("Ann")))

	var got *record.Record
	err := txm.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		got, err = repo.GetByID(ctx, 1)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, "Ann", got.FirstName)

	// A read-only call inside a write joins the outer tx and sees its rows.
	err = txm.RunInTransaction(ctx, func(ctx context.Context) error {
		require.NoError(t, repo.Create(ctx, newRecord("Bo")))
		return txm.ReadOnly(ctx, func(ctx context.Context) error {
			recs, err := repo.List(ctx)
			assert.Len(t, recs, 2)
			return err
		})
	})
	require.NoError(t, err)
}

func TestUserRepo(t *testing.T) {
	txm := openTestDB(t)
	users := NewUserRepo(txm)
	ctx := context.Background()

	u := auth.NewUser("msgarcia", "hash", time.Now())
	u.Email = "T1@School.test"
	require.NoError(t, users.Create(ctx, u))

	got, err := users.GetByUsername(ctx, "msgarcia")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.True(t, got.IsActive)
	assert.Nil(t, got.LockedUntil)

	exists, err := users.ExistsEmail(ctx, "t1@school.TEST")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = users.ExistsUsername(ctx, "mrchen")
	require.NoError(t, err)
	assert.False(t, exists)

	dup := auth.NewUser("msgarcia", "hash", time.Now())
	err = users.Create(ctx, dup)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "username", appErr.Details["field"])

	got.RecordFailedLogin(time.Now().UTC(), 1, time.Minute)
	require.NoError(t, users.Update(ctx, got))
	locked, err := users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, locked.FailedLoginAttempts)
	assert.NotNil(t, locked.LockedUntil)

	_, err = users.GetByUsername(ctx, "nobody")
	assert.True(t, apperror.IsNotFound(err))
}

func TestTokenRepo(t *testing.T) {
	txm := openTestDB(t)
	users := NewUserRepo(txm)
	tokens := NewTokenRepo(txm)
	ctx := context.Background()

	u := auth.NewUser("msgarcia", "hash", time.Now())
	require.NoError(t, users.Create(ctx, u))

	now := time.Now().UTC().Truncate(time.Microsecond)
	tok := &auth.RefreshToken{ID: u.ID, UserID: u.ID, TokenHash: "abc", ExpiresAt: now.Add(time.Hour), CreatedAt: now}
	require.NoError(t, tokens.SaveRefreshToken(ctx, tok))

	got, err := tokens.GetRefreshToken(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, got.IsValid(now))

	require.NoError(t, tokens.RevokeAllUserTokens(ctx, u.ID, "logout"))
	got, err = tokens.GetRefreshToken(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, got.IsValid(now))
	assert.Equal(t, "logout", got.RevokedReason)

	n, err := tokens.CleanupExpiredTokens(ctx, now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = tokens.GetRefreshToken(ctx, "abc")
	assert.True(t, apperror.IsNotFound(err))
}

func TestRecordService_OnSQLite(t *testing.T) {
	txm := openTestDB(t)
	svc := record.NewService(record.ServiceConfig{
		Repo:      NewRecordRepo(txm),
		TxManager: txm,
		Mirror:    nopMirror{},
	})
	ctx := context.Background()

	added, err := svc.Add(ctx, record.Fields{FirstName: "Ann", LastName: "Lee", ClassLabel: "10A"})
	require.NoError(t, err)

	city := "Austin"
	updated, err := svc.Update(ctx, added.ID, record.Changes{City: &city})
	require.NoError(t, err)
	assert.Equal(t, added.CreatedAt, updated.CreatedAt)

	require.NoError(t, svc.Delete(ctx, added.ID))
	_, err = svc.Get(ctx, added.ID)
	assert.True(t, apperror.IsNotFound(err))
}

type nopMirror struct{}

func (nopMirror) Upsert(context.Context, *record.Record) {}
func (nopMirror) Remove(context.Context, int64)          {}
