package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/sqlscan"
	sqlite3 "github.com/mattn/go-sqlite3"

	"studentrecords/internal/core/apperror"
	"studentrecords/internal/core/id"
	"studentrecords/internal/domain/auth"
	"studentrecords/internal/infrastructure/storage/columns"
)

const (
	usersTable  = "users"
	tokensTable = "refresh_tokens"
)

var userCols = columns.Of[auth.User]()

var (
	_ auth.UserRepository  = (*UserRepo)(nil)
	_ auth.TokenRepository = (*TokenRepo)(nil)
)

// UserRepo implements auth.UserRepository on SQLite.
type UserRepo struct {
	txm *TxManager
}

// NewUserRepo creates a new user repository.
func NewUserRepo(txm *TxManager) *UserRepo {
	return &UserRepo{txm: txm}
}

// Create implements auth.UserRepository.
func (r *UserRepo) Create(ctx context.Context, user *auth.User) error {
	sql, args, err := builder().Insert(usersTable).SetMap(columns.Map(user)).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).ExecContext(ctx, sql, args...); err != nil {
		var sqErr sqlite3.Error
		if errors.As(err, &sqErr) && sqErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			if strings.Contains(sqErr.Error(), "email") {
				return apperror.NewDuplicate("user", "email", user.Email)
			}
			return apperror.NewDuplicate("user", "username", user.Username)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByID implements auth.UserRepository.
func (r *UserRepo) GetByID(ctx context.Context, userID id.ID) (*auth.User, error) {
	return r.getOne(ctx, squirrel.Eq{"id": userID}, userID.String())
}

// GetByUsername implements auth.UserRepository.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*auth.User, error) {
	return r.getOne(ctx, squirrel.Eq{"username": username}, username)
}

func (r *UserRepo) getOne(ctx context.Context, where squirrel.Eq, key string) (*auth.User, error) {
	sql, args, err := builder().Select(userCols...).From(usersTable).Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var user auth.User
	if err := sqlscan.Get(ctx, r.txm.GetQuerier(ctx), &user, sql, args...); err != nil {
		if sqlscan.NotFound(err) {
			return nil, apperror.NewNotFound("user", key)
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &user, nil
}

// Update implements auth.UserRepository.
func (r *UserRepo) Update(ctx context.Context, user *auth.User) error {
	sql, args, err := builder().Update(usersTable).
		SetMap(columns.Map(user, "id", "username", "created_at")).
		Where(squirrel.Eq{"id": user.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	res, err := r.txm.GetQuerier(ctx).ExecContext(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NewNotFound("user", user.ID.String())
	}
	return nil
}

// ExistsUsername implements auth.UserRepository.
func (r *UserRepo) ExistsUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE username = ?)`, username)
}

// ExistsEmail implements auth.UserRepository.
func (r *UserRepo) ExistsEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE lower(email) = ?)`, strings.ToLower(email))
}

func (r *UserRepo) exists(ctx context.Context, query, arg string) (bool, error) {
	var exists bool
	if err := r.txm.GetQuerier(ctx).QueryRowContext(ctx, query, arg).Scan(&exists); err != nil {
		return false, fmt.Errorf("check exists: %w", err)
	}
	return exists, nil
}

// TokenRepo implements auth.TokenRepository on SQLite.
type TokenRepo struct {
	txm *TxManager
	now func() time.Time
}

// NewTokenRepo creates a new token repository.
func NewTokenRepo(txm *TxManager) *TokenRepo {
	return &TokenRepo{txm: txm, now: time.Now}
}

// SaveRefreshToken implements auth.TokenRepository.
func (r *TokenRepo) SaveRefreshToken(ctx context.Context, token *auth.RefreshToken) error {
	sql, args, err := builder().Insert(tokensTable).SetMap(columns.Map(token)).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).ExecContext(ctx, sql, args...); err != nil {
		return fmt.Errorf("save refresh token: %w", err)
	}
	return nil
}

// GetRefreshToken implements auth.TokenRepository.
func (r *TokenRepo) GetRefreshToken(ctx context.Context, tokenHash string) (*auth.RefreshToken, error) {
	sql, args, err := builder().Select(columns.Of[auth.RefreshToken]()...).From(tokensTable).
		Where(squirrel.Eq{"token_hash": tokenHash}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var token auth.RefreshToken
	if err := sqlscan.Get(ctx, r.txm.GetQuerier(ctx), &token, sql, args...); err != nil {
		if sqlscan.NotFound(err) {
			return nil, apperror.NewNotFound("token", "")
		}
		return nil, fmt.Errorf("query token: %w", err)
	}
	return &token, nil
}

// RevokeRefreshToken implements auth.TokenRepository.
func (r *TokenRepo) RevokeRefreshToken(ctx context.Context, tokenID id.ID, reason string) error {
	return r.revoke(ctx, squirrel.Eq{"id": tokenID}, reason)
}

// RevokeAllUserTokens implements auth.TokenRepository.
func (r *TokenRepo) RevokeAllUserTokens(ctx context.Context, userID id.ID, reason string) error {
	return r.revoke(ctx, squirrel.And{squirrel.Eq{"user_id": userID}, squirrel.Eq{"revoked_at": nil}}, reason)
}

func (r *TokenRepo) revoke(ctx context.Context, where squirrel.Sqlizer, reason string) error {
	sql, args, err := builder().Update(tokensTable).
		Set("revoked_at", r.now().UTC()).
		Set("revoked_reason", reason).
		Where(where).
		ToSql()
	if err != nil {
		return fmt.Errorf("build revoke: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).ExecContext(ctx, sql, args...); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// CleanupExpiredTokens implements auth.TokenRepository.
func (r *TokenRepo) CleanupExpiredTokens(ctx context.Context, cutoff time.Time) (int, error) {
	sql, args, err := builder().Delete(tokensTable).
		Where(squirrel.Or{squirrel.Lt{"expires_at": cutoff.UTC()}, squirrel.Lt{"revoked_at": cutoff.UTC()}}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build cleanup: %w", err)
	}

	res, err := r.txm.GetQuerier(ctx).ExecContext(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("cleanup tokens: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
