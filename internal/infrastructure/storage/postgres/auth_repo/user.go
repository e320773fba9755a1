// Package auth_repo provides PostgreSQL implementations for auth repositories.
package auth_repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	"studentrecords/internal/core/apperror"
	"studentrecords/internal/core/id"
	"studentrecords/internal/domain/auth"
	"studentrecords/internal/infrastructure/storage/columns"
	"studentrecords/internal/infrastructure/storage/postgres"
)

const usersTable = "users"

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

var userCols = columns.Of[auth.User]()

var _ auth.UserRepository = (*UserRepo)(nil)

// UserRepo implements auth.UserRepository.
type UserRepo struct {
	txm *postgres.TxManager
}

// NewUserRepo creates a new user repository.
func NewUserRepo(txm *postgres.TxManager) *UserRepo {
	return &UserRepo{txm: txm}
}

func builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Create creates a new user.
func (r *UserRepo) Create(ctx context.Context, user *auth.User) error {
	sql, args, err := builder().Insert(usersTable).SetMap(columns.Map(user)).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			if pgErr.ConstraintName == "users_email_key" {
				return apperror.NewDuplicate("user", "email", user.Email)
			}
			return apperror.NewDuplicate("user", "username", user.Username)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByID retrieves user by ID.
func (r *UserRepo) GetByID(ctx context.Context, userID id.ID) (*auth.User, error) {
	return r.getOne(ctx, squirrel.Eq{"id": userID}, userID.String())
}

// GetByUsername retrieves user by username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*auth.User, error) {
	return r.getOne(ctx, squirrel.Eq{"username": username}, username)
}

func (r *UserRepo) getOne(ctx context.Context, where squirrel.Eq, key string) (*auth.User, error) {
	sql, args, err := builder().Select(userCols...).From(usersTable).Where(where).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var user auth.User
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &user, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("user", key)
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &user, nil
}

// Update updates login state and profile fields.
func (r *UserRepo) Update(ctx context.Context, user *auth.User) error {
	sql, args, err := builder().
		Update(usersTable).
		SetMap(updateMap(user)).
		Where(squirrel.Eq{"id": user.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("user", user.ID.String())
	}
	return nil
}

// updateMap returns the columns an update may write.
func updateMap(user *auth.User) map[string]any {
	return columns.Map(user, "id", "username", "created_at")
}

// ExistsUsername checks if the username is taken.
func (r *UserRepo) ExistsUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`, username)
}

// ExistsEmail checks if the email is taken, ignoring case.
func (r *UserRepo) ExistsEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE lower(email) = $1)`, strings.ToLower(email))
}

func (r *UserRepo) exists(ctx context.Context, query string, arg string) (bool, error) {
	var exists bool
	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, query, arg).Scan(&exists); err != nil {
		return false, fmt.Errorf("check exists: %w", err)
	}
	return exists, nil
}
