package auth_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"studentrecords/internal/core/apperror"
	"studentrecords/internal/core/id"
	"studentrecords/internal/domain/auth"
	"studentrecords/internal/infrastructure/storage/postgres"
)

var _ auth.TokenRepository = (*TokenRepo)(nil)

// TokenRepo implements auth.TokenRepository.
type TokenRepo struct {
	txm *postgres.TxManager
}

// NewTokenRepo creates a new token repository.
func NewTokenRepo(txm *postgres.TxManager) *TokenRepo {
	return &TokenRepo{txm: txm}
}

// SaveRefreshToken saves a refresh token.
func (r *TokenRepo) SaveRefreshToken(ctx context.Context, token *auth.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.txm.GetQuerier(ctx).Exec(ctx, query,
		token.ID, token.UserID, token.TokenHash, token.ExpiresAt, token.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save refresh token: %w", err)
	}
	return nil
}

// GetRefreshToken retrieves refresh token by hash.
func (r *TokenRepo) GetRefreshToken(ctx context.Context, tokenHash string) (*auth.RefreshToken, error) {
	query := `
		SELECT id, user_id, token_hash, expires_at, created_at, revoked_at, revoked_reason
		FROM refresh_tokens WHERE token_hash = $1
	`

	var token auth.RefreshToken
	err := r.txm.GetQuerier(ctx).QueryRow(ctx, query, tokenHash).Scan(
		&token.ID, &token.UserID, &token.TokenHash, &token.ExpiresAt,
		&token.CreatedAt, &token.RevokedAt, &token.RevokedReason,
	)
	if err == pgx.ErrNoRows {
		return nil, apperror.NewNotFound("token", "")
	}
	if err != nil {
		return nil, fmt.Errorf("query token: %w", err)
	}
	return &token, nil
}

// RevokeRefreshToken revokes a refresh token.
func (r *TokenRepo) RevokeRefreshToken(ctx context.Context, tokenID id.ID, reason string) error {
	query := `UPDATE refresh_tokens SET revoked_at = now(), revoked_reason = $2 WHERE id = $1`
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, query, tokenID, reason); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// RevokeAllUserTokens revokes all tokens for a user.
func (r *TokenRepo) RevokeAllUserTokens(ctx context.Context, userID id.ID, reason string) error {
	query := `UPDATE refresh_tokens SET revoked_at = now(), revoked_reason = $2 WHERE user_id = $1 AND revoked_at IS NULL`
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, query, userID, reason); err != nil {
		return fmt.Errorf("revoke all tokens: %w", err)
	}
	return nil
}

// CleanupExpiredTokens removes expired tokens.
func (r *TokenRepo) CleanupExpiredTokens(ctx context.Context, cutoff time.Time) (int, error) {
	query := `DELETE FROM refresh_tokens WHERE expires_at < $1 OR revoked_at < $1`
	result, err := r.txm.GetQuerier(ctx).Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup tokens: %w", err)
	}
	return int(result.RowsAffected()), nil
}
