package auth

import (
	"context"
	"time"

	"studentrecords/internal/core/id"
)

// UserRepository defines user storage operations.
type UserRepository interface {
	// Create creates a new user.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves user by ID.
	GetByID(ctx context.Context, userID id.ID) (*User, error)

	// GetByUsername retrieves user by username.
	GetByUsername(ctx context.Context, username string) (*User, error)

	// Update updates login state and profile fields.
	Update(ctx context.Context, user *User) error

	// ExistsUsername checks if the username is taken.
	ExistsUsername(ctx context.Context, username string) (bool, error)

	// ExistsEmail checks if the email is taken (case-insensitive).
	ExistsEmail(ctx context.Context, email string) (bool, error)
}

// TokenRepository defines refresh token storage operations.
type TokenRepository interface {
	// SaveRefreshToken saves a refresh token.
	SaveRefreshToken(ctx context.Context, token *RefreshToken) error

	// GetRefreshToken retrieves refresh token by hash.
	GetRefreshToken(ctx context.Context, tokenHash string) (*RefreshToken, error)

	// RevokeRefreshToken revokes a refresh token.
	RevokeRefreshToken(ctx context.Context, tokenID id.ID, reason string) error

	// RevokeAllUserTokens revokes all active tokens for a user.
	RevokeAllUserTokens(ctx context.Context, userID id.ID, reason string) error

	// CleanupExpiredTokens deletes tokens that expired or were revoked before cutoff.
	CleanupExpiredTokens(ctx context.Context, cutoff time.Time) (int, error)
}
