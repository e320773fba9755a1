package testutil

import (
	"context"
	"strings"
	"sync"
	"time"

	"studentrecords/internal/core/apperror"
	"studentrecords/internal/core/id"
	"studentrecords/internal/domain/auth"
)

var (
	_ auth.UserRepository  = (*UserRepo)(nil)
	_ auth.TokenRepository = (*TokenRepo)(nil)
)

// UserRepo is an in-memory auth.UserRepository.
type UserRepo struct {
	mu    sync.Mutex
	users map[id.ID]auth.User
}

// NewUserRepo creates an empty repository.
func NewUserRepo() *UserRepo {
	return &UserRepo{users: make(map[id.ID]auth.User)}
}

// Create implements auth.UserRepository.
func (r *UserRepo) Create(_ context.Context, u *auth.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = *u
	return nil
}

// GetByID implements auth.UserRepository.
func (r *UserRepo) GetByID(_ context.Context, userID id.ID) (*auth.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return nil, apperror.NewNotFound("users", userID.String())
	}
	return &u, nil
}

// GetByUsername implements auth.UserRepository.
func (r *UserRepo) GetByUsername(_ context.Context, username string) (*auth.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, apperror.NewNotFound("users", username)
}

// Update implements auth.UserRepository.
func (r *UserRepo) Update(_ context.Context, u *auth.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; !ok {
		return apperror.NewNotFound("users", u.ID.String())
	}
	r.users[u.ID] = *u
	return nil
}

// ExistsUsername implements auth.UserRepository.
func (r *UserRepo) ExistsUsername(ctx context.Context, username string) (bool, error) {
	_, err := r.GetByUsername(ctx, username)
	return err == nil, nil
}

// ExistsEmail implements auth.UserRepository.
func (r *UserRepo) ExistsEmail(_ context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email != "" && strings.EqualFold(u.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

// TokenRepo is an in-memory auth.TokenRepository.
type TokenRepo struct {
	mu     sync.Mutex
	tokens map[string]auth.RefreshToken
}

// NewTokenRepo creates an empty repository.
func NewTokenRepo() *TokenRepo {
	return &TokenRepo{tokens: make(map[string]auth.RefreshToken)}
}

// SaveRefreshToken implements auth.TokenRepository.
func (r *TokenRepo) SaveRefreshToken(_ context.Context, t *auth.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[t.TokenHash] = *t
	return nil
}

// GetRefreshToken implements auth.TokenRepository.
func (r *TokenRepo) GetRefreshToken(_ context.Context, tokenHash string) (*auth.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[tokenHash]
	if !ok {
		return nil, apperror.NewNotFound("refresh_tokens", tokenHash)
	}
	return &t, nil
}

// RevokeRefreshToken implements auth.TokenRepository.
func (r *TokenRepo) RevokeRefreshToken(_ context.Context, tokenID id.ID, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for hash, t := range r.tokens {
		if t.ID == tokenID {
			r.revoke(hash, t, reason)
		}
	}
	return nil
}

// RevokeAllUserTokens implements auth.TokenRepository.
func (r *TokenRepo) RevokeAllUserTokens(_ context.Context, userID id.ID, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for hash, t := range r.tokens {
		if t.UserID == userID && t.RevokedAt == nil {
			r.revoke(hash, t, reason)
		}
	}
	return nil
}

// CleanupExpiredTokens implements auth.TokenRepository.
func (r *TokenRepo) CleanupExpiredTokens(_ context.Context, cutoff time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for hash, t := range r.tokens {
		if t.ExpiresAt.Before(cutoff) || (t.RevokedAt != nil && t.RevokedAt.Before(cutoff)) {
			delete(r.tokens, hash)
			n++
		}
	}
	return n, nil
}

// Active counts unrevoked tokens of a user.
func (r *TokenRepo) Active(userID id.ID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, t := range r.tokens {
		if t.UserID == userID && t.RevokedAt == nil {
			n++
		}
	}
	return n
}

func (r *TokenRepo) revoke(hash string, t auth.RefreshToken, reason string) {
	now := time.Now().UTC()
	t.RevokedAt = &now
	t.RevokedReason = reason
	r.tokens[hash] = t
}
