// Package auth provides user registration, login and token handling.
package auth

import (
	"context"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"studentrecords/internal/core/apperror"
	"studentrecords/internal/core/id"
)

const (
	MaxUsernameLen = 150
	MaxEmailLen    = 254
	MaxNameLen     = 150
)

// Letters, digits and @/./+/-/_ only.
var usernamePattern = regexp.MustCompile(`^[\p{L}\p{N}@.+\-_]+$`)

// User represents an account allowed to manage records.
type User struct {
	ID                  id.ID      `db:"id" json:"id"`
	Username            string     `db:"username" json:"username"`
	Email               string     `db:"email" json:"email,omitempty"`
	PasswordHash        string     `db:"password_hash" json:"-"`
	FirstName           string     `db:"first_name" json:"firstName,omitempty"`
	LastName            string     `db:"last_name" json:"lastName,omitempty"`
	IsActive            bool       `db:"is_active" json:"isActive"`
	LastLoginAt         *time.Time `db:"last_login_at" json:"lastLoginAt,omitempty"`
	FailedLoginAttempts int        `db:"failed_login_attempts" json:"-"`
	LockedUntil         *time.Time `db:"locked_until" json:"-"`
	CreatedAt           time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updatedAt"`
}

// NewUser creates a new active user.
func NewUser(username, passwordHash string, now time.Time) *User {
	now = now.UTC().Truncate(time.Microsecond)
	return &User{
		ID:           id.New(),
		Username:     username,
		PasswordHash: passwordHash,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Validate validates user data.
func (u *User) Validate(_ context.Context) error {
	switch {
	case u.Username == "":
		return apperror.NewValidation("username is required").WithDetail("field", "username")
	case utf8.RuneCountInString(u.Username) > MaxUsernameLen:
		return apperror.NewValidation("username is too long").
			WithDetail("field", "username").
			WithDetail("max", MaxUsernameLen)
	case !usernamePattern.MatchString(u.Username):
		return apperror.NewValidation("username may contain only letters, digits and @/./+/-/_").
			WithDetail("field", "username")
	case utf8.RuneCountInString(u.Email) > MaxEmailLen:
		return apperror.NewValidation("email is too long").WithDetail("field", "email")
	case u.Email != "" && !strings.Contains(u.Email, "@"):
		return apperror.NewValidation("email is invalid").WithDetail("field", "email")
	case utf8.RuneCountInString(u.FirstName) > MaxNameLen:
		return apperror.NewValidation("first name is too long").WithDetail("field", "firstName")
	case utf8.RuneCountInString(u.LastName) > MaxNameLen:
		return apperror.NewValidation("last name is too long").WithDetail("field", "lastName")
	}
	return nil
}

// IsLocked returns true if the account is locked at now.
func (u *User) IsLocked(now time.Time) bool {
	return u.LockedUntil != nil && now.Before(*u.LockedUntil)
}

// CanLogin checks if user can login.
func (u *User) CanLogin(now time.Time) error {
	if !u.IsActive {
		return apperror.NewForbidden("account is disabled")
	}
	if u.IsLocked(now) {
		return apperror.NewForbidden("account is temporarily locked")
	}
	return nil
}

// RecordFailedLogin increments the failed login counter and locks the
// account once maxAttempts is reached.
func (u *User) RecordFailedLogin(now time.Time, maxAttempts int, lockDuration time.Duration) {
	u.FailedLoginAttempts++
	u.UpdatedAt = now
	if u.FailedLoginAttempts >= maxAttempts {
		lockUntil := now.Add(lockDuration)
		u.LockedUntil = &lockUntil
	}
}

// RecordSuccessfulLogin resets the failed login counter.
func (u *User) RecordSuccessfulLogin(now time.Time) {
	u.FailedLoginAttempts = 0
	u.LockedUntil = nil
	u.LastLoginAt = &now
	u.UpdatedAt = now
}

// FullName returns the user's display name.
func (u *User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

// RefreshToken is a stored refresh token. Only its SHA-256 hash is kept.
type RefreshToken struct {
	ID            id.ID      `db:"id"`
	UserID        id.ID      `db:"user_id"`
	TokenHash     string     `db:"token_hash"`
	ExpiresAt     time.Time  `db:"expires_at"`
	CreatedAt     time.Time  `db:"created_at"`
	RevokedAt     *time.Time `db:"revoked_at"`
	RevokedReason string     `db:"revoked_reason"`
}

// IsValid checks if the refresh token is usable at now.
func (t *RefreshToken) IsValid(now time.Time) bool {
	return t.RevokedAt == nil && now.Before(t.ExpiresAt)
}

// TokenPair contains access and refresh tokens.
type TokenPair struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
	TokenType    string    `json:"tokenType"`
}

// Credentials for login.
type Credentials struct {
	Username string
	Password string
}

// RegisterRequest for user registration.
type RegisterRequest struct {
	Username        string
	Email           string
	Password        string
	PasswordConfirm string
	FirstName       string
	LastName        string
}
