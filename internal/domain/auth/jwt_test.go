package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("secret"))
	user := NewUser("msgarcia", "hash", time.Now())
	user.Email = "t1@school.test"

	token, expiresAt, err := svc.GenerateAccessToken(user)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 5*time.Second)

	uc, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), uc.UserID)
	assert.Equal(t, "msgarcia", uc.Username)
	assert.Equal(t, "t1@school.test", uc.Email)
}

func TestJWTService_RejectsWrongSecret(t *testing.T) {
	token, _, err := NewJWTService(DefaultJWTConfig("one")).GenerateAccessToken(NewUser("u", "h", time.Now()))
	require.NoError(t, err)

	_, err = NewJWTService(DefaultJWTConfig("two")).ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTService_RejectsExpired(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("secret"))
	svc.now = func() time.Time { return time.Now().Add(-time.Hour) }

	token, _, err := svc.GenerateAccessToken(NewUser("u", "h", time.Now()))
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}

func TestUser_Lockout(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	u := NewUser("u", "h", now)

	u.RecordFailedLogin(now, 2, time.Minute)
	assert.NoError(t, u.CanLogin(now))

	u.RecordFailedLogin(now, 2, time.Minute)
	assert.Error(t, u.CanLogin(now))
	assert.NoError(t, u.CanLogin(now.Add(2*time.Minute)))

	u.RecordSuccessfulLogin(now)
	assert.Zero(t, u.FailedLoginAttempts)
	assert.Nil(t, u.LockedUntil)
}

func TestUser_FullName(t *testing.T) {
	u := &User{Username: "msgarcia"}
	assert.Equal(t, "msgarcia", u.FullName())

	u.FirstName = "Ann"
	assert.Equal(t, "Ann", u.FullName())

	u.LastName = "Lee"
	assert.Equal(t, "Ann Lee", u.FullName())
}
