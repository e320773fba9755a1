package auth_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"studentrecords/internal/core/apperror"
	"studentrecords/internal/domain/auth"
	"studentrecords/internal/testutil"
)

type authFixture struct {
	svc    *auth.Service
	users  *testutil.UserRepo
	tokens *testutil.TokenRepo
	clock  *testutil.StepClock
}

func newAuthFixture(t *testing.T) authFixture {
	t.Helper()
	users := testutil.NewUserRepo()
	tokens := testutil.NewTokenRepo()
	clock := testutil.NewStepClock(time.Now().UTC(), time.Second)

	cfg := auth.DefaultServiceConfig()
	cfg.BcryptCost = bcrypt.MinCost
	cfg.MaxLoginAttempts = 3
	cfg.Clock = clock.Now

	svc := auth.NewService(users, tokens, nil, auth.NewJWTService(auth.DefaultJWTConfig("test-secret")), cfg)
	return authFixture{svc: svc, users: users, tokens: tokens, clock: clock}
}

func register(t *testing.T, f authFixture, username string) *auth.User {
	t.Helper()
	user, _, err := f.svc.Register(context.Background(), auth.RegisterRequest{
		Username:        username,
		Password:        "correct horse",
		PasswordConfirm: "correct horse",
	})
	require.NoError(t, err)
	return user
}

func TestRegister_LogsUserIn(t *testing.T) {
	f := newAuthFixture(t)

	user, tokens, err := f.svc.Register(context.Background(), auth.RegisterRequest{
		Username:        "msgarcia",
		Email:           "t1@school.test",
		Password:        "correct horse",
		PasswordConfirm: "correct horse",
	})
	require.NoError(t, err)

	assert.Equal(t, "msgarcia", user.Username)
	assert.NotEqual(t, "correct horse", user.PasswordHash)
	assert.NotNil(t, user.LastLoginAt)
	require.NotNil(t, tokens)
	assert.Equal(t, "Bearer", tokens.TokenType)
	assert.Equal(t, 1, f.tokens.Active(user.ID))

	uc, err := f.svc.JWT().ValidateToken(tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), uc.UserID)
	assert.Equal(t, "msgarcia", uc.Username)
}

func TestRegister_Validation(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		req   auth.RegisterRequest
		field string
	}{
		{"short password", auth.RegisterRequest{Username: "a", Password: "short", PasswordConfirm: "short"}, "password"},
		{"mismatch", auth.RegisterRequest{Username: "a", Password: "longenough", PasswordConfirm: "longenougH"}, "passwordConfirm"},
		{"empty username", auth.RegisterRequest{Username: "  ", Password: "longenough", PasswordConfirm: "longenough"}, "username"},
		{"bad chars", auth.RegisterRequest{Username: "a b", Password: "longenough", PasswordConfirm: "longenough"}, "username"},
		{"too long", auth.RegisterRequest{Username: strings.Repeat("u", 151), Password: "longenough", PasswordConfirm: "longenough"}, "username"},
		{"bad email", auth.RegisterRequest{Username: "a", Email: "nope", Password: "longenough", PasswordConfirm: "longenough"}, "email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := f.svc.Register(ctx, tt.req)
			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok, "expected AppError, got %v", err)
			assert.Equal(t, apperror.CodeValidation, appErr.Code)
			assert.Equal(t, tt.field, appErr.Details["field"])
		})
	}
}

func TestRegister_Duplicate(t *testing.T) {
	f := newAuthFixture(t)
	register(t, f, "msgarcia")

	_, _, err := f.svc.Register(context.Background(), auth.RegisterRequest{
		Username:        "msgarcia",
		Password:        "another pass",
		PasswordConfirm: "another pass",
	})

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeDuplicate, appErr.Code)
	assert.Equal(t, 409, appErr.HTTPStatus)
}

func TestLogin(t *testing.T) {
	f := newAuthFixture(t)
	user := register(t, f, "msgarcia")

	tokens, got, err := f.svc.Login(context.Background(), auth.Credentials{Username: "msgarcia", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.Equal(t, 2, f.tokens.Active(user.ID))
}

func TestLogin_UnknownUser(t *testing.T) {
	f := newAuthFixture(t)

	_, _, err := f.svc.Login(context.Background(), auth.Credentials{Username: "ghost", Password: "x"})

	assert.Equal(t, 401, apperror.GetHTTPStatus(err))
}

func TestLogin_LocksAfterRepeatedFailures(t *testing.T) {
	f := newAuthFixture(t)
	user := register(t, f, "msgarcia")
	ctx := context.Background()

	for range 3 {
		_, _, err := f.svc.Login(ctx, auth.Credentials{Username: "msgarcia", Password: "wrong"})
		assert.Equal(t, 401, apperror.GetHTTPStatus(err))
	}

	_, _, err := f.svc.Login(ctx, auth.Credentials{Username: "msgarcia", Password: "correct horse"})
	assert.Equal(t, 403, apperror.GetHTTPStatus(err))

	stored, err := f.users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.FailedLoginAttempts)
	assert.NotNil(t, stored.LockedUntil)
}

func TestRefreshToken_Rotates(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user, first, err := f.svc.Register(ctx, auth.RegisterRequest{
		Username: "msgarcia", Password: "correct horse", PasswordConfirm: "correct horse",
	})
	require.NoError(t, err)

	second, err := f.svc.RefreshToken(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
	assert.Equal(t, 1, f.tokens.Active(user.ID))

	_, err = f.svc.RefreshToken(ctx, first.RefreshToken)
	assert.Equal(t, 401, apperror.GetHTTPStatus(err))
}

func TestRefreshToken_Unknown(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.RefreshToken(context.Background(), "deadbeef")

	assert.Equal(t, 401, apperror.GetHTTPStatus(err))
}

func TestLogout_RevokesRefreshTokens(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user, tokens, err := f.svc.Register(ctx, auth.RegisterRequest{
		Username: "msgarcia", Password: "correct horse", PasswordConfirm: "correct horse",
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, user.ID))

	assert.Zero(t, f.tokens.Active(user.ID))
	_, err = f.svc.RefreshToken(ctx, tokens.RefreshToken)
	assert.Equal(t, 401, apperror.GetHTTPStatus(err))
}

func TestGetUserByID(t *testing.T) {
	f := newAuthFixture(t)
	user := register(t, f, "msgarcia")

	got, err := f.svc.GetUserByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "msgarcia", got.Username)
}

func TestCleanupTokens(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user := register(t, f, "msgarcia")
	require.NoError(t, f.svc.Logout(ctx, user.ID))

	n, err := f.svc.CleanupTokens(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
