package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"studentrecords/internal/core/apperror"
	"studentrecords/internal/core/id"
	"studentrecords/internal/core/tx"
	"studentrecords/pkg/logger"
)

// ServiceConfig holds auth service configuration.
type ServiceConfig struct {
	MaxLoginAttempts   int
	LockDuration       time.Duration
	PasswordMinLength  int
	RefreshTokenExpiry time.Duration
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// DefaultServiceConfig returns default configuration.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		MaxLoginAttempts:   5,
		LockDuration:       15 * time.Minute,
		PasswordMinLength:  8,
		RefreshTokenExpiry: 7 * 24 * time.Hour,
		BcryptCost:         bcrypt.DefaultCost,
	}
}

// Service provides registration, login and token handling.
type Service struct {
	userRepo   UserRepository
	tokenRepo  TokenRepository
	txManager  tx.Manager
	jwtService *JWTService
	config     ServiceConfig
	now        func() time.Time
}

// NewService creates a new auth service. A nil txManager runs without transactions.
func NewService(
	userRepo UserRepository,
	tokenRepo TokenRepository,
	txManager tx.Manager,
	jwtService *JWTService,
	config ServiceConfig,
) *Service {
	if txManager == nil {
		txManager = tx.Passthrough{}
	}
	if config.BcryptCost == 0 {
		config.BcryptCost = bcrypt.DefaultCost
	}
	clock := config.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		userRepo:   userRepo,
		tokenRepo:  tokenRepo,
		txManager:  txManager,
		jwtService: jwtService,
		config:     config,
		now:        clock,
	}
}

// Register creates a user and logs them in.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, *TokenPair, error) {
	if len(req.Password) < s.config.PasswordMinLength {
		return nil, nil, apperror.NewValidation(
			fmt.Sprintf("password must be at least %d characters", s.config.PasswordMinLength),
		).WithDetail("field", "password")
	}
	// bcrypt rejects longer input.
	if len(req.Password) > 72 {
		return nil, nil, apperror.NewValidation("password must be at most 72 bytes").
			WithDetail("field", "password")
	}
	if req.Password != req.PasswordConfirm {
		return nil, nil, apperror.NewValidation("passwords do not match").
			WithDetail("field", "passwordConfirm")
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.config.BcryptCost)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	user := NewUser(strings.TrimSpace(req.Username), string(passwordHash), s.now())
	user.Email = strings.TrimSpace(req.Email)
	user.FirstName = strings.TrimSpace(req.FirstName)
	user.LastName = strings.TrimSpace(req.LastName)
	if err := user.Validate(ctx); err != nil {
		return nil, nil, err
	}

	var tokens *TokenPair
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		exists, err := s.userRepo.ExistsUsername(ctx, user.Username)
		if err != nil {
			return fmt.Errorf("check username exists: %w", err)
		}
		if exists {
			return apperror.NewDuplicate("user", "username", user.Username)
		}

		if user.Email != "" {
			exists, err = s.userRepo.ExistsEmail(ctx, user.Email)
			if err != nil {
				return fmt.Errorf("check email exists: %w", err)
			}
			if exists {
				return apperror.NewDuplicate("user", "email", user.Email)
			}
		}

		user.RecordSuccessfulLogin(user.CreatedAt)
		if err := s.userRepo.Create(ctx, user); err != nil {
			return fmt.Errorf("create user: %w", err)
		}

		tokens, err = s.generateTokenPair(ctx, user)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	logger.Info(ctx, "user registered", "user_id", user.ID, "username", user.Username)
	return user, tokens, nil
}

// Login authenticates user and returns tokens.
func (s *Service) Login(ctx context.Context, creds Credentials) (*TokenPair, *User, error) {
	user, err := s.userRepo.GetByUsername(ctx, strings.TrimSpace(creds.Username))
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, nil, apperror.NewUnauthorized("invalid credentials")
		}
		return nil, nil, fmt.Errorf("get user: %w", err)
	}

	now := s.now()
	if err := user.CanLogin(now); err != nil {
		return nil, nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)); err != nil {
		user.RecordFailedLogin(now, s.config.MaxLoginAttempts, s.config.LockDuration)
		if err := s.userRepo.Update(ctx, user); err != nil {
			logger.Warn(ctx, "failed to record failed login", "user_id", user.ID, "error", err)
		}
		if user.IsLocked(now) {
			logger.Warn(ctx, "account locked", "user_id", user.ID, "until", user.LockedUntil)
		}
		return nil, nil, apperror.NewUnauthorized("invalid credentials")
	}

	var tokens *TokenPair
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		user.RecordSuccessfulLogin(now)
		if err := s.userRepo.Update(ctx, user); err != nil {
			return fmt.Errorf("record login: %w", err)
		}
		tokens, err = s.generateTokenPair(ctx, user)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	logger.Info(ctx, "user logged in", "user_id", user.ID, "username", user.Username)
	return tokens, user, nil
}

// RefreshToken exchanges a refresh token for a new pair. The old token is revoked.
func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	token, err := s.tokenRepo.GetRefreshToken(ctx, hashToken(refreshToken))
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewUnauthorized("invalid refresh token")
		}
		return nil, fmt.Errorf("get refresh token: %w", err)
	}

	now := s.now()
	if !token.IsValid(now) {
		return nil, apperror.NewUnauthorized("refresh token expired or revoked")
	}

	user, err := s.userRepo.GetByID(ctx, token.UserID)
	if err != nil {
		return nil, apperror.NewUnauthorized("user not found")
	}
	if err := user.CanLogin(now); err != nil {
		return nil, err
	}

	var tokens *TokenPair
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.tokenRepo.RevokeRefreshToken(ctx, token.ID, "refreshed"); err != nil {
			return fmt.Errorf("revoke refresh token: %w", err)
		}
		tokens, err = s.generateTokenPair(ctx, user)
		return err
	})
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

// Logout revokes all of the user's refresh tokens.
func (s *Service) Logout(ctx context.Context, userID id.ID) error {
	if err := s.tokenRepo.RevokeAllUserTokens(ctx, userID, "logout"); err != nil {
		return fmt.Errorf("revoke tokens: %w", err)
	}
	logger.Info(ctx, "user logged out", "user_id", userID)
	return nil
}

// CleanupTokens deletes refresh tokens that expired or were revoked more than retention ago.
func (s *Service) CleanupTokens(ctx context.Context, retention time.Duration) (int, error) {
	n, err := s.tokenRepo.CleanupExpiredTokens(ctx, s.now().Add(-retention))
	if err != nil {
		return 0, fmt.Errorf("cleanup tokens: %w", err)
	}
	logger.Info(ctx, "refresh tokens cleaned up", "deleted", n)
	return n, nil
}

// GetUserByID retrieves a user.
func (s *Service) GetUserByID(ctx context.Context, userID id.ID) (*User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("user", userID.String())
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// JWT returns the token service used by the auth middleware.
func (s *Service) JWT() *JWTService {
	return s.jwtService
}

func (s *Service) generateTokenPair(ctx context.Context, user *User) (*TokenPair, error) {
	accessToken, expiresAt, err := s.jwtService.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	refreshTokenRaw, err := generateRandomToken(32)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	now := s.now().UTC().Truncate(time.Microsecond)
	refreshToken := &RefreshToken{
		ID:        id.New(),
		UserID:    user.ID,
		TokenHash: hashToken(refreshTokenRaw),
		ExpiresAt: now.Add(s.config.RefreshTokenExpiry),
		CreatedAt: now,
	}
	if err := s.tokenRepo.SaveRefreshToken(ctx, refreshToken); err != nil {
		return nil, fmt.Errorf("save refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshTokenRaw,
		ExpiresAt:    expiresAt,
		TokenType:    "Bearer",
	}, nil
}

// hashToken creates SHA256 hash of token.
func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

func generateRandomToken(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
