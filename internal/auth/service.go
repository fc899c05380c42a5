// Package auth implements credential verification and JWT issuance for the
// zoo API. Tokens are HS256-signed, carry the user id, email, and role, and
// expire after the configured TTL (24h by default).
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/yizus58/api-zoo/internal/config"
	"github.com/yizus58/api-zoo/internal/types"
)

// UserReader is the subset of the user repository the auth service needs.
type UserReader interface {
	GetByEmail(ctx context.Context, email string) (*types.User, error)
}

// Claims is the JWT payload. UID/email/role mirror what the rest of the
// API reads from the request context.
type Claims struct {
	UID   string         `json:"uid"`
	Email string         `json:"email"`
	Role  types.UserRole `json:"role"`
	jwt.RegisteredClaims
}

// LoginResult is returned to the client on successful authentication.
type LoginResult struct {
	Token string         `json:"token"`
	User  LoginViewModel `json:"user"`
}

// LoginViewModel is the sanitized user projection embedded in LoginResult.
type LoginViewModel struct {
	ID    string         `json:"id"`
	Email string         `json:"email"`
	Role  types.UserRole `json:"role"`
}

// Service verifies credentials and issues/validates bearer tokens.
type Service struct {
	users  UserReader
	jwtKey []byte
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates an auth Service from configuration.
func NewService(users UserReader, cfg config.AuthConfig, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		users:  users,
		jwtKey: []byte(cfg.JWTKey.Unmask()),
		ttl:    cfg.TokenTTL,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Login verifies the email/password pair and returns a signed token.
// Unknown email and wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		s.logger.WarnContext(ctx, "login attempt for unknown email", "email", email)
		return nil, types.NewAppError(types.ErrCodeAuthInvalidCreds, "invalid credentials", nil)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.WarnContext(ctx, "login attempt with wrong password", "user_id", user.ID)
		return nil, types.NewAppError(types.ErrCodeAuthInvalidCreds, "invalid credentials", nil)
	}

	token, err := s.GenerateToken(user)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalUnexpected, "failed to generate token", err)
	}

	return &LoginResult{
		Token: token,
		User: LoginViewModel{
			ID:    user.ID,
			Email: user.Email,
			Role:  user.Role,
		},
	}, nil
}

// GenerateToken signs a token for the given user.
func (s *Service) GenerateToken(user *types.User) (string, error) {
	now := s.now()
	claims := Claims{
		UID:   user.ID,
		Email: user.Email,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtKey)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// VerifyToken parses and validates a bearer token, returning its claims.
// Expired, malformed, or wrongly-signed tokens all map to the same error
// code.
func (s *Service) VerifyToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return s.jwtKey, nil
	})
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeAuthTokenInvalid, "invalid token", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, types.NewAppError(types.ErrCodeAuthTokenInvalid, "invalid token", nil)
	}
	return claims, nil
}

// HashPassword produces a bcrypt hash for storage.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}
