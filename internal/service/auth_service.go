package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/etesthub-backend/internal/config"
	"github.com/stemsi/etesthub-backend/internal/model"
	"github.com/stemsi/etesthub-backend/internal/remote"
)

// Claims extends JWT standard claims with the caller's identity.
type Claims struct {
	jwt.RegisteredClaims
	UserID   string     `json:"user_id"`
	Name     string     `json:"name,omitempty"`
	Email    string     `json:"email,omitempty"`
	Role     model.Role `json:"role"`
	ClassIDs []string   `json:"class_ids,omitempty"`
}

// User rebuilds the caller from the claims.
func (c *Claims) User() *model.User {
	return &model.User{
		ID:       c.UserID,
		Name:     c.Name,
		Email:    c.Email,
		Role:     c.Role,
		ClassIDs: c.ClassIDs,
	}
}

// Authenticator verifies credentials against the data service and returns
// the user with a data-service token.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*model.User, string, error)
}

// LoginResult is returned to the client after a successful login.
type LoginResult struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      *model.User `json:"user"`
}

// AuthService handles authentication, JWT, and session management. The
// data-service token never leaves the server; it is kept in Redis under the
// JWT's id.
type AuthService struct {
	cfg  *config.Config
	rdb  *redis.Client
	auth Authenticator
	log  zerolog.Logger
	now  func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config, rdb *redis.Client, auth Authenticator, log zerolog.Logger) *AuthService {
	return &AuthService{
		cfg:  cfg,
		rdb:  rdb,
		auth: auth,
		log:  log.With().Str("component", "auth_service").Logger(),
		now:  time.Now,
	}
}

// Login verifies credentials with the data service, stores its token as a
// session and issues a JWT for that session.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (*LoginResult, error) {
	user, remoteToken, err := s.auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, remote.ErrUnauthorized) || errors.Is(err, remote.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("remote login: %w", err)
	}

	jti := uuid.New().String()
	now := s.now()
	expiresAt := now.Add(s.cfg.JWTExpiry)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserID:   user.ID,
		Name:     user.Name,
		Email:    user.Email,
		Role:     user.Role,
		ClassIDs: user.ClassIDs,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	// Store session in Redis with same expiry as JWT.
	userKey := config.CacheKey.UserSessionsKey(user.ID)
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, config.CacheKey.SessionKey(jti), remoteToken, s.cfg.JWTExpiry)
	pipe.SAdd(ctx, userKey, jti)
	pipe.Expire(ctx, userKey, s.cfg.JWTExpiry)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	s.log.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("User logged in")
	return &LoginResult{Token: signed, ExpiresAt: expiresAt, User: user}, nil
}

// ValidateToken parses and validates a JWT, returning the claims.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.ID == "" || claims.UserID == "" {
		return nil, errors.New("invalid token claims")
	}

	return claims, nil
}

// Credential returns the data-service credential of the session behind claims.
func (s *AuthService) Credential(ctx context.Context, claims *Claims) (model.Credential, error) {
	token, err := s.rdb.Get(ctx, config.CacheKey.SessionKey(claims.ID)).Result()
	if errors.Is(err, redis.Nil) {
		return model.Credential{}, ErrSessionExpired
	}
	if err != nil {
		return model.Credential{}, fmt.Errorf("check session: %w", err)
	}
	return model.Credential{UserID: claims.UserID, Token: token}, nil
}

// Logout revokes the session behind claims.
func (s *AuthService) Logout(ctx context.Context, claims *Claims) error {
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, config.CacheKey.SessionKey(claims.ID))
	pipe.SRem(ctx, config.CacheKey.UserSessionsKey(claims.UserID), claims.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	s.log.Info().Str("user_id", claims.UserID).Msg("User logged out")
	return nil
}

// RevokeAll removes every live session of a user.
func (s *AuthService) RevokeAll(ctx context.Context, userID string) (int, error) {
	userKey := config.CacheKey.UserSessionsKey(userID)
	jtis, err := s.rdb.SMembers(ctx, userKey).Result()
	if err != nil {
		return 0, fmt.Errorf("list sessions: %w", err)
	}

	keys := make([]string, 0, len(jtis)+1)
	for _, jti := range jtis {
		keys = append(keys, config.CacheKey.SessionKey(jti))
	}
	keys = append(keys, userKey)

	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		return 0, fmt.Errorf("revoke sessions: %w", err)
	}
	return len(jtis), nil
}
