package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/stemsi/compass-backend/internal/config"
	"github.com/stemsi/compass-backend/internal/model"
	"github.com/stemsi/compass-backend/internal/store"
)

// TokenType distinguishes HR vs candidate tokens.
type TokenType string

const (
	TokenTypeHR        TokenType = "hr"
	TokenTypeCandidate TokenType = "candidate"
)

// candidateTokenTTL covers one sitting of the assessment.
const candidateTokenTTL = 6 * time.Hour

// Claims extends JWT standard claims with app-specific fields.
type Claims struct {
	jwt.RegisteredClaims
	TokenType   TokenType    `json:"token_type"`
	UserID      int          `json:"user_id,omitempty"`     // HR only
	Role        model.HRRole `json:"role,omitempty"`        // HR only
	Permissions []string     `json:"permissions,omitempty"` // HR only
	SessionID   string       `json:"session_id,omitempty"`  // Candidate only
}

// AuthService handles HR login, JWT issuing and single-device sessions.
type AuthService struct {
	cfg   *config.Config
	cache store.KV
	users HRUserStore
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config, cache store.KV, users HRUserStore) *AuthService {
	return &AuthService{cfg: cfg, cache: cache, users: users}
}

// HashPassword hashes a password with the configured bcrypt cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	return string(hash), err
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func (s *AuthService) CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// Login verifies credentials and issues a token. A new login replaces any
// earlier session of the same user.
func (s *AuthService) Login(ctx context.Context, req model.HRLoginRequest) (*model.HRLoginResponse, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get hr user: %w", err)
	}
	if err := s.CheckPassword(user.PasswordHash, req.Password); err != nil {
		return nil, err
	}

	perms := model.PermissionsFor(user.Role)
	token, err := s.GenerateHRToken(ctx, user, perms)
	if err != nil {
		return nil, err
	}
	return &model.HRLoginResponse{Token: token, User: *user, Permissions: perms}, nil
}

// Me returns the HR user behind a token.
func (s *AuthService) Me(ctx context.Context, userID int) (*model.HRUser, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionInvalidated
		}
		return nil, fmt.Errorf("get hr user: %w", err)
	}
	return user, nil
}

// GenerateHRToken creates a JWT for an HR user and registers its id in Redis.
func (s *AuthService) GenerateHRToken(ctx context.Context, user *model.HRUser, permissions []string) (string, error) {
	jti := uuid.NewString()
	now := time.Now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   strconv.Itoa(user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWTExpiry)),
		},
		TokenType:   TokenTypeHR,
		UserID:      user.ID,
		Role:        user.Role,
		Permissions: permissions,
	}

	signed, err := s.sign(claims)
	if err != nil {
		return "", err
	}

	if err := s.cache.Set(ctx, config.CacheKey.HRSessionKey(user.ID), jti, s.cfg.JWTExpiry).Err(); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return signed, nil
}

// GenerateCandidateToken creates a JWT bound to one assessment session.
func (s *AuthService) GenerateCandidateToken(sessionID uuid.UUID) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   sessionID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(candidateTokenTTL)),
		},
		TokenType: TokenTypeCandidate,
		SessionID: sessionID.String(),
	}
	return s.sign(claims)
}

func (s *AuthService) sign(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and validates a JWT, returning the claims.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// ValidateHRSession checks that the token's JTI matches the active session in Redis.
func (s *AuthService) ValidateHRSession(ctx context.Context, userID int, jti string) error {
	stored, err := s.cache.Get(ctx, config.CacheKey.HRSessionKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrSessionInvalidated
		}
		return fmt.Errorf("check session: %w", err)
	}
	if stored != jti {
		return ErrSessionInvalidated
	}
	return nil
}

// Logout removes the user's session from Redis.
func (s *AuthService) Logout(ctx context.Context, userID int) error {
	return s.cache.Del(ctx, config.CacheKey.HRSessionKey(userID)).Err()
}
