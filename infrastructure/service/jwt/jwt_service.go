package jwt

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/fixora/storefront/application/port/outbound"
)

const (
	tokenTypeAccess = "access"
	refreshTokenLen = 32
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

type Config struct {
	Secret         string
	AccessTokenTTL time.Duration
	// Now is the clock used both for minting and for exp checks. Defaults to time.Now.
	Now func() time.Time
}

type accessClaims struct {
	Type string `json:"type"`
	jwt.RegisteredClaims
}

type JWTService struct {
	hmacSecret []byte
	ttl        time.Duration
	now        func() time.Time
	parser     *jwt.Parser
}

func NewJWTService(cfg Config) (*JWTService, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("jwt secret must not be empty")
	}
	if cfg.AccessTokenTTL <= 0 {
		return nil, fmt.Errorf("access token ttl must be positive, got %s", cfg.AccessTokenTTL)
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &JWTService{
		hmacSecret: []byte(cfg.Secret),
		ttl:        cfg.AccessTokenTTL,
		now:        now,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
			jwt.WithTimeFunc(now),
		),
	}, nil
}

func (s *JWTService) AccessTokenTTL() time.Duration {
	return s.ttl
}

func (s *JWTService) GenerateAccessToken(username string) (string, error) {
	issuedAt := s.now()
	claims := accessClaims{
		Type: tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.ttl)),
		},
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.hmacSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}

	return tokenString, nil
}

// GenerateRefreshToken returns an opaque random handle; it is not a JWT.
func (s *JWTService) GenerateRefreshToken() (string, error) {
	buf := make([]byte, refreshTokenLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func (s *JWTService) ValidateAccessToken(tokenString string) (*outbound.TokenClaims, error) {
	claims := &accessClaims{}
	token, err := s.parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.hmacSecret, nil
	})
	if err != nil {
		return nil, s.handleValidationError(err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.Type != tokenTypeAccess || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	out := &outbound.TokenClaims{
		Username:  claims.Subject,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	return out, nil
}

func (s *JWTService) handleValidationError(err error) error {
	if errors.Is(err, jwt.ErrTokenExpired) {
		return ErrTokenExpired
	}
	return ErrInvalidToken
}
