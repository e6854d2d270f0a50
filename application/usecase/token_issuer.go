package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fixora/storefront/application/port/outbound"
	"github.com/fixora/storefront/domain/entity"
	domainerr "github.com/fixora/storefront/domain/error"
)

// TokenIssuer mints and verifies access tokens and manages the refresh token
// lifecycle on top of the refresh token store. The same clock drives refresh
// expiry here and exp checks inside the TokenService.
type TokenIssuer struct {
	tokens        outbound.TokenService
	refreshTokens outbound.RefreshTokenRepository
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewTokenIssuer(tokens outbound.TokenService, refreshTokens outbound.RefreshTokenRepository, refreshTTL time.Duration, now func() time.Time) *TokenIssuer {
	if now == nil {
		now = time.Now
	}
	return &TokenIssuer{
		tokens:        tokens,
		refreshTokens: refreshTokens,
		refreshTTL:    refreshTTL,
		now:           now,
	}
}

func (i *TokenIssuer) AccessTokenTTL() time.Duration {
	return i.tokens.AccessTokenTTL()
}

func (i *TokenIssuer) MintAccess(username string) (string, error) {
	token, err := i.tokens.GenerateAccessToken(username)
	if err != nil {
		return "", fmt.Errorf("mint access token: %w", err)
	}
	return token, nil
}

// VerifyAccess returns the subject of a valid access token. Every failure is
// reported as ErrInvalidAccessToken.
func (i *TokenIssuer) VerifyAccess(token string) (string, error) {
	if token == "" {
		return "", domainerr.ErrInvalidAccessToken
	}
	claims, err := i.tokens.ValidateAccessToken(token)
	if err != nil {
		return "", domainerr.ErrInvalidAccessToken.WithCause(err)
	}
	return claims.Username, nil
}

// MintRefresh issues and persists a new refresh token for username.
func (i *TokenIssuer) MintRefresh(ctx context.Context, username string) (string, error) {
	rt, err := i.newRefresh(username)
	if err != nil {
		return "", err
	}
	if err := i.refreshTokens.Create(ctx, rt); err != nil {
		return "", fmt.Errorf("store refresh token: %w", err)
	}
	return rt.Token, nil
}

// Rotate consumes token and persists its successor atomically. A token that is
// unknown, expired or already consumed yields ErrInvalidRefreshToken.
func (i *TokenIssuer) Rotate(ctx context.Context, token string) (username, next string, err error) {
	if token == "" {
		return "", "", domainerr.ErrInvalidRefreshToken
	}

	successor, err := i.newRefresh("")
	if err != nil {
		return "", "", err
	}

	username, err = i.refreshTokens.Rotate(ctx, token, successor, i.now())
	if err != nil {
		if errors.Is(err, domainerr.ErrInvalidRefreshToken) {
			return "", "", err
		}
		return "", "", fmt.Errorf("rotate refresh token: %w", err)
	}
	return username, successor.Token, nil
}

func (i *TokenIssuer) RevokeAll(ctx context.Context, username string) (int64, error) {
	n, err := i.refreshTokens.RevokeByUsername(ctx, username)
	if err != nil {
		return 0, fmt.Errorf("revoke refresh tokens: %w", err)
	}
	return n, nil
}

// Prune removes refresh tokens that expired before now.
func (i *TokenIssuer) Prune(ctx context.Context) (int64, error) {
	n, err := i.refreshTokens.DeleteExpired(ctx, i.now())
	if err != nil {
		return 0, fmt.Errorf("delete expired refresh tokens: %w", err)
	}
	return n, nil
}

func (i *TokenIssuer) newRefresh(username string) (*entity.RefreshToken, error) {
	raw, err := i.tokens.GenerateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}
	now := i.now()
	return entity.NewRefreshToken(uuid.NewString(), username, raw, now, now.Add(i.refreshTTL)), nil
}
