package outbound

import (
	"context"
	"time"

	"github.com/fixora/storefront/domain/entity"
)

type RefreshTokenRepository interface {
	Create(ctx context.Context, token *entity.RefreshToken) error
	// Consume deletes the token if it exists and has not expired at now, returning its owner.
	// Absent or expired tokens yield domainerr.ErrInvalidRefreshToken.
	Consume(ctx context.Context, token string, now time.Time) (string, error)
	// Rotate consumes token and persists next in a single transaction. An expired
	// token is still deleted, but no successor is stored.
	Rotate(ctx context.Context, token string, next *entity.RefreshToken, now time.Time) (string, error)
	RevokeByUsername(ctx context.Context, username string) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
