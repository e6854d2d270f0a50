package outbound

import (
	"context"

	"github.com/fixora/storefront/domain/entity"
)

type UserRepository interface {
	// Create fails with domainerr.ErrUsernameTaken when the username exists.
	Create(ctx context.Context, user *entity.User) error
	// FindByUsername returns domainerr.ErrNotFound when no row matches.
	FindByUsername(ctx context.Context, username string) (*entity.User, error)
	UpdateAvatar(ctx context.Context, username, avatarURL string) error
}
