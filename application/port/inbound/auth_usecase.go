package inbound

import (
	"context"

	"github.com/fixora/storefront/domain/valueobject"
)

type RegisterRequest struct {
	Username string `json:"username" form:"username" validate:"required,min=3,max=64,username"`
	Password string `json:"password" form:"password" validate:"required,min=3,max=72"`
}

type LoginRequest struct {
	Username string `json:"username" form:"username" validate:"required,max=64"`
	Password string `json:"password" form:"password" validate:"required,max=72"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type MeResponse struct {
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Message   string `json:"message"`
}

type AuthUseCase interface {
	Register(ctx context.Context, req RegisterRequest) (*valueobject.TokenPair, error)
	Login(ctx context.Context, req LoginRequest) (*valueobject.TokenPair, error)
	Refresh(ctx context.Context, req RefreshRequest) (*valueobject.TokenPair, error)
	Logout(ctx context.Context, username string) error
	// Authorize verifies an access token and returns the username it was minted for.
	Authorize(ctx context.Context, accessToken string) (string, error)
	Me(ctx context.Context, username string) (*MeResponse, error)
}
