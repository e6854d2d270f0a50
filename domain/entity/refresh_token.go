package entity

import (
	"time"
)

// RefreshToken is a persisted, single-use refresh credential. Token holds the
// raw value only between minting and handing it to the client; the store keeps
// a hash of it.
type RefreshToken struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

func NewRefreshToken(id, username, token string, createdAt, expiresAt time.Time) *RefreshToken {
	return &RefreshToken{
		ID:        id,
		Username:  username,
		Token:     token,
		ExpiresAt: expiresAt,
		CreatedAt: createdAt,
	}
}

func (rt *RefreshToken) IsExpired(now time.Time) bool {
	return !now.Before(rt.ExpiresAt)
}
