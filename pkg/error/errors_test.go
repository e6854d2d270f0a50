package error

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	domainerr "github.com/fixora/storefront/domain/error"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
	}{
		{
			name:        "conflict",
			err:         fmt.Errorf("register: %w", domainerr.ErrUsernameTaken),
			wantStatus:  http.StatusConflict,
			wantMessage: "username already registered",
		},
		{
			name:        "bad credentials",
			err:         domainerr.ErrInvalidCredentials,
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "invalid username or password",
		},
		{
			name:        "validation keeps details",
			err:         domainerr.NewValidationError("price must be >= 0"),
			wantStatus:  http.StatusUnprocessableEntity,
			wantMessage: "price must be >= 0",
		},
		{
			name:        "unknown error is internal",
			err:         errors.New("pq: connection refused"),
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantStatus, StatusCode(tt.err))
			assert.Equal(t, tt.wantMessage, PublicMessage(tt.err))
		})
	}
}

func TestAppErrorIsMatchesCopies(t *testing.T) {
	withCause := domainerr.ErrInvalidRefreshToken.WithCause(errors.New("no rows"))
	assert.ErrorIs(t, withCause, domainerr.ErrInvalidRefreshToken)
	assert.NotErrorIs(t, withCause, domainerr.ErrInvalidAccessToken)

	wrapped := fmt.Errorf("refresh: %w", withCause)
	assert.ErrorIs(t, wrapped, domainerr.ErrInvalidRefreshToken)
}

func TestMapErrorNil(t *testing.T) {
	assert.Nil(t, MapError(nil))
	assert.Equal(t, http.StatusOK, StatusCode(nil))
}
