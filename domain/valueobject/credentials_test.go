package valueobject

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCredentials(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{name: "valid", username: "alice", password: "pw1pw1"},
		{name: "dots and dashes", username: "a.b-c_d", password: "secret123"},
		{name: "username too short", username: "al", password: "secret123", wantErr: ErrInvalidUsername},
		{name: "username with space", username: "al ice", password: "secret123", wantErr: ErrInvalidUsername},
		{name: "username too long", username: strings.Repeat("a", 65), password: "secret123", wantErr: ErrInvalidUsername},
		{name: "password too short", username: "alice", password: "pw", wantErr: ErrPasswordTooShort},
		{name: "password at bcrypt limit", username: "alice", password: strings.Repeat("p", 72)},
		{name: "password too long", username: "alice", password: strings.Repeat("p", 73), wantErr: ErrPasswordTooLong},
		{name: "multibyte password over byte limit", username: "alice", password: strings.Repeat("é", 40), wantErr: ErrPasswordTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			creds, err := NewCredentials(tt.username, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, creds)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.username, creds.Username())
			assert.Equal(t, tt.password, creds.Password())
		})
	}
}

func TestNewTokenPair(t *testing.T) {
	pair := NewTokenPair("a", "r", 1800)
	assert.Equal(t, "bearer", pair.TokenType)
	assert.Equal(t, 1800, pair.ExpiresIn)
}
