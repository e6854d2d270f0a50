package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/fixora/storefront/application/port/inbound"
	domainerr "github.com/fixora/storefront/domain/error"
	"github.com/fixora/storefront/infrastructure/http/response"
)

type authUserKey struct{}

type AuthMiddleware struct {
	auth inbound.AuthUseCase
}

func NewAuthMiddleware(auth inbound.AuthUseCase) *AuthMiddleware {
	return &AuthMiddleware{auth: auth}
}

// RequireAuth accepts only a bearer Authorization header.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return m.require(next, false)
}

// RequireStreamAuth also accepts ?token= because EventSource cannot set headers.
func (m *AuthMiddleware) RequireStreamAuth(next http.Handler) http.Handler {
	return m.require(next, true)
}

func (m *AuthMiddleware) require(next http.Handler, allowQuery bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok && allowQuery {
			token = r.URL.Query().Get("token")
		}
		if token == "" {
			response.FromError(w, domainerr.ErrInvalidAccessToken)
			return
		}

		username, err := m.auth.Authorize(r.Context(), token)
		if err != nil {
			response.FromError(w, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUsername(r.Context(), username)))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

func WithUsername(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, authUserKey{}, username)
}

// Username returns the authenticated username stored by RequireAuth.
func Username(ctx context.Context) (string, bool) {
	u, ok := ctx.Value(authUserKey{}).(string)
	return u, ok && u != ""
}
