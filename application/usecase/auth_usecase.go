package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fixora/storefront/application/port/inbound"
	"github.com/fixora/storefront/application/port/outbound"
	domainerr "github.com/fixora/storefront/domain/error"
	"github.com/fixora/storefront/domain/valueobject"
	"github.com/fixora/storefront/infrastructure/service/logger"
	"github.com/fixora/storefront/pkg/requestctx"
)

// LoginPolicy blocks a client IP after MaxFailures failed logins inside Window.
type LoginPolicy struct {
	MaxFailures int
	Window      time.Duration
	BlockFor    time.Duration
}

func DefaultLoginPolicy() LoginPolicy {
	return LoginPolicy{
		MaxFailures: 5,
		Window:      15 * time.Minute,
		BlockFor:    30 * time.Minute,
	}
}

// BlockKey is the rate limiter key the HTTP middleware checks for ip.
func BlockKey(ip string) string {
	return fmt.Sprintf("ip:%s", ip)
}

func failedLoginKey(ip string) string {
	return fmt.Sprintf("login_failed:%s", ip)
}

type AuthUseCase struct {
	credentials *CredentialStore
	issuer      *TokenIssuer
	transactor  outbound.Transactor
	rateLimit   inbound.RateLimitService
	policy      LoginPolicy
	logger      logger.Logger
}

// NewAuthUseCase wires the auth gateway. rateLimit may be nil.
func NewAuthUseCase(
	credentials *CredentialStore,
	issuer *TokenIssuer,
	transactor outbound.Transactor,
	rateLimit inbound.RateLimitService,
	policy LoginPolicy,
	log logger.Logger,
) *AuthUseCase {
	return &AuthUseCase{
		credentials: credentials,
		issuer:      issuer,
		transactor:  transactor,
		rateLimit:   rateLimit,
		policy:      policy,
		logger:      log,
	}
}

var _ inbound.AuthUseCase = (*AuthUseCase)(nil)

// Register creates the user and its first refresh token in one transaction,
// so a failure leaves no user row behind.
func (uc *AuthUseCase) Register(ctx context.Context, req inbound.RegisterRequest) (*valueobject.TokenPair, error) {
	ip := requestctx.ClientIP(ctx)

	var pair *valueobject.TokenPair
	err := uc.transactor.WithTx(ctx, func(ctx context.Context) error {
		user, err := uc.credentials.Create(ctx, req.Username, req.Password)
		if err != nil {
			return err
		}
		pair, err = uc.issuePair(ctx, user.Username)
		return err
	})
	if err != nil {
		if errors.Is(err, domainerr.ErrUsernameTaken) {
			logger.LogAuthEvent(ctx, uc.logger, "register_conflict", req.Username, ip, false, nil)
		} else if !errors.Is(err, domainerr.ErrValidation) {
			uc.logger.Error(ctx, "Registration failed", err, map[string]interface{}{
				"username": req.Username,
			})
		}
		return nil, err
	}

	logger.LogAuthEvent(ctx, uc.logger, "register_success", req.Username, ip, true, nil)
	return pair, nil
}

func (uc *AuthUseCase) Login(ctx context.Context, req inbound.LoginRequest) (*valueobject.TokenPair, error) {
	ip := requestctx.ClientIP(ctx)

	user, err := uc.credentials.Verify(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, domainerr.ErrInvalidCredentials) {
			logger.LogAuthEvent(ctx, uc.logger, "login_failed", req.Username, ip, false, nil)
			uc.recordFailure(ctx, ip)
			return nil, err
		}
		uc.logger.Error(ctx, "Login failed", err, map[string]interface{}{
			"username": req.Username,
		})
		return nil, err
	}

	pair, err := uc.issuePair(ctx, user.Username)
	if err != nil {
		uc.logger.Error(ctx, "Failed to issue tokens", err, map[string]interface{}{
			"username": user.Username,
		})
		return nil, err
	}

	logger.LogAuthEvent(ctx, uc.logger, "login_success", user.Username, ip, true, nil)
	return pair, nil
}

// Refresh rotates the presented refresh token. Replaying a consumed token
// fails with ErrInvalidRefreshToken.
func (uc *AuthUseCase) Refresh(ctx context.Context, req inbound.RefreshRequest) (*valueobject.TokenPair, error) {
	ip := requestctx.ClientIP(ctx)

	username, next, err := uc.issuer.Rotate(ctx, req.RefreshToken)
	if err != nil {
		if errors.Is(err, domainerr.ErrInvalidRefreshToken) {
			logger.LogSecurityEvent(ctx, uc.logger, "refresh_token_rejected", "MEDIUM", map[string]interface{}{
				"ip": ip,
			})
			return nil, err
		}
		uc.logger.Error(ctx, "Failed to rotate refresh token", err, nil)
		return nil, err
	}

	access, err := uc.issuer.MintAccess(username)
	if err != nil {
		return nil, err
	}

	logger.LogAuthEvent(ctx, uc.logger, "token_refreshed", username, ip, true, nil)
	return valueobject.NewTokenPair(access, next, int(uc.issuer.AccessTokenTTL().Seconds())), nil
}

func (uc *AuthUseCase) Logout(ctx context.Context, username string) error {
	n, err := uc.issuer.RevokeAll(ctx, username)
	if err != nil {
		uc.logger.Error(ctx, "Failed to revoke refresh tokens", err, map[string]interface{}{
			"username": username,
		})
		return err
	}
	logger.LogAuthEvent(ctx, uc.logger, "logout", username, requestctx.ClientIP(ctx), true, map[string]interface{}{
		"revoked": n,
	})
	return nil
}

// Authorize resolves a bearer token to a username that still exists.
func (uc *AuthUseCase) Authorize(ctx context.Context, accessToken string) (string, error) {
	username, err := uc.issuer.VerifyAccess(accessToken)
	if err != nil {
		return "", err
	}
	if _, err := uc.credentials.Find(ctx, username); err != nil {
		if errors.Is(err, domainerr.ErrNotFound) {
			return "", domainerr.ErrInvalidAccessToken
		}
		return "", err
	}
	return username, nil
}

func (uc *AuthUseCase) Me(ctx context.Context, username string) (*inbound.MeResponse, error) {
	user, err := uc.credentials.Find(ctx, username)
	if err != nil {
		// a valid token for a user that no longer exists
		if errors.Is(err, domainerr.ErrNotFound) {
			return nil, domainerr.ErrInvalidAccessToken
		}
		return nil, err
	}
	return &inbound.MeResponse{
		Username:  user.Username,
		AvatarURL: user.AvatarURL,
		Message:   fmt.Sprintf("Hello, %s", user.Username),
	}, nil
}

// Prune drops expired refresh tokens; run at startup and by the migrate tool.
func (uc *AuthUseCase) Prune(ctx context.Context) (int64, error) {
	n, err := uc.issuer.Prune(ctx)
	if err != nil {
		return 0, err
	}
	uc.logger.Info(ctx, "Pruned expired refresh tokens", map[string]interface{}{
		"deleted": n,
	})
	return n, nil
}

func (uc *AuthUseCase) issuePair(ctx context.Context, username string) (*valueobject.TokenPair, error) {
	access, err := uc.issuer.MintAccess(username)
	if err != nil {
		return nil, err
	}
	refresh, err := uc.issuer.MintRefresh(ctx, username)
	if err != nil {
		return nil, err
	}
	return valueobject.NewTokenPair(access, refresh, int(uc.issuer.AccessTokenTTL().Seconds())), nil
}

// recordFailure counts a failed login and blocks the IP once the policy is
// exceeded. Limiter errors are logged, never surfaced to the caller.
func (uc *AuthUseCase) recordFailure(ctx context.Context, ip string) {
	if uc.rateLimit == nil || uc.policy.MaxFailures <= 0 {
		return
	}

	key := failedLoginKey(ip)
	if err := uc.rateLimit.Increment(ctx, key, uc.policy.Window); err != nil {
		uc.logger.Error(ctx, "Failed to count failed login", err, map[string]interface{}{"ip": ip})
		return
	}
	attempts, err := uc.rateLimit.GetAttempts(ctx, key)
	if err != nil {
		uc.logger.Error(ctx, "Failed to read failed login count", err, map[string]interface{}{"ip": ip})
		return
	}
	if attempts < uc.policy.MaxFailures {
		return
	}

	if err := uc.rateLimit.Block(ctx, BlockKey(ip), uc.policy.BlockFor, "too many failed logins"); err != nil {
		uc.logger.Error(ctx, "Failed to block IP", err, map[string]interface{}{"ip": ip})
		return
	}
	logger.LogSecurityEvent(ctx, uc.logger, "ip_blocked_failed_logins", "HIGH", map[string]interface{}{
		"ip":       ip,
		"attempts": attempts,
	})
}
