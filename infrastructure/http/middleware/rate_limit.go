package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/fixora/storefront/application/port/inbound"
	"github.com/fixora/storefront/application/usecase"
	domainerr "github.com/fixora/storefront/domain/error"
	"github.com/fixora/storefront/infrastructure/http/response"
	"github.com/fixora/storefront/infrastructure/service/logger"
	"github.com/fixora/storefront/pkg/requestctx"
)

type RateLimitConfig struct {
	// Attempts is the number of credential requests an IP may make per Window.
	Attempts int
	Window   time.Duration
	BlockFor time.Duration
}

type RateLimitMiddleware struct {
	rateLimitService inbound.RateLimitService
	cfg              RateLimitConfig
	logger           logger.Logger
}

func NewRateLimitMiddleware(rateLimitService inbound.RateLimitService, cfg RateLimitConfig, logger logger.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		rateLimitService: rateLimitService,
		cfg:              cfg,
		logger:           logger,
	}
}

func requestKey(ip string) string {
	return "rl:" + ip
}

// RateLimit guards the credential endpoints. Limiter failures let the request through.
func (m *RateLimitMiddleware) RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.rateLimitService == nil {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		clientIP := requestctx.ClientIP(ctx)
		blockKey := usecase.BlockKey(clientIP)

		blocked, err := m.rateLimitService.IsBlocked(ctx, blockKey)
		if err != nil {
			m.logger.Error(ctx, "Failed to check block status", err, map[string]interface{}{"ip": clientIP})
		}
		if blocked {
			logger.LogSecurityEvent(ctx, m.logger, "rate_limit_blocked", "MEDIUM", map[string]interface{}{
				"ip":        clientIP,
				"path":      r.URL.Path,
				"userAgent": r.UserAgent(),
			})
			m.reject(w)
			return
		}

		key := requestKey(clientIP)
		allowed, err := m.rateLimitService.CheckLimit(ctx, key, m.cfg.Attempts, m.cfg.Window)
		if err != nil {
			m.logger.Error(ctx, "Failed to check rate limit", err, map[string]interface{}{"ip": clientIP})
			allowed = true
		}
		if !allowed {
			if err := m.rateLimitService.Block(ctx, blockKey, m.cfg.BlockFor, "rate limit exceeded"); err != nil {
				m.logger.Error(ctx, "Failed to block IP", err, map[string]interface{}{"ip": clientIP})
			}
			logger.LogSecurityEvent(ctx, m.logger, "rate_limit_exceeded", "HIGH", map[string]interface{}{
				"ip":        clientIP,
				"path":      r.URL.Path,
				"userAgent": r.UserAgent(),
			})
			m.reject(w)
			return
		}

		if err := m.rateLimitService.Increment(ctx, key, m.cfg.Window); err != nil {
			m.logger.Error(ctx, "Failed to increment rate limit", err, map[string]interface{}{"ip": clientIP})
		}

		next.ServeHTTP(w, r)
	})
}

func (m *RateLimitMiddleware) reject(w http.ResponseWriter) {
	w.Header().Set("Retry-After", strconv.Itoa(int(m.cfg.BlockFor.Seconds())))
	response.FromError(w, domainerr.ErrRateLimited)
}
