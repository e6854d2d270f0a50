package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/fixora/storefront/application/port/inbound"
	"github.com/fixora/storefront/infrastructure/service/logger"
	"github.com/fixora/storefront/pkg/requestctx"
)

// rateLimitService counts attempts with INCR/EXPIRE and stores blocks as
// hashes under blocked:<key>.
type rateLimitService struct {
	redisClient *redis.Client
	logger      logger.Logger
	now         func() time.Time
}

type RateLimitConfig struct {
	Enabled  bool
	RedisURL string
}

// NewRateLimitService returns a no-op limiter when disabled or when no Redis
// URL is configured.
func NewRateLimitService(ctx context.Context, config RateLimitConfig, log logger.Logger) (inbound.RateLimitService, func() error, error) {
	if !config.Enabled || config.RedisURL == "" {
		log.Info(ctx, "Rate limiting disabled", map[string]interface{}{
			"enabled":   config.Enabled,
			"redis_set": config.RedisURL != "",
		})
		return NewNoopRateLimitService(), func() error { return nil }, nil
	}

	opt, err := redis.ParseURL(config.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	redisClient := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		_ = redisClient.Close()
		return nil, nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Info(ctx, "Rate limiting service initialized", map[string]interface{}{
		"redis_addr": opt.Addr,
	})

	return NewWithClient(redisClient, log), redisClient.Close, nil
}

func NewWithClient(client *redis.Client, log logger.Logger) inbound.RateLimitService {
	return &rateLimitService{
		redisClient: client,
		logger:      log,
		now:         time.Now,
	}
}

// CheckLimit reports whether key is still under limit.
func (s *rateLimitService) CheckLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	currentCount, err := s.GetAttempts(ctx, key)
	if err != nil {
		return false, err
	}

	isUnderLimit := currentCount < limit
	s.logger.Debug(ctx, "Rate limit check", map[string]interface{}{
		"key":         key,
		"current":     currentCount,
		"limit":       limit,
		"under_limit": isUnderLimit,
	})

	return isUnderLimit, nil
}

// Increment bumps the counter; the window starts at the first increment.
func (s *rateLimitService) Increment(ctx context.Context, key string, window time.Duration) error {
	count, err := s.redisClient.Incr(ctx, key).Result()
	if err != nil {
		s.logger.Error(ctx, "Failed to increment rate limit counter", err, map[string]interface{}{"key": key})
		return fmt.Errorf("failed to increment rate limit: %w", err)
	}

	if count == 1 {
		if err := s.redisClient.Expire(ctx, key, window).Err(); err != nil {
			return fmt.Errorf("failed to set rate limit window: %w", err)
		}
	}

	s.logger.Debug(ctx, "Rate limit incremented", map[string]interface{}{
		"key":    key,
		"count":  count,
		"window": window.String(),
	})
	return nil
}

func (s *rateLimitService) Block(ctx context.Context, key string, duration time.Duration, reason string) error {
	blockKey := fmt.Sprintf("blocked:%s", key)

	blockData := map[string]interface{}{
		"reason":         reason,
		"blocked_at":     s.now().Unix(),
		"duration":       int64(duration.Seconds()),
		"correlation_id": requestctx.CorrelationID(ctx),
	}

	pipeline := s.redisClient.TxPipeline()
	pipeline.HSet(ctx, blockKey, blockData)
	pipeline.Expire(ctx, blockKey, duration)

	if _, err := pipeline.Exec(ctx); err != nil {
		s.logger.Error(ctx, "Failed to block key", err, map[string]interface{}{"key": key})
		return fmt.Errorf("failed to block key: %w", err)
	}

	s.logger.Warn(ctx, "Key blocked due to rate limit exceeded", map[string]interface{}{
		"key":      key,
		"duration": duration.String(),
		"reason":   reason,
	})
	return nil
}

func (s *rateLimitService) IsBlocked(ctx context.Context, key string) (bool, error) {
	exists, err := s.redisClient.Exists(ctx, fmt.Sprintf("blocked:%s", key)).Result()
	if err != nil {
		s.logger.Error(ctx, "Failed to check block status", err, map[string]interface{}{"key": key})
		return false, fmt.Errorf("failed to check block status: %w", err)
	}
	return exists > 0, nil
}

func (s *rateLimitService) GetAttempts(ctx context.Context, key string) (int, error) {
	count, err := s.redisClient.Get(ctx, key).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		s.logger.Error(ctx, "Failed to get attempts count", err, map[string]interface{}{"key": key})
		return 0, fmt.Errorf("failed to get attempts: %w", err)
	}
	return count, nil
}

// noopRateLimitService allows everything; used when rate limiting is disabled.
type noopRateLimitService struct{}

func NewNoopRateLimitService() inbound.RateLimitService {
	return &noopRateLimitService{}
}

func (n *noopRateLimitService) CheckLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	return true, nil
}

func (n *noopRateLimitService) Increment(ctx context.Context, key string, window time.Duration) error {
	return nil
}

func (n *noopRateLimitService) Block(ctx context.Context, key string, duration time.Duration, reason string) error {
	return nil
}

func (n *noopRateLimitService) IsBlocked(ctx context.Context, key string) (bool, error) {
	return false, nil
}

func (n *noopRateLimitService) GetAttempts(ctx context.Context, key string) (int, error) {
	return 0, nil
}
