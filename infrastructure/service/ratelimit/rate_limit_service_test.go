package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fixora/storefront/infrastructure/service/logger"
)

func newTestService(t *testing.T) (*miniredis.Miniredis, *rateLimitService) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewWithClient(client, logger.NewNopLogger()).(*rateLimitService)
}

func TestRateLimitService_IncrementAndCheck(t *testing.T) {
	mr, svc := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.Increment(ctx, "login_failed:1.2.3.4", time.Minute))
	}

	attempts, err := svc.GetAttempts(ctx, "login_failed:1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)

	allowed, err := svc.CheckLimit(ctx, "login_failed:1.2.3.4", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)

	allowed, err = svc.CheckLimit(ctx, "login_failed:1.2.3.4", 4, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)

	assert.Equal(t, time.Minute, mr.TTL("login_failed:1.2.3.4"))

	mr.FastForward(61 * time.Second)
	attempts, err = svc.GetAttempts(ctx, "login_failed:1.2.3.4")
	require.NoError(t, err)
	assert.Zero(t, attempts)
}

func TestRateLimitService_WindowStartsAtFirstIncrement(t *testing.T) {
	mr, svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Increment(ctx, "k", time.Minute))
	mr.FastForward(40 * time.Second)
	require.NoError(t, svc.Increment(ctx, "k", time.Minute))

	assert.Equal(t, 20*time.Second, mr.TTL("k"))
}

func TestRateLimitService_Block(t *testing.T) {
	mr, svc := newTestService(t)
	ctx := context.Background()

	blocked, err := svc.IsBlocked(ctx, "ip:1.2.3.4")
	require.NoError(t, err)
	assert.False(t, blocked)

	require.NoError(t, svc.Block(ctx, "ip:1.2.3.4", 30*time.Minute, "too many failed logins"))

	blocked, err = svc.IsBlocked(ctx, "ip:1.2.3.4")
	require.NoError(t, err)
	assert.True(t, blocked)
	assert.Equal(t, "too many failed logins", mr.HGet("blocked:ip:1.2.3.4", "reason"))

	mr.FastForward(31 * time.Minute)
	blocked, err = svc.IsBlocked(ctx, "ip:1.2.3.4")
	require.NoError(t, err)
	assert.False(t, blocked)
}

func TestRateLimitService_RedisDown(t *testing.T) {
	mr, svc := newTestService(t)
	mr.Close()

	_, err := svc.GetAttempts(context.Background(), "k")
	assert.Error(t, err)
	assert.Error(t, svc.Increment(context.Background(), "k", time.Minute))
}

func TestNewRateLimitService_DisabledIsNoop(t *testing.T) {
	svc, closeFn, err := NewRateLimitService(context.Background(), RateLimitConfig{Enabled: false}, logger.NewNopLogger())
	require.NoError(t, err)
	require.NoError(t, closeFn())

	allowed, err := svc.CheckLimit(context.Background(), "k", 0, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestNewRateLimitService_Connects(t *testing.T) {
	mr := miniredis.RunT(t)

	svc, closeFn, err := NewRateLimitService(context.Background(), RateLimitConfig{
		Enabled:  true,
		RedisURL: "redis://" + mr.Addr() + "/0",
	}, logger.NewNopLogger())
	require.NoError(t, err)
	defer closeFn()

	require.NoError(t, svc.Increment(context.Background(), "k", time.Minute))
	assert.True(t, mr.Exists("k"))
}

func TestNewRateLimitService_BadURL(t *testing.T) {
	_, _, err := NewRateLimitService(context.Background(), RateLimitConfig{
		Enabled:  true,
		RedisURL: "://nope",
	}, logger.NewNopLogger())
	assert.Error(t, err)
}
