package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fixora/storefront/infrastructure/service/logger"
	"github.com/fixora/storefront/infrastructure/service/ratelimit"
)

func TestClientIPResolver(t *testing.T) {
	resolver, err := NewClientIPResolver([]string{"10.0.0.0/8", "192.0.2.10", " "})
	require.NoError(t, err)

	tests := []struct {
		name       string
		remoteAddr string
		xff        []string
		realIP     string
		want       string
	}{
		{
			name:       "untrusted peer ignores forwarded for",
			remoteAddr: "203.0.113.50:4000",
			xff:        []string{"198.51.100.1"},
			want:       "203.0.113.50",
		},
		{
			name:       "untrusted peer ignores real ip",
			remoteAddr: "203.0.113.50:4000",
			realIP:     "198.51.100.1",
			want:       "203.0.113.50",
		},
		{
			name:       "trusted peer uses forwarded for",
			remoteAddr: "10.1.2.3:4000",
			xff:        []string{"198.51.100.1"},
			want:       "198.51.100.1",
		},
		{
			name:       "spoofed leftmost entry is skipped",
			remoteAddr: "10.1.2.3:4000",
			xff:        []string{"1.1.1.1, 198.51.100.1, 10.9.9.9"},
			want:       "198.51.100.1",
		},
		{
			name:       "repeated headers are joined",
			remoteAddr: "192.0.2.10:4000",
			xff:        []string{"1.1.1.1", "198.51.100.1"},
			want:       "198.51.100.1",
		},
		{
			name:       "only trusted hops yields leftmost",
			remoteAddr: "10.1.2.3:4000",
			xff:        []string{"10.0.0.7, 10.0.0.8"},
			want:       "10.0.0.7",
		},
		{
			name:       "garbage hop stops the walk",
			remoteAddr: "10.1.2.3:4000",
			xff:        []string{"not-an-ip, 10.0.0.8"},
			want:       "10.0.0.8",
		},
		{
			name:       "trusted peer falls back to real ip",
			remoteAddr: "10.1.2.3:4000",
			realIP:     "198.51.100.1",
			want:       "198.51.100.1",
		},
		{
			name:       "trusted peer without headers",
			remoteAddr: "10.1.2.3:4000",
			want:       "10.1.2.3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for _, v := range tt.xff {
				req.Header.Add("X-Forwarded-For", v)
			}
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}
			assert.Equal(t, tt.want, resolver.ClientIP(req))
		})
	}
}

func TestNewClientIPResolver_RejectsGarbage(t *testing.T) {
	_, err := NewClientIPResolver([]string{"10.0.0.0/33"})
	assert.Error(t, err)

	_, err = NewClientIPResolver([]string{"proxy.internal"})
	assert.Error(t, err)
}

func TestRateLimitIgnoresRotatingForwardedFor(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	svc := ratelimit.NewWithClient(client, logger.NewNopLogger())

	cfg := RateLimitConfig{Attempts: 2, Window: time.Minute, BlockFor: 30 * time.Minute}
	inner := NewRateLimitMiddleware(svc, cfg, logger.NewNopLogger()).RateLimit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	h := CorrelationIDMiddleware(inner, nil)

	passed := 0
	for i := 0; i < 20; i++ {
		req := httptest.NewRequest(http.MethodPost, "/token", nil)
		req.RemoteAddr = "203.0.113.50:4000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.0.%d", i))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code == http.StatusOK {
			passed++
		}
	}
	assert.Equal(t, 2, passed)
	assert.True(t, mr.Exists("blocked:ip:203.0.113.50"))
}
