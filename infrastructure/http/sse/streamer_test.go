package sse

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fixora/storefront/application/port/outbound"
	"github.com/fixora/storefront/domain/entity"
	"github.com/fixora/storefront/infrastructure/http/middleware"
	"github.com/fixora/storefront/infrastructure/service/logger"
)

var _ outbound.ProductNotifier = (*Streamer)(nil)

func TestStreamerDeliversProductEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := NewStreamer(Config{HeartbeatInterval: time.Hour, BufferSize: 4, MaxClients: 10}, logger.NewNopLogger())
	s.Start(ctx)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.HandleSSE(w, r.WithContext(middleware.WithUsername(r.Context(), "alice")))
	}))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, ": connected\n", line)

	require.Eventually(t, func() bool { return s.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	s.Publish(outbound.EventProductCreated, &entity.Product{ID: 7, Name: "Lamp", Price: 12.5, OwnerUsername: "bob"})

	var event, data string
	for event == "" || data == "" {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		switch {
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event: "))
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimSpace(strings.TrimPrefix(line, "data: "))
		}
	}
	assert.Equal(t, "product.created", event)
	assert.Contains(t, data, `"name":"Lamp"`)
	assert.Contains(t, data, `"owner_username":"bob"`)
}

func TestStreamerDropsSlowClients(t *testing.T) {
	s := NewStreamer(Config{HeartbeatInterval: time.Hour, BufferSize: 1}, logger.NewNopLogger())

	client, err := s.AddClient(context.Background(), "alice")
	require.NoError(t, err)

	s.fanOut(message{event: "product.created", data: []byte("{}")})
	assert.Equal(t, 1, s.ClientCount())

	s.fanOut(message{event: "product.created", data: []byte("{}")})
	assert.Equal(t, 0, s.ClientCount())
	assert.Error(t, client.ctx.Err())
}

func TestStreamerClientLimit(t *testing.T) {
	s := NewStreamer(Config{MaxClients: 1}, logger.NewNopLogger())

	_, err := s.AddClient(context.Background(), "alice")
	require.NoError(t, err)
	_, err = s.AddClient(context.Background(), "bob")
	assert.Error(t, err)
}

func TestStreamerRejectsOverLimitRequest(t *testing.T) {
	s := NewStreamer(Config{MaxClients: 1}, logger.NewNopLogger())
	_, err := s.AddClient(context.Background(), "alice")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	s.HandleSSE(rec, httptest.NewRequest(http.MethodGet, "/events", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestStreamerShutdownDisconnectsClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := NewStreamer(DefaultConfig(), logger.NewNopLogger())
	s.Start(ctx)

	client, err := s.AddClient(context.Background(), "alice")
	require.NoError(t, err)

	cancel()
	require.Eventually(t, func() bool { return client.ctx.Err() != nil }, time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, s.ClientCount())
}

func TestPublishDoesNotBlockWhenQueueFull(t *testing.T) {
	s := NewStreamer(DefaultConfig(), logger.NewNopLogger())
	done := make(chan struct{})
	go func() {
		for i := 0; i < 300; i++ {
			s.Publish(outbound.EventProductCreated, &entity.Product{ID: int64(i)})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked with no fan-out loop running")
	}
}
