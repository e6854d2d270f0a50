package sse

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fixora/storefront/domain/entity"
	"github.com/fixora/storefront/infrastructure/http/middleware"
	"github.com/fixora/storefront/infrastructure/http/response"
	"github.com/fixora/storefront/infrastructure/service/logger"
)

type Config struct {
	HeartbeatInterval time.Duration
	BufferSize        int
	MaxClients        int
}

func DefaultConfig() Config {
	return Config{
		HeartbeatInterval: 15 * time.Second,
		BufferSize:        32,
		MaxClients:        1000,
	}
}

// Streamer fans product events out to connected Server-Sent Events clients.
// It implements outbound.ProductNotifier.
type Streamer struct {
	cfg       Config
	logger    logger.Logger
	clients   map[string]*Client
	mu        sync.RWMutex
	broadcast chan message
}

// Client represents an SSE client connection
type Client struct {
	ID       string
	Username string
	Channel  chan message
	ctx      context.Context
	cancel   context.CancelFunc
}

type message struct {
	event string
	data  []byte
}

func NewStreamer(cfg Config, log logger.Logger) *Streamer {
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = DefaultConfig().HeartbeatInterval
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultConfig().BufferSize
	}
	return &Streamer{
		cfg:       cfg,
		logger:    log,
		clients:   make(map[string]*Client),
		broadcast: make(chan message, 256),
	}
}

// Start runs the fan-out loop until ctx is cancelled, then disconnects every client.
func (s *Streamer) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				s.closeAll()
				return
			case msg := <-s.broadcast:
				s.fanOut(msg)
			}
		}
	}()
}

// Publish queues an event for every connected client without blocking.
func (s *Streamer) Publish(event string, product *entity.Product) {
	data, err := json.Marshal(product)
	if err != nil {
		s.logger.Error(context.Background(), "failed to marshal event", err, map[string]interface{}{"event": event})
		return
	}

	select {
	case s.broadcast <- message{event: event, data: data}:
	default:
		s.logger.Warn(context.Background(), "broadcast channel is full, event dropped", map[string]interface{}{
			"event": event,
		})
	}
}

// AddClient registers a client; it fails when MaxClients are already connected.
func (s *Streamer) AddClient(parent context.Context, username string) (*Client, error) {
	ctx, cancel := context.WithCancel(parent)
	client := &Client{
		ID:       uuid.NewString(),
		Username: username,
		Channel:  make(chan message, s.cfg.BufferSize),
		ctx:      ctx,
		cancel:   cancel,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cfg.MaxClients > 0 && len(s.clients) >= s.cfg.MaxClients {
		cancel()
		return nil, fmt.Errorf("sse: client limit of %d reached", s.cfg.MaxClients)
	}
	s.clients[client.ID] = client
	return client, nil
}

func (s *Streamer) RemoveClient(clientID string) {
	s.mu.Lock()
	client, ok := s.clients[clientID]
	if ok {
		delete(s.clients, clientID)
	}
	s.mu.Unlock()

	if ok {
		client.cancel()
	}
}

func (s *Streamer) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

func (s *Streamer) fanOut(msg message) {
	var slow []string

	s.mu.RLock()
	for id, client := range s.clients {
		select {
		case client.Channel <- msg:
		default:
			slow = append(slow, id)
		}
	}
	s.mu.RUnlock()

	for _, id := range slow {
		s.logger.Warn(context.Background(), "dropping slow sse client", map[string]interface{}{"client_id": id})
		s.RemoveClient(id)
	}
}

func (s *Streamer) closeAll() {
	s.mu.Lock()
	clients := s.clients
	s.clients = make(map[string]*Client)
	s.mu.Unlock()

	for _, client := range clients {
		client.cancel()
	}
}

// HandleSSE streams events until the request ends or the client is dropped.
// It must sit behind the stream auth middleware.
func (s *Streamer) HandleSSE(w http.ResponseWriter, r *http.Request) {
	username, _ := middleware.Username(r.Context())
	flusher, ok := w.(http.Flusher)
	if !ok {
		response.InternalServerError(w, "streaming unsupported")
		return
	}

	client, err := s.AddClient(r.Context(), username)
	if err != nil {
		s.logger.Warn(r.Context(), "sse connection refused", map[string]interface{}{"error": err.Error()})
		response.ServiceUnavailable(w, "too many event stream connections")
		return
	}
	defer s.RemoveClient(client.ID)

	// streams outlive the server write timeout
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	if err := writeComment(w, "connected"); err != nil {
		return
	}
	flusher.Flush()

	ticker := time.NewTicker(s.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-client.ctx.Done():
			return
		case msg := <-client.Channel:
			if err := writeEvent(w, msg); err != nil {
				return
			}
			flusher.Flush()
		case <-ticker.C:
			if err := writeComment(w, "ping"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, msg message) error {
	_, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.event, msg.data)
	return err
}

func writeComment(w http.ResponseWriter, comment string) error {
	_, err := fmt.Fprintf(w, ": %s\n\n", comment)
	return err
}
