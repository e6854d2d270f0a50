package http

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	domainerr "github.com/fixora/storefront/domain/error"
	"github.com/fixora/storefront/infrastructure/http/handler"
	"github.com/fixora/storefront/infrastructure/http/middleware"
	"github.com/fixora/storefront/infrastructure/http/response"
	"github.com/fixora/storefront/infrastructure/http/sse"
	"github.com/fixora/storefront/infrastructure/service/logger"
)

// RouterDeps is everything the router mounts. Media may be nil when object
// storage is not configured; a nil ClientIPs ignores forwarding headers.
type RouterDeps struct {
	Auth      *handler.AuthHandler
	Products  *handler.ProductHandler
	Media     *handler.MediaHandler
	Health    *handler.HealthHandler
	Events    *sse.Streamer
	AuthMW    *middleware.AuthMiddleware
	RateLimit *middleware.RateLimitMiddleware
	ClientIPs *middleware.ClientIPResolver

	Registry *prometheus.Registry
	Logger   logger.Logger

	CORSEnabled          bool
	CORSAllowedOrigins   []string
	CORSAllowCredentials bool
	StaticDir            string
}

// NewRouter builds the route table and wraps it in the request middleware
// chain: correlation id, recovery, request log, CORS.
func NewRouter(d RouterDeps) http.Handler {
	router := mux.NewRouter()
	router.Use(middleware.NewMetrics(d.Registry).Middleware)

	limited := func(h http.HandlerFunc) http.Handler {
		return d.RateLimit.RateLimit(h)
	}
	authed := func(h http.HandlerFunc) http.Handler {
		return d.AuthMW.RequireAuth(h)
	}

	for _, path := range []string{"/register", "/auth/register"} {
		router.Handle(path, limited(d.Auth.Register)).Methods(http.MethodPost)
	}
	for _, path := range []string{"/token", "/auth/login"} {
		router.Handle(path, limited(d.Auth.Token)).Methods(http.MethodPost)
	}
	for _, path := range []string{"/refresh", "/auth/refresh"} {
		router.Handle(path, limited(d.Auth.Refresh)).Methods(http.MethodPost)
	}
	router.Handle("/logout", authed(d.Auth.Logout)).Methods(http.MethodPost)
	router.Handle("/protected", authed(d.Auth.Me)).Methods(http.MethodGet)
	router.Handle("/auth/me", authed(d.Auth.Me)).Methods(http.MethodGet)

	for _, path := range []string{"/products/", "/products"} {
		router.Handle(path, authed(d.Products.List)).Methods(http.MethodGet)
		router.Handle(path, authed(d.Products.Create)).Methods(http.MethodPost)
	}

	if d.Media != nil {
		router.Handle("/media/upload", authed(d.Media.Upload)).Methods(http.MethodPost)
		router.Handle("/users/me/avatar", authed(d.Media.UploadAvatar)).Methods(http.MethodPatch)
	} else {
		disabled := func(w http.ResponseWriter, r *http.Request) {
			response.FromError(w, domainerr.ErrUnavailable.WithDetails("media storage is not configured"))
		}
		router.Handle("/media/upload", authed(disabled)).Methods(http.MethodPost)
		router.Handle("/users/me/avatar", authed(disabled)).Methods(http.MethodPatch)
	}

	router.Handle("/events", d.AuthMW.RequireStreamAuth(http.HandlerFunc(d.Events.HandleSSE))).Methods(http.MethodGet)

	router.HandleFunc("/health", d.Health.Health).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	if d.StaticDir != "" {
		mountStatic(router, d.StaticDir)
	}

	var h http.Handler = router
	if d.CORSEnabled && len(d.CORSAllowedOrigins) > 0 {
		h = middleware.CORSMiddleware(h, d.CORSAllowedOrigins, d.CORSAllowCredentials)
	}
	h = middleware.RequestLogger(d.Logger)(h)
	h = middleware.Recovery(d.Logger)(h)
	return middleware.CorrelationIDMiddleware(h, d.ClientIPs)
}

func mountStatic(router *mux.Router, dir string) {
	router.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.Dir(dir)))).Methods(http.MethodGet)
	index := filepath.Join(dir, "index.html")
	router.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if _, err := os.Stat(index); err != nil {
			http.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, index)
	}).Methods(http.MethodGet)
}

type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Server represents the HTTP server
type Server struct {
	server *http.Server
	logger logger.Logger
}

func NewServer(cfg ServerConfig, h http.Handler, log logger.Logger) *Server {
	return &Server{
		server: &http.Server{
			Addr:              cfg.Addr,
			Handler:           h,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
			IdleTimeout:       cfg.IdleTimeout,
		},
		logger: log,
	}
}

// Start blocks until the server stops; http.ErrServerClosed means a clean shutdown.
func (s *Server) Start() error {
	s.logger.Info(context.Background(), "Starting HTTP server", map[string]interface{}{"addr": s.server.Addr})
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "Shutting down HTTP server", nil)
	return s.server.Shutdown(ctx)
}
