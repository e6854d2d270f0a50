package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/fixora/storefront/application/port/outbound"
	"github.com/fixora/storefront/application/usecase"
	"github.com/fixora/storefront/infrastructure/adapter/postgres"
	"github.com/fixora/storefront/infrastructure/adapter/s3"
	"github.com/fixora/storefront/infrastructure/config"
	httpserver "github.com/fixora/storefront/infrastructure/http"
	"github.com/fixora/storefront/infrastructure/http/handler"
	"github.com/fixora/storefront/infrastructure/http/middleware"
	"github.com/fixora/storefront/infrastructure/http/sse"
	"github.com/fixora/storefront/infrastructure/http/validator"
	"github.com/fixora/storefront/infrastructure/service/jwt"
	"github.com/fixora/storefront/infrastructure/service/logger"
	"github.com/fixora/storefront/infrastructure/service/password"
	"github.com/fixora/storefront/infrastructure/service/ratelimit"
)

const pruneInterval = time.Hour

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	structuredLogger := logger.NewStructuredLogger(logger.LoggerConfig{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		ServiceName: "storefront",
	})
	structuredLogger.Info(ctx, "Application starting", map[string]interface{}{
		"env": cfg.Environment,
	})

	db, err := postgres.Open(ctx, cfg.DatabaseURL, postgres.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	})
	if err != nil {
		structuredLogger.Error(ctx, "Failed to connect to database", err, nil)
		os.Exit(1)
	}
	defer db.Close()
	structuredLogger.Info(ctx, "Database connection established", nil)

	if cfg.MigrateOnStart {
		if err := postgres.Migrate(ctx, db); err != nil {
			structuredLogger.Error(ctx, "Failed to apply migrations", err, nil)
			os.Exit(1)
		}
	}

	rateLimitService, closeRateLimit, err := ratelimit.NewRateLimitService(ctx, ratelimit.RateLimitConfig{
		Enabled:  cfg.RateLimitEnabled,
		RedisURL: cfg.RedisURL,
	}, structuredLogger)
	if err != nil {
		structuredLogger.Error(ctx, "Failed to initialize rate limit service", err, nil)
		os.Exit(1)
	}
	defer closeRateLimit()

	// Repositories
	transactor := postgres.NewTransactor(db, structuredLogger)
	userRepo := postgres.NewUserRepositoryAdapter(db)
	refreshTokenRepo := postgres.NewRefreshTokenRepositoryAdapter(db, transactor, cfg.RefreshTokenSalt)
	productRepo := postgres.NewProductRepositoryAdapter(db)

	// Services
	tokenService, err := jwt.NewJWTService(jwt.Config{
		Secret:         cfg.JWTSecret,
		AccessTokenTTL: cfg.AccessTokenTTL,
	})
	if err != nil {
		structuredLogger.Error(ctx, "Failed to initialize JWT service", err, nil)
		os.Exit(1)
	}
	passwordService := password.NewBcryptPasswordService(cfg.BcryptCost)

	var mediaStorage outbound.MediaStorage
	if cfg.MediaEnabled() {
		storage, err := s3.NewMediaStorage(ctx, s3.Config{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
			PublicURL: cfg.S3PublicURL,
		})
		if err == nil {
			err = storage.EnsureBucket(ctx)
		}
		if err != nil {
			structuredLogger.Error(ctx, "Media storage unavailable, uploads disabled", err, map[string]interface{}{
				"endpoint": cfg.S3Endpoint,
				"bucket":   cfg.S3Bucket,
			})
		} else {
			mediaStorage = storage
		}
	}

	streamer := sse.NewStreamer(sse.Config{
		HeartbeatInterval: cfg.SSEHeartbeatInterval,
		BufferSize:        cfg.SSEMessageBufferSize,
		MaxClients:        cfg.SSEMaxConnections,
	}, structuredLogger)
	streamer.Start(ctx)

	// Use cases
	credentials, err := usecase.NewCredentialStore(userRepo, passwordService, structuredLogger)
	if err != nil {
		structuredLogger.Error(ctx, "Failed to initialize credential store", err, nil)
		os.Exit(1)
	}
	issuer := usecase.NewTokenIssuer(tokenService, refreshTokenRepo, cfg.RefreshTokenTTL, nil)
	authUseCase := usecase.NewAuthUseCase(credentials, issuer, transactor, rateLimitService, usecase.LoginPolicy{
		MaxFailures: cfg.RateLimitLoginFailures,
		Window:      cfg.RateLimitIPWindow,
		BlockFor:    cfg.RateLimitBlockDuration,
	}, structuredLogger)
	productUseCase := usecase.NewProductUseCase(productRepo, streamer, usecase.ListScope(cfg.ProductsListScope), structuredLogger)

	go pruneRefreshTokens(ctx, authUseCase, structuredLogger)

	// HTTP
	clientIPs, err := middleware.NewClientIPResolver(cfg.TrustedProxies)
	if err != nil {
		structuredLogger.Error(ctx, "Invalid TRUSTED_PROXIES", err, nil)
		os.Exit(1)
	}

	v := validator.New()
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(db, "storefront"),
	)

	deps := httpserver.RouterDeps{
		Auth:      handler.NewAuthHandler(authUseCase, v),
		Products:  handler.NewProductHandler(productUseCase, v),
		Health:    handler.NewHealthHandler(db, structuredLogger),
		Events:    streamer,
		AuthMW:    middleware.NewAuthMiddleware(authUseCase),
		RateLimit: middleware.NewRateLimitMiddleware(rateLimitService, middleware.RateLimitConfig{
			Attempts: cfg.RateLimitIPAttempts,
			Window:   cfg.RateLimitIPWindow,
			BlockFor: cfg.RateLimitBlockDuration,
		}, structuredLogger),
		ClientIPs:            clientIPs,
		Registry:             registry,
		Logger:               structuredLogger,
		CORSEnabled:          cfg.CORSEnabled,
		CORSAllowedOrigins:   cfg.CORSAllowedOrigins,
		CORSAllowCredentials: cfg.CORSAllowCredentials,
		StaticDir:            cfg.StaticDir,
	}
	if mediaStorage != nil {
		deps.Media = handler.NewMediaHandler(usecase.NewMediaUseCase(mediaStorage, credentials, nil, structuredLogger))
	}

	server := httpserver.NewServer(httpserver.ServerConfig{
		Addr:         cfg.Addr(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}, httpserver.NewRouter(deps), structuredLogger)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		structuredLogger.Error(ctx, "Server failed", err, map[string]interface{}{"addr": cfg.Addr()})
	}
	stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		structuredLogger.Error(shutdownCtx, "Server forced to shutdown", err, nil)
	}
	structuredLogger.Info(shutdownCtx, "Server exited", nil)
}

// pruneRefreshTokens deletes expired refresh tokens at startup and then hourly.
func pruneRefreshTokens(ctx context.Context, auth *usecase.AuthUseCase, log logger.Logger) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()

	for {
		if n, err := auth.Prune(ctx); err != nil {
			log.Error(ctx, "Failed to prune refresh tokens", err, nil)
		} else if n > 0 {
			log.Info(ctx, "Pruned expired refresh tokens", map[string]interface{}{"count": n})
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
