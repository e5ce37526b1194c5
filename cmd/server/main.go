package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ayush/user-service/internal/auth"
	"github.com/ayush/user-service/internal/config"
	"github.com/ayush/user-service/internal/logger"
	"github.com/ayush/user-service/internal/middleware"
	"github.com/ayush/user-service/internal/server"
	"github.com/ayush/user-service/internal/store"
	"github.com/ayush/user-service/internal/users"
)

const connectTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.NewLogger("user-service", "info").Fatal().Err(err).Msg("config")
	}
	log := logger.NewLogger("user-service", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ── Store ────────────────────────────────────────────────
	connCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	repo, err := store.Open(connCtx, cfg.Storage, log)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Storage.Driver).Msg("store connect")
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()
		if err := repo.Close(closeCtx); err != nil {
			log.Err(err).Msg("store close")
		}
	}()

	// ── Redis (rate-limit counters) ──────────────────────────
	var rdb *redis.Client
	if cfg.RateLimit.RedisURL != "" {
		rdb, err = store.NewRedisClient(ctx, cfg.RateLimit.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("redis connect")
		}
		defer rdb.Close()
	}

	// ── Services ─────────────────────────────────────────────
	userService := users.NewService(repo)
	tokens := auth.NewTokens(cfg.App.SecretKey, cfg.App.TokenIssuer)
	authService := auth.NewService(userService, tokens, cfg.App.TokenDuration)

	// ── Router ───────────────────────────────────────────────
	handler, err := server.NewRouter(server.Deps{
		Log:       log,
		Security:  cfg.Security,
		RateLimit: cfg.RateLimit,
		Users:     userService,
		Auth:      authService,
		Tokens:    tokens,
		CSRF:      middleware.NewCSRF(cfg.App.CSRFSecret, cfg.App.CSRFMaxAge),
		Limits:    middleware.NewRateLimits(rdb),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("router")
	}

	// ── Server ───────────────────────────────────────────────
	if err := server.New(cfg.Server, handler, log).Run(ctx); err != nil {
		log.Err(err).Msg("server stopped")
		return
	}
	log.Info().Msg("server stopped")
}
