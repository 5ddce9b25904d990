// cmd/server/main.go
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"taskapi/internal/api"
	"taskapi/internal/config"
	"taskapi/internal/logging"
	"taskapi/internal/metrics"
	"taskapi/internal/migrations"
	taskrepository "taskapi/internal/task/repository"
	taskservice "taskapi/internal/task/service"
	taskhttp "taskapi/internal/task/transport/http"
	"taskapi/internal/token"
	tokenrepository "taskapi/internal/token/repository"
	userrepository "taskapi/internal/user/repository"
	userservice "taskapi/internal/user/service"
	userhttp "taskapi/internal/user/transport/http"
	"taskapi/pkg/db"
	"taskapi/pkg/hash"
	"taskapi/pkg/jwt"
	"taskapi/pkg/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewJSON(os.Stdout, cfg.LogLevel)

	if err := run(cfg, logger); err != nil {
		logger.Error(context.Background(), "server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()
	logger.Info(ctx, "database connected")

	if cfg.MigrateOnStart {
		if err := migrations.Up(ctx, database); err != nil {
			return err
		}
		logger.Info(ctx, "migrations applied")
	}

	rawStore, closeStore, err := newRefreshStore(ctx, cfg, database)
	if err != nil {
		return err
	}
	defer closeStore()
	store := token.NewBreakerStore(rawStore, logger)

	codec, err := jwt.NewCodec([]byte(cfg.JWTSecret))
	if err != nil {
		return err
	}

	// --- ИНИЦИАЛИЗАЦИЯ СЛОЁВ ---
	userRepo := userrepository.NewPostgresUserRepository(database)
	issuer := userservice.NewTokenIssuer(codec, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	userService := userservice.NewUserService(userRepo, hash.NewBcrypt(0), store, issuer, codec)

	taskRepo := taskrepository.NewPostgresTaskRepository(sqlx.NewDb(database, "postgres"))
	taskService := taskservice.NewTaskService(taskRepo)

	loginLimiter := middleware.NewRateLimiter(cfg.LoginRateLimit, cfg.LoginRateWindow)
	go loginLimiter.Cleanup(cfg.LoginRateWindow, ctx.Done())

	deps := api.Deps{
		Logger:             logger,
		Users:              userhttp.NewHandler(userService, logger),
		Tasks:              taskhttp.NewHandler(taskService, logger),
		Gate:               middleware.NewAuthGate(codec, userRepo, logger),
		LoginLimiter:       loginLimiter,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	}

	if cfg.MetricsEnabled() {
		reg := prometheus.NewRegistry()
		metrics.Register(reg)
		deps.Metrics = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
		deps.MetricsUser = cfg.MetricsUser
		deps.MetricsPassword = cfg.MetricsPassword
	}

	if cfg.SweepInterval > 0 {
		go token.NewSweeper(store, logger).Run(ctx, cfg.SweepInterval)
	}

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewRouter(deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "server running", "addr", cfg.HTTPAddr, "refresh_store", cfg.RefreshStore)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Graceful shutdown на сигналы ОС
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info(context.Background(), "shutdown signal received, starting graceful shutdown")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	logger.Info(context.Background(), "server stopped")
	return nil
}

// newRefreshStore выбирает хранилище белого списка по REFRESH_STORE.
func newRefreshStore(ctx context.Context, cfg *config.Config, database *sql.DB) (token.Store, func(), error) {
	hasher := token.NewHasher([]byte(cfg.RefreshTokenSecret))

	if cfg.RefreshStore != config.StoreRedis {
		return tokenrepository.NewRefreshTokenRepository(database, hasher), func() {}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return tokenrepository.NewRedisRefreshTokenStore(rdb, "refresh_token", hasher), func() { rdb.Close() }, nil
}
