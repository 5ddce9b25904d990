// cmd/sweeper/main.go - разовая очистка истёкших refresh-токенов (для cron).
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"taskapi/internal/config"
	"taskapi/internal/logging"
	"taskapi/internal/token"
	tokenrepository "taskapi/internal/token/repository"
	"taskapi/pkg/db"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewJSON(os.Stdout, cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error(ctx, "failed to open refresh token store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	if _, err := token.NewSweeper(store, logger).RunOnce(ctx); err != nil {
		closeStore()
		os.Exit(1)
	}
}

func openStore(ctx context.Context, cfg *config.Config) (token.Store, func(), error) {
	hasher := token.NewHasher([]byte(cfg.RefreshTokenSecret))

	if cfg.RefreshStore == config.StoreRedis {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		return tokenrepository.NewRedisRefreshTokenStore(rdb, "refresh_token", hasher), func() { rdb.Close() }, nil
	}

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	return tokenrepository.NewRefreshTokenRepository(database, hasher), func() { database.Close() }, nil
}
