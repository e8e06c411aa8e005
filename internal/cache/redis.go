package cache

import (
	"context"
	"fmt"
	"time"

	"ms-gallery/internal/config"
	"ms-gallery/internal/logger"

	"github.com/go-redis/redis/v8"
)

// Connect opens a Redis client and checks it with a ping.
func Connect(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: 10,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Addr, err)
	}

	log.Info("CACHE", fmt.Sprintf("Connected to Redis at %s", cfg.Addr))
	return client, nil
}
