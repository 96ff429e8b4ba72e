package redisdb

import (
	"context"
	"fmt"
	"time"

	"github.com/fazamuttaqien/lendora/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func NewRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.REDIS_ADDRESS,
		Password:     cfg.REDIS_PASSWORD,
		DB:           0,
		PoolSize:     10,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolTimeout:  4 * time.Second,
		MaxRetries:   3,
		MinIdleConns: 2,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", cfg.REDIS_ADDRESS, err)
	}

	zap.L().Info("Connected to Redis", zap.String("address", cfg.REDIS_ADDRESS))
	return client, nil
}

// ConnectWithRetry retries every interval until redis answers or ctx ends.
func ConnectWithRetry(ctx context.Context, cfg *config.Config, interval time.Duration) (*redis.Client, error) {
	for {
		client, err := NewRedis(ctx, cfg)
		if err == nil {
			return client, nil
		}

		zap.L().Error("Failed to connect to Redis, retrying",
			zap.Duration("retry_in", interval),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}
	}
}
