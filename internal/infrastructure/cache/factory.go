package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/kitchenops/backend/internal/domain/shared"
	"github.com/kitchenops/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const sweepInterval = 5 * time.Minute

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr(), err)
	}
	return client, nil
}

// NewIdempotencyStore returns a Redis-backed store when client is set and an
// in-memory one otherwise
func NewIdempotencyStore(client *redis.Client, logger *zap.Logger) shared.IdempotencyStore {
	if client != nil {
		logger.Info("using redis idempotency store")
		return NewRedisIdempotencyStore(client, DefaultKeyPrefix)
	}
	logger.Warn("redis not configured, idempotency keys are kept in memory and not shared between instances")
	return NewInMemoryIdempotencyStore(sweepInterval)
}
