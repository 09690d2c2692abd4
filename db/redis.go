// file: db/redis.go

package db

import (
	"context"
	"fmt"
	"transaction-lookup/config"
	"transaction-lookup/logger"

	"github.com/redis/go-redis/v9"
)

// ConnectRedis initializes the lookup cache client from AppConfig.Redis.
// It returns (nil, nil) when no address is configured, which disables caching.
func ConnectRedis(ctx context.Context) (*redis.Client, error) {
	cfg := config.AppConfig.Redis
	if cfg.Address == "" {
		logger.Log.Info("Redis address not configured, lookup cache disabled")
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		logger.Log.WithError(err).Error("Failed to ping Redis")
		rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	logger.Log.WithField("address", cfg.Address).Info("Redis connection established successfully")
	return rdb, nil
}
