package database

import (
	"context"
	"fmt"
	"time"

	"studyflow/configs"
	"studyflow/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// ConnectRedis returns nil when no Redis host is configured or Redis cannot
// be reached; the task list cache then runs disabled.
func ConnectRedis(ctx context.Context, cfg configs.Config) *redis.Client {
	if cfg.RedisHost == "" {
		logger.SystemLogger.Info("Redis not configured, task list cache disabled")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       0,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.ErrorLogger.Error("Redis connection error, continuing without cache", zap.Error(err))
		client.Close()
		return nil
	}
	return client
}
