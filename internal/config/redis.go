package config

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/utils"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ConnectRedis dials REDIS_URL. An empty url disables caching and returns a
// nil client without error.
func ConnectRedis(ctx context.Context, url string) (*redis.Client, error) {
	if url == "" {
		utils.L().Warn("REDIS_URL not set, caching disabled")
		return nil, nil
	}

	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	utils.L().Info("connected to Redis", zap.String("addr", opt.Addr))
	return client, nil
}
