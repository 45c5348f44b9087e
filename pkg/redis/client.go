package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Prabesh-Pandey/Task-Manager/pkg/config"
)

// NewRedisClient builds a client and checks connectivity with a short ping.
func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}
