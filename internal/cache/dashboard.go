package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Prabesh-Pandey/Task-Manager/internal/model"
	"github.com/Prabesh-Pandey/Task-Manager/pkg/metrics"
)

const keyPrefix = "dashboard:"

// DepartmentKey is the cache key of the admin dashboard for department.
func DepartmentKey(department model.Department) string {
	return keyPrefix + "department:" + string(department)
}

// UserKey is the cache key of userID's personal dashboard within department.
func UserKey(department model.Department, userID int) string {
	return keyPrefix + "user:" + string(department) + ":" + strconv.Itoa(userID)
}

// DashboardCache stores rendered dashboard payloads as JSON with a fixed TTL.
type DashboardCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewDashboardCache(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *DashboardCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &DashboardCache{rdb: rdb, ttl: ttl, logger: logger}
}

// Get decodes the cached value at key into out. It reports false on a miss.
func (c *DashboardCache) Get(ctx context.Context, key string, out any) (bool, error) {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.IncrementDashboardCache("miss")
		return false, nil
	}
	if err != nil {
		metrics.IncrementDashboardCache("error")
		return false, fmt.Errorf("get %s: %w", key, err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		metrics.IncrementDashboardCache("error")
		c.logger.Warn("Dropping undecodable dashboard entry", zap.String("key", key), zap.Error(err))
		_ = c.rdb.Del(ctx, key).Err()
		return false, nil
	}

	metrics.IncrementDashboardCache("hit")
	return true, nil
}

func (c *DashboardCache) Set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Invalidate drops the department dashboard and the personal dashboards of userIDs.
func (c *DashboardCache) Invalidate(ctx context.Context, department model.Department, userIDs ...int) error {
	keys := make([]string, 0, len(userIDs)+1)
	keys = append(keys, DepartmentKey(department))
	for _, id := range userIDs {
		keys = append(keys, UserKey(department, id))
	}

	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("invalidate dashboards: %w", err)
	}

	c.logger.Debug("Dashboard cache invalidated",
		zap.String("department", string(department)),
		zap.Ints("user_ids", userIDs),
	)
	return nil
}
