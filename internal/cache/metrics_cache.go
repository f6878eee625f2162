package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// MetricsCache is a small TTL cache in front of the dashboard aggregation
// queries, so a page full of admin widgets does not hammer Postgres.
type MetricsCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewMetricsCache connects to Redis and verifies the connection.
func NewMetricsCache(addr, password string, ttl time.Duration) (*MetricsCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           0,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &MetricsCache{client: rdb, ttl: ttl}, nil
}

// GetJSON loads a cached value into dest. The bool reports a cache hit.
func (c *MetricsCache) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if c == nil || c.client == nil {
		// No-op for testing/mock mode - always a miss
		return false, nil
	}
	raw, err := c.client.Get(ctx, "dashboard:"+key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON stores a value under the cache TTL.
func (c *MetricsCache) SetJSON(ctx context.Context, key string, value any) error {
	if c == nil || c.client == nil {
		// No-op for testing/mock mode
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, "dashboard:"+key, raw, c.ttl).Err()
}

// Ping reports cache reachability for health checks.
func (c *MetricsCache) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Ping(ctx).Err()
}

func (c *MetricsCache) Close() error {
	if c == nil || c.client == nil {
		// No-op for testing/mock mode
		return nil
	}
	return c.client.Close()
}
