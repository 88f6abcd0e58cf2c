package storage

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache backs the three concerns that must survive restarts and be
// shared across handler instances: idempotency-key replay markers, the
// learned order-number format per callback destination, and rate-limit
// counters.
type RedisCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{Client: client, TTL: ttl}
}

func (c *RedisCache) ReplayMarkerKey(restaurantUID, idempotencyKey string) string {
	return "idem:" + restaurantUID + ":" + idempotencyKey
}

// GetReplayMarker returns the order number an idempotency key was first used
// with, or "" when the key is fresh.
func (c *RedisCache) GetReplayMarker(ctx context.Context, key string) (string, error) {
	val, err := c.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (c *RedisCache) SetReplayMarker(ctx context.Context, key, orderNumber string) error {
	return c.Client.Set(ctx, key, orderNumber, c.TTL).Err()
}

func (c *RedisCache) FormatKey(host string) string {
	return "callbackfmt:" + host
}

// GetOrderNumberFormat returns the order-number form ("hash" or "bare") that
// previously worked for a callback host, or "" when nothing was learned yet.
func (c *RedisCache) GetOrderNumberFormat(ctx context.Context, host string) (string, error) {
	val, err := c.Client.Get(ctx, c.FormatKey(host)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (c *RedisCache) SetOrderNumberFormat(ctx context.Context, host, format string) error {
	return c.Client.Set(ctx, c.FormatKey(host), format, 0).Err()
}

// IncrementCaller bumps the fixed-window counter for a caller identity and
// returns the new count. The window key expires on first increment.
func (c *RedisCache) IncrementCaller(ctx context.Context, caller string, window time.Duration) (int64, error) {
	key := "ratelimit:" + caller
	count, err := c.Client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		c.Client.Expire(ctx, key, window)
	}
	return count, nil
}
