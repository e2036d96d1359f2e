package results

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "pulsescore:result:"

// Cache stores computed results by id. Results are immutable once written,
// so entries never need invalidation beyond their TTL.
type Cache interface {
	Get(ctx context.Context, id string) (PulseResult, bool, error)
	Set(ctx context.Context, result PulseResult) error
}

// NoopCache never hits.
type NoopCache struct{}

func (NoopCache) Get(context.Context, string) (PulseResult, bool, error) {
	return PulseResult{}, false, nil
}

func (NoopCache) Set(context.Context, PulseResult) error { return nil }

type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// RedisCache keeps JSON-encoded results in Redis.
type RedisCache struct {
	client redisClient
	ttl    time.Duration
}

// NewRedisCache wraps a go-redis client.
func NewRedisCache(client redisClient, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisCache{client: client, ttl: ttl}
}

// NewRedisCacheFromURL parses a redis:// URL and builds the cache.
func NewRedisCacheFromURL(rawURL string, ttl time.Duration) (*RedisCache, *redis.Client, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, nil, err
	}
	client := redis.NewClient(opts)
	return NewRedisCache(client, ttl), client, nil
}

func (c *RedisCache) key(id string) string {
	return cacheKeyPrefix + id
}

func (c *RedisCache) Get(ctx context.Context, id string) (PulseResult, bool, error) {
	data, err := c.client.Get(ctx, c.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return PulseResult{}, false, nil
	}
	if err != nil {
		return PulseResult{}, false, err
	}
	var result PulseResult
	if err := json.Unmarshal(data, &result); err != nil {
		return PulseResult{}, false, err
	}
	return result, true, nil
}

func (c *RedisCache) Set(ctx context.Context, result PulseResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(result.ID), data, c.ttl).Err()
}
