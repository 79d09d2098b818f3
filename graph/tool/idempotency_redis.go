package tool

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisIdempotencyCache shares idempotency state across engine instances,
// needed once a tool runtime runs behind more than one process.
type RedisIdempotencyCache struct {
	client *redis.Client
	prefix string
}

func NewRedisIdempotencyCache(client *redis.Client, prefix string) *RedisIdempotencyCache {
	if prefix == "" {
		prefix = "agentgraph:idem:"
	}
	return &RedisIdempotencyCache{client: client, prefix: prefix}
}

func (c *RedisIdempotencyCache) Get(ctx context.Context, key string) (map[string]interface{}, bool, error) {
	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var result map[string]interface{}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, false, err
	}
	return result, true, nil
}

func (c *RedisIdempotencyCache) Put(ctx context.Context, key string, result map[string]interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return c.client.Set(ctx, c.prefix+key, payload, ttl).Err()
}
