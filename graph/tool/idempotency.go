package tool

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"sync"
	"time"
)

// IdempotencyCache records whether a tool call with a given key has
// already completed, and what it returned, so a retried or duplicated
// call can be short-circuited instead of re-executing a non-idempotent
// side effect.
type IdempotencyCache interface {
	// Get returns a previously cached result, if present and unexpired.
	Get(ctx context.Context, key string) (result map[string]interface{}, found bool, err error)

	// Put stores a result under key for ttl.
	Put(ctx context.Context, key string, result map[string]interface{}, ttl time.Duration) error
}

// ComputeIdempotencyKey hashes a tool's name and (optionally restricted)
// input fields into a stable cache key.
func ComputeIdempotencyKey(toolName string, input map[string]interface{}, keyFields []string) (string, error) {
	selected := input
	if len(keyFields) > 0 {
		selected = make(map[string]interface{}, len(keyFields))
		for _, f := range keyFields {
			selected[f] = input[f]
		}
	}
	keys := make([]string, 0, len(selected))
	for k := range selected {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ordered := make(map[string]interface{}, len(keys))
	for _, k := range keys {
		ordered[k] = selected[k]
	}
	payload, err := json.Marshal(ordered)
	if err != nil {
		return "", err
	}

	h := sha256.New()
	h.Write([]byte(toolName))
	h.Write(payload)
	return "idem:" + hex.EncodeToString(h.Sum(nil)), nil
}

// cacheEntry pairs a cached result with its expiry.
type cacheEntry struct {
	result  map[string]interface{}
	expires time.Time
}

// MemoryIdempotencyCache is an in-process IdempotencyCache, the default
// used when no Redis cache is configured.
type MemoryIdempotencyCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
}

func NewMemoryIdempotencyCache() *MemoryIdempotencyCache {
	return &MemoryIdempotencyCache{entries: make(map[string]cacheEntry)}
}

func (c *MemoryIdempotencyCache) Get(ctx context.Context, key string) (map[string]interface{}, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if time.Now().After(e.expires) {
		delete(c.entries, key)
		return nil, false, nil
	}
	return e.result, true, nil
}

func (c *MemoryIdempotencyCache) Put(ctx context.Context, key string, result map[string]interface{}, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	c.entries[key] = cacheEntry{result: result, expires: time.Now().Add(ttl)}
	return nil
}
