package googlebooks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const searchCachePrefix = "books:search:"

// Cache stores successful search results. Failures are never cached.
type Cache interface {
	Get(ctx context.Context, key string) (SearchResult, bool, error)
	Set(ctx context.Context, key string, res SearchResult) error
}

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func cacheKey(query string, page, perPage int, lang string) string {
	return fmt.Sprintf("%s%s:%d:%d:%s", searchCachePrefix, lang, page, perPage, query)
}

func (c *RedisCache) Get(ctx context.Context, key string) (SearchResult, bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return SearchResult{}, false, nil
		}
		return SearchResult{}, false, err
	}
	var res SearchResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return SearchResult{}, false, err
	}
	return res, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, res SearchResult) error {
	raw, err := json.Marshal(res)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, raw, c.ttl).Err()
}
