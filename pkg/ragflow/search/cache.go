package search

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrCacheMiss is returned by a Cache when a key is absent.
var ErrCacheMiss = errors.New("cache miss")

// Cache stores serialized search results.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RedisCache implements Cache on a redis client.
type RedisCache struct {
	client *redis.Client
}

var _ Cache = (*RedisCache)(nil)

// NewRedisCache wraps an existing client.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// NewRedisClient connects to redisURL, which may be a redis:// URL or a
// bare host:port address, and pings it.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	var opts *redis.Options
	if strings.Contains(redisURL, "://") {
		parsed, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: redisURL}
	}

	client := redis.NewClient(opts)
	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return client, nil
}

// Get implements Cache.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	return data, err
}

// Set implements Cache.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

// Cached decorates a Searcher with a result cache. Cache failures fall
// through to the wrapped searcher. Empty result lists are not cached.
type Cached struct {
	next   Searcher
	cache  Cache
	ttl    time.Duration
	logger *slog.Logger
}

var _ Searcher = (*Cached)(nil)

// NewCached wraps next with cache entries that live for ttl.
func NewCached(next Searcher, cache Cache, ttl time.Duration, logger *slog.Logger) *Cached {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cached{next: next, cache: cache, ttl: ttl, logger: logger}
}

// Search implements Searcher.
func (c *Cached) Search(ctx context.Context, apiKey, query string) []Result {
	key := cacheKey(query)

	if data, err := c.cache.Get(ctx, key); err == nil {
		var results []Result
		if err := json.Unmarshal(data, &results); err == nil {
			c.logger.Debug("search cache hit", slog.String("key", key))
			return results
		}
	} else if !errors.Is(err, ErrCacheMiss) {
		c.logger.Warn("search cache read failed", slog.String("error", err.Error()))
	}

	results := c.next.Search(ctx, apiKey, query)
	if len(results) == 0 {
		return results
	}

	data, err := json.Marshal(results)
	if err == nil {
		err = c.cache.Set(ctx, key, data, c.ttl)
	}
	if err != nil {
		c.logger.Warn("search cache write failed", slog.String("error", err.Error()))
	}
	return results
}

func cacheKey(query string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(query))))
	return "ragflow:search:" + hex.EncodeToString(sum[:])
}
