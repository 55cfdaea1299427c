package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// CachedProvider wraps another Provider with a Redis result cache keyed by
// query string. A cache failure is never fatal: lookups fall through to the
// wrapped provider and stores are best-effort.
type CachedProvider struct {
	inner  Provider
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// CacheConfig holds Redis cache configuration.
type CacheConfig struct {
	// Addr is the Redis server address (host:port).
	Addr string
	// Password is the Redis password (optional).
	Password string
	// DB is the Redis database number.
	DB int
	// Prefix is the key prefix for cache keys (default: "tripgo:search:").
	Prefix string
	// TTL is the cache entry lifetime (default: 5m).
	TTL time.Duration
}

// NewCachedProvider creates a caching wrapper connected to Redis.
func NewCachedProvider(inner Provider, cfg CacheConfig) (*CachedProvider, error) {
	if inner == nil {
		return nil, errors.New("inner provider is required")
	}
	if cfg.Addr == "" {
		return nil, errors.New("redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return NewCachedProviderFromClient(inner, client, cfg.Prefix, cfg.TTL), nil
}

// NewCachedProviderFromClient creates a caching wrapper from an existing
// client. This is useful for testing with miniredis.
func NewCachedProviderFromClient(inner Provider, client *redis.Client, prefix string, ttl time.Duration) *CachedProvider {
	if prefix == "" {
		prefix = "tripgo:search:"
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedProvider{
		inner:  inner,
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (c *CachedProvider) cacheKey(query string) string {
	return c.prefix + query
}

// Search returns cached results for the query when present, otherwise
// delegates to the wrapped provider and caches the answer.
func (c *CachedProvider) Search(ctx context.Context, query string) ([]Destination, error) {
	data, err := c.client.Get(ctx, c.cacheKey(query)).Bytes()
	if err == nil {
		var cached []Destination
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
		// Corrupt entry: drop it and refill below.
		_ = c.client.Del(ctx, c.cacheKey(query)).Err()
	} else if !errors.Is(err, redis.Nil) {
		log.Printf("search cache lookup failed for %q: %v", query, err)
	}

	results, err := c.inner.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(results); err == nil {
		if err := c.client.Set(ctx, c.cacheKey(query), data, c.ttl).Err(); err != nil {
			log.Printf("search cache store failed for %q: %v", query, err)
		}
	}

	return results, nil
}

// Close releases the Redis connection pool.
func (c *CachedProvider) Close() error {
	return c.client.Close()
}
