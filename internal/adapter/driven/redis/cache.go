// Package redis provides a Cache backed by a Redis server.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/ericfisherdev/passlink/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.Cache = (*Cache)(nil)

// Cache implements driven.Cache on Redis. Expiry is delegated to Redis key
// TTLs with millisecond precision.
type Cache struct {
	client goredis.UniversalClient
	now    func() time.Time
}

// NewCache wraps an existing client.
func NewCache(client goredis.UniversalClient) *Cache {
	return &Cache{client: client, now: time.Now}
}

// Connect parses a redis:// URL, connects and pings the server.
func Connect(ctx context.Context, url string) (*Cache, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return NewCache(client), nil
}

// Close closes the underlying client.
func (c *Cache) Close() error {
	return c.client.Close()
}

// Get returns the value stored under key.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, true, nil
}

// Set stores value under key with a TTL derived from expiresAt.
func (c *Cache) Set(ctx context.Context, key string, value []byte, expiresAt time.Time) error {
	ttl, live := c.ttl(expiresAt)
	if !live {
		return c.Delete(ctx, key)
	}

	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// SetIfAbsent stores value under key with SET NX.
func (c *Cache) SetIfAbsent(ctx context.Context, key string, value []byte, expiresAt time.Time) (bool, error) {
	ttl, live := c.ttl(expiresAt)
	if !live {
		return false, nil
	}

	stored, err := c.client.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx %s: %w", key, err)
	}
	return stored, nil
}

// Delete removes keys.
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// ttl converts an absolute expiry to a Redis TTL. A zero expiresAt maps to no
// TTL; a past one reports live == false.
func (c *Cache) ttl(expiresAt time.Time) (time.Duration, bool) {
	if expiresAt.IsZero() {
		return 0, true
	}
	d := expiresAt.Sub(c.now())
	if d < time.Millisecond {
		return 0, false
	}
	return d.Truncate(time.Millisecond), true
}
