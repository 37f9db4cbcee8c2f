// Package redis shares generated profiles across service instances through Redis.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/JakeFAU/storefront-insights/internal/storefront"
)

const keyPrefix = "insights:profile:"

// Cache implements storefront.ProfileCache on a Redis client.
type Cache struct {
	client *redis.Client
}

// New parses url, connects and pings the server.
func New(ctx context.Context, url string) (*Cache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Join(fmt.Errorf("redis ping failed: %w", err), client.Close())
	}
	return &Cache{client: client}, nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// Key returns the Redis key used for a normalized URL.
func Key(url string) string {
	return keyPrefix + url
}

// Get loads the profile stored for key. A missing key is a miss, not an error.
func (c *Cache) Get(ctx context.Context, key string) (*storefront.BrandProfile, bool, error) {
	data, err := c.client.Get(ctx, Key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	var profile storefront.BrandProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, false, fmt.Errorf("decode cached profile: %w", err)
	}
	return &profile, true, nil
}

// Set stores profile with ttl. A non-positive ttl is a no-op.
func (c *Cache) Set(ctx context.Context, key string, profile *storefront.BrandProfile, ttl time.Duration) error {
	if ttl <= 0 || profile == nil {
		return nil
	}
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	if err := c.client.Set(ctx, Key(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Ping checks the connection.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the client.
func (c *Cache) Close() error {
	return c.client.Close()
}
