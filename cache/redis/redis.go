// Package redis provides a cache.Cache backed by Redis, so that several
// server processes can share upstream responses.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config contains configuration options for the Redis cache.
type Config struct {
	// Client is the Redis client instance.
	Client *redis.Client

	// KeyPrefix is the prefix for all Redis keys.
	// Default: "open-meteo-mcp:cache:"
	KeyPrefix string

	// TTL is the expiry of every entry.
	TTL time.Duration
}

// Cache implements cache.Cache using Redis string keys with an expiry.
type Cache struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// New creates a Redis-backed cache.
func New(config Config) (*Cache, error) {
	if config.Client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if config.TTL <= 0 {
		return nil, fmt.Errorf("redis cache: ttl must be positive, got %s", config.TTL)
	}
	if config.KeyPrefix == "" {
		config.KeyPrefix = "open-meteo-mcp:cache:"
	}

	return &Cache{
		client:    config.Client,
		keyPrefix: config.KeyPrefix,
		ttl:       config.TTL,
	}, nil
}

// NewFromAddr dials addr and verifies the connection with a PING.
func NewFromAddr(ctx context.Context, addr, keyPrefix string, ttl time.Duration) (*Cache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return New(Config{Client: client, KeyPrefix: keyPrefix, TTL: ttl})
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, c.keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get key %s: %w", key, err)
	}
	return val, true, nil
}

func (c *Cache) Set(ctx context.Context, key string, value []byte) error {
	if err := c.client.Set(ctx, c.keyPrefix+key, value, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	return nil
}

func (c *Cache) Close() error {
	return c.client.Close()
}
