// Package cache defines the response cache used by the Open-Meteo client and
// its constructors. Entries are raw upstream bodies keyed by endpoint and
// query string; every entry expires after the TTL given at construction.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Cache stores byte values with a fixed time-to-live.
type Cache interface {
	// Get returns the value and true on a hit. A miss or an expired entry
	// returns false and a nil error; errors are reserved for backend failures.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Close releases backend resources.
	Close() error
}

// Backend names accepted by Config.
const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config selects and sizes the cache backend.
type Config struct {
	Backend   string        `env:"CACHE_BACKEND,default=none"`
	TTL       time.Duration `env:"CACHE_TTL,default=5m"`
	Size      int           `env:"CACHE_SIZE,default=1024"`
	RedisAddr string        `env:"REDIS_ADDR,default=localhost:6379"`
	KeyPrefix string        `env:"CACHE_KEY_PREFIX,default=open-meteo-mcp:cache:"`
}

// ErrUnknownBackend is returned for a Config.Backend value that names no
// backend.
var ErrUnknownBackend = errors.New("cache: unknown backend")

// Validate reports configuration errors.
func (c Config) Validate() error {
	switch c.Backend {
	case "", BackendNone:
		return nil
	case BackendMemory, BackendRedis:
	default:
		return fmt.Errorf("%w %q", ErrUnknownBackend, c.Backend)
	}
	if c.TTL <= 0 {
		return fmt.Errorf("cache: ttl must be positive, got %s", c.TTL)
	}
	if c.Backend == BackendMemory && c.Size <= 0 {
		return fmt.Errorf("cache: size must be positive, got %d", c.Size)
	}
	return nil
}
