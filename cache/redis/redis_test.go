package redis

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ggoodman/open-meteo-mcp/cache"
	"github.com/ggoodman/open-meteo-mcp/cache/cachetest"
	"github.com/redis/go-redis/v9"
)

func newTestCache(t *testing.T, mr *miniredis.Miniredis, ttl time.Duration) *Cache {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c, err := New(Config{Client: client, TTL: ttl})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestRedisCache(t *testing.T) {
	cachetest.Run(t, func(t *testing.T) cache.Cache {
		return newTestCache(t, miniredis.RunT(t), time.Minute)
	})
}

func TestRedisCacheExpires(t *testing.T) {
	mr := miniredis.RunT(t)
	c := newTestCache(t, mr, time.Minute)
	ctx := t.Context()

	if err := c.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if ttl := mr.TTL("open-meteo-mcp:cache:k"); ttl != time.Minute {
		t.Fatalf("unexpected ttl: want %s got %s", time.Minute, ttl)
	}

	mr.FastForward(2 * time.Minute)

	if _, ok, err := c.Get(ctx, "k"); err != nil || ok {
		t.Fatalf("expected expired miss, got ok=%v err=%v", ok, err)
	}
}

func TestRedisCacheBackendFailure(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	c, err := New(Config{Client: client, TTL: time.Minute})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	if _, _, err := c.Get(t.Context(), "k"); err == nil {
		t.Fatalf("expected error when redis is unreachable")
	}
}

func TestNewFromAddr(t *testing.T) {
	mr := miniredis.RunT(t)
	c, err := NewFromAddr(t.Context(), mr.Addr(), "pfx:", time.Minute)
	if err != nil {
		t.Fatalf("NewFromAddr: %v", err)
	}
	defer c.Close()

	if err := c.Set(t.Context(), "k", []byte("v")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if !mr.Exists("pfx:k") {
		t.Fatalf("expected prefixed key in redis")
	}
}
