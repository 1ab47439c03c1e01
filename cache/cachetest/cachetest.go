// Package cachetest holds a conformance suite shared by the cache.Cache
// implementations.
package cachetest

import (
	"bytes"
	"testing"

	"github.com/ggoodman/open-meteo-mcp/cache"
)

// Factory returns a fresh, empty cache.
type Factory func(t *testing.T) cache.Cache

// Run exercises the behavior every implementation must share. Expiry is
// backend specific and tested by each implementation.
func Run(t *testing.T, newCache Factory) {
	t.Run("SetAndGet", func(t *testing.T) {
		c := newCache(t)
		ctx := t.Context()

		if err := c.Set(ctx, "forecast?latitude=1", []byte(`{"a":1}`)); err != nil {
			t.Fatalf("Set: %v", err)
		}
		got, ok, err := c.Get(ctx, "forecast?latitude=1")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if !ok {
			t.Fatalf("expected hit")
		}
		if !bytes.Equal(got, []byte(`{"a":1}`)) {
			t.Fatalf("unexpected value: %s", got)
		}
	})

	t.Run("Miss", func(t *testing.T) {
		c := newCache(t)
		got, ok, err := c.Get(t.Context(), "missing")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if ok || got != nil {
			t.Fatalf("expected miss, got %q", got)
		}
	})

	t.Run("Overwrite", func(t *testing.T) {
		c := newCache(t)
		ctx := t.Context()
		_ = c.Set(ctx, "k", []byte("v1"))
		_ = c.Set(ctx, "k", []byte("v2"))
		got, ok, err := c.Get(ctx, "k")
		if err != nil || !ok {
			t.Fatalf("Get: ok=%v err=%v", ok, err)
		}
		if string(got) != "v2" {
			t.Fatalf("expected latest value, got %q", got)
		}
	})
}
