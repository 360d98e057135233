// Package cachetest provides a behavioural test suite for cache.Cache implementations.
package cachetest

import (
	"context"
	"testing"
	"time"

	"github.com/Strob0t/ilmihal/internal/port/cache"
)

const prefix = "cachetest."

// RunComplianceTests runs the compliance suite against c. Keys carry a
// fixed prefix so the suite can share a backend with other tests. settle,
// when non-nil, is called after every write for caches that apply writes
// asynchronously.
func RunComplianceTests(t *testing.T, c cache.Cache, settle func()) {
	t.Helper()
	ctx := context.Background()
	if settle == nil {
		settle = func() {}
	}

	t.Run("SetAndGet", func(t *testing.T) {
		if err := c.Set(ctx, prefix+"set", []byte("compliance-val"), time.Minute); err != nil {
			t.Fatal(err)
		}
		settle()
		val, found, err := c.Get(ctx, prefix+"set")
		if err != nil {
			t.Fatal(err)
		}
		if !found {
			t.Fatal("expected found after Set")
		}
		if string(val) != "compliance-val" {
			t.Fatalf("expected compliance-val, got %s", val)
		}
	})

	t.Run("GetMiss", func(t *testing.T) {
		_, found, err := c.Get(ctx, prefix+"nonexistent")
		if err != nil {
			t.Fatal(err)
		}
		if found {
			t.Fatal("expected miss for nonexistent key")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		_ = c.Set(ctx, prefix+"del", []byte("del-val"), time.Minute)
		settle()
		if err := c.Delete(ctx, prefix+"del"); err != nil {
			t.Fatal(err)
		}
		settle()
		_, found, err := c.Get(ctx, prefix+"del")
		if err != nil {
			t.Fatal(err)
		}
		if found {
			t.Fatal("expected miss after Delete")
		}
	})

	t.Run("DeleteNonexistent", func(t *testing.T) {
		if err := c.Delete(ctx, prefix+"never-existed"); err != nil {
			t.Fatal("Delete of nonexistent key should not error")
		}
	})

	t.Run("Overwrite", func(t *testing.T) {
		_ = c.Set(ctx, prefix+"ow", []byte("v1"), time.Minute)
		settle()
		_ = c.Set(ctx, prefix+"ow", []byte("v2"), time.Minute)
		settle()
		val, found, err := c.Get(ctx, prefix+"ow")
		if err != nil {
			t.Fatal(err)
		}
		if !found {
			t.Fatal("expected found after overwrite")
		}
		if string(val) != "v2" {
			t.Fatalf("expected v2 after overwrite, got %s", val)
		}
	})
}
