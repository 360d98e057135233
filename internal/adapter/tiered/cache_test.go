package tiered_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Strob0t/ilmihal/internal/adapter/tiered"
	"github.com/Strob0t/ilmihal/internal/port/cache/cachetest"
)

// memCache is a simple in-memory cache for testing.
type memCache struct {
	data map[string][]byte
	ttls map[string]time.Duration
	err  error
}

func newMemCache() *memCache {
	return &memCache{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	if m.err != nil {
		return nil, false, m.err
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if m.err != nil {
		return m.err
	}
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func (m *memCache) Delete(_ context.Context, key string) error {
	if m.err != nil {
		return m.err
	}
	delete(m.data, key)
	return nil
}

func TestTiered_Compliance(t *testing.T) {
	cachetest.RunComplianceTests(t, tiered.New(newMemCache(), newMemCache(), time.Minute), nil)
}

func TestTiered_L1Hit(t *testing.T) {
	l1, l2 := newMemCache(), newMemCache()
	c := tiered.New(l1, l2, 5*time.Minute)
	l1.data["rows.g1.a"] = []byte("val1")

	val, found, err := c.Get(context.Background(), "rows.g1.a")
	if err != nil || !found || string(val) != "val1" {
		t.Fatalf("expected L1 hit val1, got %q found=%v err=%v", val, found, err)
	}
}

func TestTiered_L2HitWithBackfill(t *testing.T) {
	l1, l2 := newMemCache(), newMemCache()
	c := tiered.New(l1, l2, 30*time.Second)
	l2.data["rows.g1.b"] = []byte("val2")

	val, found, err := c.Get(context.Background(), "rows.g1.b")
	if err != nil || !found || string(val) != "val2" {
		t.Fatalf("expected L2 hit val2, got %q found=%v err=%v", val, found, err)
	}
	if string(l1.data["rows.g1.b"]) != "val2" {
		t.Fatal("expected L1 backfill")
	}
	if l1.ttls["rows.g1.b"] != 30*time.Second {
		t.Errorf("expected backfill ttl 30s, got %v", l1.ttls["rows.g1.b"])
	}
}

func TestTiered_SetCapsL1TTL(t *testing.T) {
	l1, l2 := newMemCache(), newMemCache()
	c := tiered.New(l1, l2, time.Minute)

	if err := c.Set(context.Background(), "k", []byte("v"), time.Hour); err != nil {
		t.Fatal(err)
	}
	if l1.ttls["k"] != time.Minute {
		t.Errorf("L1 ttl = %v, want 1m", l1.ttls["k"])
	}
	if l2.ttls["k"] != time.Hour {
		t.Errorf("L2 ttl = %v, want 1h", l2.ttls["k"])
	}
}

func TestTiered_L2FailureDegrades(t *testing.T) {
	l1, l2 := newMemCache(), newMemCache()
	l2.err = errors.New("nats: timeout")
	c := tiered.New(l1, l2, time.Minute)
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set should tolerate L2 failure, got %v", err)
	}
	val, found, err := c.Get(ctx, "k")
	if err != nil || !found || string(val) != "v" {
		t.Fatalf("expected L1 hit despite L2 failure, got %q found=%v err=%v", val, found, err)
	}
	_, found, err = c.Get(ctx, "missing")
	if err != nil || found {
		t.Fatalf("expected clean miss on L2 failure, got found=%v err=%v", found, err)
	}
}
