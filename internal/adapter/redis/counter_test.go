package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Strob0t/ilmihal/internal/config"
)

func TestCounterIncr(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("requires REDIS_ADDR")
	}
	ctx := context.Background()
	c, err := Connect(ctx, config.Redis{Addr: addr})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	key := "test." + uuid.NewString()
	t.Cleanup(func() { c.rdb.Del(context.Background(), keyPrefix+key) })

	for want := int64(1); want <= 3; want++ {
		got, err := c.Incr(ctx, key, time.Minute)
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Fatalf("Incr = %d, want %d", got, want)
		}
	}

	ttl, err := c.rdb.TTL(ctx, keyPrefix+key).Result()
	if err != nil {
		t.Fatal(err)
	}
	if ttl <= 0 || ttl > time.Minute {
		t.Errorf("expected ttl within window, got %v", ttl)
	}
}
