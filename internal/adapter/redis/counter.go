// Package redis implements the counter port on Redis.
package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Strob0t/ilmihal/internal/config"
)

const keyPrefix = "ilmihal:"

// Counter implements counter.Counter with INCR and EXPIRE NX in one
// MULTI/EXEC, so the expiry is set by the first increment of a window only.
type Counter struct {
	rdb *goredis.Client
}

// Connect dials Redis and verifies the connection.
func Connect(ctx context.Context, cfg config.Redis) (*Counter, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Counter{rdb: rdb}, nil
}

// Incr adds one to key and returns the count within the current window.
func (c *Counter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	var incr *goredis.IntCmd
	_, err := c.rdb.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		incr = p.Incr(ctx, keyPrefix+key)
		p.ExpireNX(ctx, keyPrefix+key, window)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("redis incr %s: %w", key, err)
	}
	return incr.Val(), nil
}

// Close releases the client.
func (c *Counter) Close() error {
	return c.rdb.Close()
}
