// Package counter defines the port for durable keyed counters.
package counter

import (
	"context"
	"time"
)

// Counter is an atomically incrementable counter store shared by all
// serving instances. A key's count resets once its window expires.
type Counter interface {
	// Incr adds one to key and returns the new value. The window starts
	// with the first increment of a key.
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}
