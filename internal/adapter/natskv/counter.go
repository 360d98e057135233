package natskv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

const maxCASAttempts = 16

// window is the stored counter value.
type window struct {
	Count int64     `json:"count"`
	Start time.Time `json:"start"`
}

// Counter implements counter.Counter with compare-and-set updates on a KV
// bucket, so concurrent instances never lose an increment. The bucket TTL
// only garbage-collects idle keys; the window is tracked in the value.
type Counter struct {
	kv  jetstream.KeyValue
	now func() time.Time
}

// NewCounter creates a Counter on kv.
func NewCounter(kv jetstream.KeyValue) *Counter {
	return &Counter{kv: kv, now: time.Now}
}

// Incr adds one to key within the current window and returns the new count.
func (c *Counter) Incr(ctx context.Context, key string, win time.Duration) (int64, error) {
	for range maxCASAttempts {
		now := c.now()
		entry, err := c.kv.Get(ctx, key)
		switch {
		case errors.Is(err, jetstream.ErrKeyNotFound):
			data, _ := json.Marshal(window{Count: 1, Start: now})
			if _, err := c.kv.Create(ctx, key, data); err != nil {
				if errors.Is(err, jetstream.ErrKeyExists) {
					continue
				}
				return 0, fmt.Errorf("natskv counter create %s: %w", key, err)
			}
			return 1, nil
		case err != nil:
			return 0, fmt.Errorf("natskv counter get %s: %w", key, err)
		}

		var w window
		if err := json.Unmarshal(entry.Value(), &w); err != nil || now.Sub(w.Start) >= win {
			w = window{Start: now}
		}
		w.Count++
		data, _ := json.Marshal(w)
		if _, err := c.kv.Update(ctx, key, data, entry.Revision()); err != nil {
			if isWrongSequence(err) {
				continue
			}
			return 0, fmt.Errorf("natskv counter update %s: %w", key, err)
		}
		return w.Count, nil
	}
	return 0, fmt.Errorf("natskv counter %s: too much contention", key)
}

// isWrongSequence reports a lost compare-and-set race.
func isWrongSequence(err error) bool {
	var apiErr *jetstream.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode == jetstream.JSErrCodeStreamWrongLastSequence
}
