package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// txPipeliner is the slice of *redis.Client the counter needs.
type txPipeliner interface {
	TxPipelined(ctx context.Context, fn func(redis.Pipeliner) error) ([]redis.Cmder, error)
}

// WindowCounter implements a fixed-window request counter backed by Redis.
// Key format: ratelimit:<key>:<window_start_unix_ms>
type WindowCounter struct {
	client txPipeliner
	now    func() time.Time
}

// NewWindowCounter creates a WindowCounter wrapping the given Redis client.
func NewWindowCounter(client *redis.Client) *WindowCounter {
	return &WindowCounter{client: client, now: time.Now}
}

// Hit increments the counter for key in the current window and returns the
// new count together with the time the window resets. INCR and the expiry run
// in one MULTI/EXEC, so a counter never outlives its window.
func (w *WindowCounter) Hit(ctx context.Context, key string, window time.Duration) (int64, time.Time, error) {
	start, reset := windowBounds(w.now(), window)
	k := windowKey(key, start)

	var incr *redis.IntCmd
	_, err := w.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, k)
		p.PExpireAt(ctx, k, reset)
		return nil
	})
	if err != nil {
		return 0, reset, fmt.Errorf("rate limit hit: %w", err)
	}
	return incr.Val(), reset, nil
}

func windowBounds(now time.Time, window time.Duration) (time.Time, time.Time) {
	start := now.Truncate(window)
	return start, start.Add(window)
}

func windowKey(key string, start time.Time) string {
	return fmt.Sprintf("ratelimit:%s:%d", key, start.UnixMilli())
}
