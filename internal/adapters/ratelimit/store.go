// Package ratelimit implements a fixed-window request limiter keyed by client.
//
// Counters live in a Store. MemoryStore keeps them in process; RedisStore
// shares them between replicas through Redis INCR.
package ratelimit

import (
	"context"
	"time"
)

// Store counts hits per key inside fixed windows.
type Store interface {
	// Incr adds one hit to key. A key without a live window starts a new one
	// of length window. It returns the hit count in the current window and
	// the time left until the window resets.
	Incr(ctx context.Context, key string, window time.Duration) (count int64, ttl time.Duration, err error)
	// Name labels the backend in logs and metrics.
	Name() string
	Close() error
}
