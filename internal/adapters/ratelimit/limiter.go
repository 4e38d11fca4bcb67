package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/techwolf/example-api/pkg/metrics"
)

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed    bool
	Count      int64
	Limit      int
	Remaining  int
	ResetAfter time.Duration
}

// Limiter applies a fixed-window budget per client.
type Limiter struct {
	store      Store
	window     time.Duration
	limit      int
	tokenLimit int
	apiKeys    map[string]struct{}
	metrics    *metrics.Manager
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithWindow sets the window length.
func WithWindow(d time.Duration) Option {
	return func(l *Limiter) {
		if d > 0 {
			l.window = d
		}
	}
}

// WithLimits sets the per-window budget for anonymous clients and for
// clients identified by API key.
func WithLimits(anonymous, token int) Option {
	return func(l *Limiter) {
		if anonymous > 0 {
			l.limit = anonymous
		}
		if token > 0 {
			l.tokenLimit = token
		}
	}
}

// WithAPIKeys lists the keys that get the token budget. Requests carrying
// any other key are counted against their IP.
func WithAPIKeys(keys ...string) Option {
	return func(l *Limiter) {
		for _, k := range keys {
			if k != "" {
				l.apiKeys[k] = struct{}{}
			}
		}
	}
}

// WithMetrics records decisions on m. A nil manager records nothing.
func WithMetrics(m *metrics.Manager) Option {
	return func(l *Limiter) {
		l.metrics = m
	}
}

// New creates a Limiter over store. Defaults: 100 requests per second,
// 1000 for API key holders.
func New(store Store, opts ...Option) *Limiter {
	l := &Limiter{
		store:      store,
		window:     time.Second,
		limit:      100,
		tokenLimit: 1000,
		apiKeys:    map[string]struct{}{},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow counts one hit for the client. A known apiKey takes precedence over
// ip; an unknown one is ignored.
// On store failure the decision allows the request and the error is returned
// so callers can log it.
func (l *Limiter) Allow(ctx context.Context, ip, apiKey string) (Decision, error) {
	key, limit := l.key(ip, apiKey)
	if key == "" {
		return Decision{Allowed: true, Limit: limit, Remaining: limit}, ErrInvalidKey
	}

	count, ttl, err := l.store.Incr(ctx, key, l.window)
	if err != nil {
		l.metrics.RecordRateLimitError(l.store.Name())
		return Decision{Allowed: true, Limit: limit, Remaining: limit}, err
	}

	d := Decision{
		Allowed:    count <= int64(limit),
		Count:      count,
		Limit:      limit,
		Remaining:  max(limit-int(count), 0),
		ResetAfter: ttl,
	}
	l.metrics.RecordRateLimitDecision(l.store.Name(), d.Allowed)
	return d, nil
}

// Backend returns the store name.
func (l *Limiter) Backend() string { return l.store.Name() }

// Close releases the store.
func (l *Limiter) Close() error { return l.store.Close() }

func (l *Limiter) key(ip, apiKey string) (string, int) {
	if _, ok := l.apiKeys[apiKey]; ok {
		sum := sha256.Sum256([]byte(apiKey))
		return "key:" + hex.EncodeToString(sum[:8]), l.tokenLimit
	}
	if ip == "" {
		return "", l.limit
	}
	return "ip:" + ip, l.limit
}
