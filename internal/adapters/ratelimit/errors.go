package ratelimit

import (
	"errors"
	"fmt"
)

// Sentinel kinds for rate limiter errors.
var (
	ErrStore       = errors.New("rate limit store failed")
	ErrInvalidKey  = errors.New("empty rate limit key")
	ErrRateLimited = errors.New("rate limited")
)

func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStore, err)
}
