// Package ratelimit provides a fixed-window counter used to cap OTP sends
// per phone number. Keys live for one window and reset when it rolls over.
package ratelimit

import (
	"context"
	"time"
)

// Result reports the outcome of one permission check.
type Result struct {
	Allowed   bool
	Remaining int
	// RetryAfter is how long until the window resets; only meaningful when
	// the request was denied.
	RetryAfter time.Duration
}

// Limiter answers whether one more event is allowed for a key within the
// current window. The check consumes the slot when allowed.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (Result, error)
}
