package ratelimit

import (
	"context"
	"sync"
	"time"
)

type window struct {
	count   int
	resetAt time.Time
}

// InMemoryLimiter is a per-process fixed-window counter.
type InMemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]window
	clock   func() time.Time
}

func NewInMemoryLimiter() *InMemoryLimiter {
	return &InMemoryLimiter{
		windows: make(map[string]window),
		clock:   time.Now,
	}
}

func (l *InMemoryLimiter) Allow(_ context.Context, key string, limit int, windowSize time.Duration) (Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	w, ok := l.windows[key]
	if !ok || now.After(w.resetAt) {
		w = window{count: 0, resetAt: now.Add(windowSize)}
	}

	if w.count >= limit {
		return Result{Allowed: false, Remaining: 0, RetryAfter: w.resetAt.Sub(now)}, nil
	}

	w.count++
	l.windows[key] = w
	return Result{Allowed: true, Remaining: limit - w.count}, nil
}
