// Package ratelimit guards ingress call paths with a fixed window counter
// per client identity.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

const (
	// DefaultWindow and DefaultMax are the classifier ingress policy: at
	// most 5 admitted calls per 15 minutes per client.
	DefaultWindow = 15 * time.Minute
	DefaultMax    = 5
)

// Limiter admits or rejects one call for the given client key. When a call
// is rejected, retryAfter hints how long until the window opens again.
type Limiter interface {
	Allow(ctx context.Context, key string) (allowed bool, retryAfter time.Duration, err error)
}

type windowEntry struct {
	count       int
	windowStart time.Time
}

// MemoryLimiter is a process-scoped fixed window counter: a guarded map,
// initialized once and only ever reset per key by window expiry. Window
// boundaries are wall-clock, anchored at the first admitted call after the
// previous window expired.
type MemoryLimiter struct {
	window time.Duration
	max    int
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]*windowEntry
}

func NewMemoryLimiter(window time.Duration, max int) *MemoryLimiter {
	return &MemoryLimiter{
		window:  window,
		max:     max,
		now:     time.Now,
		entries: make(map[string]*windowEntry),
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok || now.Sub(e.windowStart) > l.window {
		l.entries[key] = &windowEntry{count: 1, windowStart: now}
		return true, 0, nil
	}
	if e.count < l.max {
		e.count++
		return true, 0, nil
	}
	return false, e.windowStart.Add(l.window).Sub(now), nil
}
