// Package gate guards the AI analysis endpoint. It holds the per-user
// fixed-window quota, the TTL result cache and the orchestration that ties
// both to the generation call.
//
// All state is process-local: separate instances keep independent quotas and
// caches, and a restart resets everything.
package gate

import (
	"sync"
	"time"
)

// Decision is the outcome of a quota check.
type Decision struct {
	Allowed bool
	// RetryAfter is the time left until the caller's window resets. Zero when
	// Allowed.
	RetryAfter time.Duration
}

type rateWindow struct {
	count   int
	resetAt time.Time
}

// FixedWindowLimiter admits at most limit calls per user inside a window that
// opens on the user's first call. Expiry is evaluated lazily on each call; a
// call at or after the reset instant starts a fresh window.
//
// This type is safe for concurrent use.
type FixedWindowLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	windows map[string]*rateWindow
	calls   uint64
}

// NewFixedWindowLimiter returns a limiter allowing limit calls per window.
// Non-positive values fall back to 10 calls per 60 seconds.
func NewFixedWindowLimiter(limit int, window time.Duration) *FixedWindowLimiter {
	if limit <= 0 {
		limit = 10
	}
	if window <= 0 {
		window = time.Minute
	}
	return &FixedWindowLimiter{
		limit:   limit,
		window:  window,
		now:     time.Now,
		windows: make(map[string]*rateWindow),
	}
}

// TryAcquire reports whether userID may make another call now.
func (l *FixedWindowLimiter) TryAcquire(userID string) bool {
	return l.Acquire(userID).Allowed
}

// Acquire consumes one admission for userID when available.
func (l *FixedWindowLimiter) Acquire(userID string) Decision {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.calls++
	if l.calls >= 5000 {
		for k, w := range l.windows {
			if !now.Before(w.resetAt) {
				delete(l.windows, k)
			}
		}
		l.calls = 0
	}

	w, ok := l.windows[userID]
	if !ok || !now.Before(w.resetAt) {
		l.windows[userID] = &rateWindow{count: 1, resetAt: now.Add(l.window)}
		return Decision{Allowed: true}
	}
	if w.count >= l.limit {
		return Decision{RetryAfter: w.resetAt.Sub(now)}
	}
	w.count++
	return Decision{Allowed: true}
}
