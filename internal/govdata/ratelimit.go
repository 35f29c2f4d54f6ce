package govdata

import (
	"sync"
	"time"
)

// RateLimiter bounds upstream calls to limit per rolling window. The counter
// resets whenever the window has fully elapsed since it was opened.
type RateLimiter struct {
	mu          sync.Mutex
	limit       int
	window      time.Duration
	windowStart time.Time
	count       int
	now         func() time.Time
}

// NewRateLimiter creates a sliding fixed-window limiter
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

// Allow consumes one slot, or returns a RateLimitedError carrying the time
// remaining until the window resets.
func (r *RateLimiter) Allow() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if now.Sub(r.windowStart) > r.window {
		r.windowStart = now
		r.count = 0
	}

	if r.count >= r.limit {
		return &RateLimitedError{
			RetryAfter: r.window - now.Sub(r.windowStart),
		}
	}

	r.count++
	return nil
}

// SetClock overrides the limiter's time source. Tests only.
func (r *RateLimiter) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}
