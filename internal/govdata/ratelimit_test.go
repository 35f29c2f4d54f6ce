package govdata

import (
	"errors"
	"testing"
	"time"
)

func TestRateLimiter_AllowsUpToLimit(t *testing.T) {
	limiter := NewRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		if err := limiter.Allow(); err != nil {
			t.Fatalf("call %d should be allowed: %v", i+1, err)
		}
	}

	err := limiter.Allow()
	if err == nil {
		t.Fatal("call over the limit should be rejected")
	}

	var rateLimited *RateLimitedError
	if !errors.As(err, &rateLimited) {
		t.Fatalf("expected RateLimitedError, got %T", err)
	}
	if rateLimited.RetryAfter <= 0 || rateLimited.RetryAfter > time.Minute {
		t.Errorf("retry-after out of range: %s", rateLimited.RetryAfter)
	}
}

func TestRateLimiter_WindowReset(t *testing.T) {
	limiter := NewRateLimiter(1, time.Minute)
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	limiter.SetClock(func() time.Time { return current })

	if err := limiter.Allow(); err != nil {
		t.Fatal(err)
	}
	if err := limiter.Allow(); err == nil {
		t.Fatal("second call in window should be rejected")
	}

	current = current.Add(61 * time.Second)

	if err := limiter.Allow(); err != nil {
		t.Errorf("call in fresh window should be allowed: %v", err)
	}
}

func TestRateLimiter_RetryAfterShrinks(t *testing.T) {
	limiter := NewRateLimiter(1, time.Minute)
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	limiter.SetClock(func() time.Time { return current })

	if err := limiter.Allow(); err != nil {
		t.Fatal(err)
	}

	current = current.Add(45 * time.Second)

	var rateLimited *RateLimitedError
	if !errors.As(limiter.Allow(), &rateLimited) {
		t.Fatal("expected RateLimitedError")
	}
	if rateLimited.RetryAfter != 15*time.Second {
		t.Errorf("expected 15s retry-after, got %s", rateLimited.RetryAfter)
	}
}
