package govdata

import (
	"fmt"
	"time"
)

// RateLimitedError is returned when the sliding window is exhausted. The
// fetch is rejected before any network call and is never retried
// automatically.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry in %s", e.RetryAfter.Round(time.Millisecond))
}

// UpstreamError wraps a failed external call. The gateway treats all causes
// identically; callers may recover via the stale-cache fallback.
type UpstreamError struct {
	URL string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream fetch failed for %s: %v", e.URL, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
