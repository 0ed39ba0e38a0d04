// Package index embeds chunks and writes them to the vector index with
// bounded retry.
package index

import (
	"context"
	"time"
)

// BackoffFn maps a 1-based attempt number to the delay before the next
// attempt.
type BackoffFn func(attempt int) time.Duration

// ExponentialBackoff doubles the base delay per attempt: base, 2*base,
// 4*base, ...
func ExponentialBackoff(base time.Duration) BackoffFn {
	return func(attempt int) time.Duration {
		return base << (attempt - 1)
	}
}

// withRetry runs op up to maxAttempts times, sleeping backoff(attempt)
// between failures. The sleep function is injectable for tests. Returns
// the last error when all attempts fail.
func withRetry(ctx context.Context, maxAttempts int, backoff BackoffFn, sleep func(time.Duration), op func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if lastErr = op(); lastErr == nil {
			return nil
		}
		if attempt < maxAttempts {
			sleep(backoff(attempt))
		}
	}
	return lastErr
}
