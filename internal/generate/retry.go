package generate

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"
)

const MaxRetries = 3

// RetryableError indicates a transient failure that can be retried.
type RetryableError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *RetryableError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("retryable error: %s", truncate(e.Message, 200))
	}
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var retryErr *RetryableError
	return errors.As(err, &retryErr)
}

const backoffCap = 10 * time.Second

// Backoff returns a duration for attempt n (0-indexed) with jitter, capped at 10s.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > backoffCap {
		base = backoffCap
	}
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}

// MaxCallDuration bounds one Summary or Details call: every attempt runs to
// its timeout and every pause between attempts takes the longest backoff.
func MaxCallDuration(timeout time.Duration) time.Duration {
	return MaxRetries*timeout + (MaxRetries-1)*(backoffCap+backoffCap/2)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
