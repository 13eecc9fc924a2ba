package pipeline

import (
	"time"

	"github.com/secondbrain/vault-service/internal/vault"
)

// RetryPolicy decides whether a failed pipeline step is re-dispatched and
// how long to wait before the next attempt.
type RetryPolicy struct {
	// MaxAttempts is the total number of executions allowed per job.
	MaxAttempts int
	// BaseDelay is the wait before the first retry; it doubles per attempt.
	BaseDelay time.Duration
	// MaxDelay caps the exponential growth.
	MaxDelay time.Duration
	// Retryable classifies an error as transient. Non-retryable failures
	// retire the job immediately regardless of remaining attempts.
	Retryable func(error) bool
}

// DefaultRetryPolicy mirrors the pipeline defaults: three attempts with
// exponential backoff, validation failures never retried.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   2 * time.Second,
		MaxDelay:    5 * time.Minute,
		Retryable:   vault.Retryable,
	}
}

// Backoff returns the delay before re-dispatching a job that has already
// failed attempt times (0-based: the first retry waits BaseDelay).
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	d := p.BaseDelay
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}
