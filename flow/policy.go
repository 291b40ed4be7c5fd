package flow

import (
	"math/rand"
	"time"
)

// BackoffPolicy configures exponential backoff with jitter for the
// queue-backed executor's broker-managed retries. The in-process Runner
// uses a simpler fixed retry_delay per node and does not need this type.
type BackoffPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultBackoffPolicy bounds retries to three attempts.
func DefaultBackoffPolicy() BackoffPolicy {
	return BackoffPolicy{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    30 * time.Second,
	}
}

// ComputeBackoff returns the delay before the given (zero-based) retry
// attempt: min(base * 2^attempt, maxDelay) + jitter(0, base).
func ComputeBackoff(attempt int, base, maxDelay time.Duration, rng *rand.Rand) time.Duration {
	if base <= 0 {
		return 0
	}
	delay := base * time.Duration(1<<uint(attempt))
	if maxDelay > 0 && delay > maxDelay {
		delay = maxDelay
	}

	var jitter time.Duration
	if rng != nil {
		jitter = time.Duration(rng.Int63n(int64(base)))
	} else {
		jitter = time.Duration(rand.Int63n(int64(base))) // #nosec G404 -- jitter timing, not security
	}
	return delay + jitter
}
