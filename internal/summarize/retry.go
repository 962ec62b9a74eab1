package summarize

import (
	"math"
	"math/rand"
	"time"
)

// RetryPolicy bounds the in-session retry loop around the summarization
// call. A session observes a single terminal outcome: a Result, or a typed
// failure after MaximumAttempts.
type RetryPolicy struct {
	InitialInterval    time.Duration
	BackoffCoefficient float64
	MaximumInterval    time.Duration
	MaximumAttempts    int
}

// DefaultRetryPolicy retries twice after the initial attempt, backing off
// exponentially from one second.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		InitialInterval:    time.Second,
		BackoffCoefficient: 2.0,
		MaximumInterval:    30 * time.Second,
		MaximumAttempts:    3,
	}
}

// NextDelay returns the backoff before retry number attempt (1-based), with
// jitter so concurrent pollers don't thunder. math/rand/v2 is fine for
// non-cryptographic jitter.
func (p RetryPolicy) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return p.InitialInterval
	}
	backoff := float64(p.InitialInterval) * math.Pow(p.BackoffCoefficient, float64(attempt-1))
	backoff *= 0.8 + rand.Float64()*0.4
	if backoff > float64(p.MaximumInterval) {
		backoff = float64(p.MaximumInterval)
	}
	return time.Duration(backoff)
}
