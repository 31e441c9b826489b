package retry

import (
	"math/rand"
	"time"
)

// ExponentialBackoff returns delay based on attempt number.
// The delay doubles with each attempt: base * 2^attempt
func ExponentialBackoff(attempt int, base time.Duration) time.Duration {
	return base * (1 << attempt)
}

// WithJitter adds up to 50% random jitter to d so concurrent retries
// against a rate-limited endpoint do not synchronize.
func WithJitter(d time.Duration, rng *rand.Rand) time.Duration {
	if d <= 0 {
		return d
	}
	return d + time.Duration(rng.Int63n(int64(d)/2+1))
}
