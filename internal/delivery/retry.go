package delivery

import (
	"errors"
	"math"
	"time"
)

// RetryableError is an error that knows whether it can be retried.
type RetryableError interface {
	error
	Retryable() bool
}

// RetryPolicy defines how a failed webhook request is retried.
type RetryPolicy struct {
	// MaxRetries is the number of retries after the first attempt (0 = no retries).
	MaxRetries int
	// Delay is the wait before each retry.
	Delay time.Duration
	// Multiplier grows the delay per retry; values <= 1 keep it fixed.
	Multiplier float64
	// MaxDelay caps the grown delay. Zero means no cap.
	MaxDelay time.Duration
}

// DefaultRetryPolicy returns five retries spaced 800ms apart.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 5,
		Delay:      800 * time.Millisecond,
		Multiplier: 1,
	}
}

// NewRetryPolicy creates a fixed-delay policy from configuration values.
func NewRetryPolicy(maxRetries int, delay time.Duration) RetryPolicy {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if delay < 0 {
		delay = 0
	}
	return RetryPolicy{
		MaxRetries: maxRetries,
		Delay:      delay,
		Multiplier: 1,
	}
}

// ShouldRetry decides whether another attempt follows a failed one. retry is
// the number of retries already made.
func (p RetryPolicy) ShouldRetry(retry int, err error) bool {
	if err == nil {
		return false
	}
	if p.MaxRetries <= 0 || retry >= p.MaxRetries {
		return false
	}

	var retryable RetryableError
	if errors.As(err, &retryable) {
		return retryable.Retryable()
	}

	return true
}

// NextDelay returns the wait before retry number retry (0-based).
func (p RetryPolicy) NextDelay(retry int) time.Duration {
	if retry <= 0 || p.Multiplier <= 1 {
		return p.Delay
	}

	delay := float64(p.Delay) * math.Pow(p.Multiplier, float64(retry))
	if p.MaxDelay > 0 && delay > float64(p.MaxDelay) {
		return p.MaxDelay
	}
	return time.Duration(delay)
}

// nonRetryableError wraps an error to mark it as non-retryable.
type nonRetryableError struct {
	err error
}

func (e *nonRetryableError) Error() string {
	return e.err.Error()
}

func (e *nonRetryableError) Unwrap() error {
	return e.err
}

func (e *nonRetryableError) Retryable() bool {
	return false
}

// NonRetryable marks err as permanent, e.g. a request that cannot be built.
func NonRetryable(err error) error {
	if err == nil {
		return nil
	}
	return &nonRetryableError{err: err}
}
