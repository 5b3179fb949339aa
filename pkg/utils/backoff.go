package utils

import (
	"context"
	"math"
	"time"
)

// BackoffStrategy represents a retry backoff strategy
type BackoffStrategy interface {
	// NextDelay returns the delay for the given attempt number (0-indexed)
	NextDelay(attempt int) time.Duration
}

// ConstantBackoff implements a constant backoff strategy
type ConstantBackoff struct {
	Delay time.Duration
}

// NewConstantBackoff creates a new constant backoff strategy
func NewConstantBackoff(delay time.Duration) *ConstantBackoff {
	return &ConstantBackoff{Delay: delay}
}

// NextDelay returns the constant delay
func (cb *ConstantBackoff) NextDelay(attempt int) time.Duration {
	return cb.Delay
}

// ExponentialBackoff implements an exponential backoff strategy
type ExponentialBackoff struct {
	BaseDelay  time.Duration
	Multiplier float64
	MaxDelay   time.Duration
	Jitter     bool
}

// NewExponentialBackoff creates a new exponential backoff strategy
func NewExponentialBackoff(baseDelay, maxDelay time.Duration, multiplier float64, jitter bool) *ExponentialBackoff {
	if multiplier <= 0 {
		multiplier = 2.0
	}
	return &ExponentialBackoff{
		BaseDelay:  baseDelay,
		Multiplier: multiplier,
		MaxDelay:   maxDelay,
		Jitter:     jitter,
	}
}

// NextDelay returns the exponentially increasing delay
func (eb *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	delay := float64(eb.BaseDelay) * math.Pow(eb.Multiplier, float64(attempt))

	if delay > float64(eb.MaxDelay) {
		delay = float64(eb.MaxDelay)
	}

	if eb.Jitter {
		// jitter factor in [0.5, 1.5)
		delay *= 0.5 + Float64()
	}

	return time.Duration(delay)
}

// BackoffFromConfig creates a backoff strategy from config parameters
func BackoffFromConfig(backoffType string, baseMs int, maxMs int) BackoffStrategy {
	baseDelay := time.Duration(baseMs) * time.Millisecond
	maxDelay := time.Duration(maxMs) * time.Millisecond

	if maxDelay == 0 {
		maxDelay = 30 * time.Second
	}

	switch backoffType {
	case "constant":
		return NewConstantBackoff(baseDelay)
	case "exponential":
		return NewExponentialBackoff(baseDelay, maxDelay, 2.0, true)
	default:
		return NewExponentialBackoff(baseDelay, maxDelay, 2.0, true)
	}
}

// Retry calls fn until it returns nil, maxRetries retries have been spent or
// ctx is done. Attempt n > 0 waits strategy.NextDelay(n-1) first. The last
// error from fn (or the context error) is returned.
func Retry(ctx context.Context, maxRetries int, strategy BackoffStrategy, fn func(attempt int) error) error {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(strategy.NextDelay(attempt - 1))
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
		if lastErr = fn(attempt); lastErr == nil {
			return nil
		}
	}
	return lastErr
}
