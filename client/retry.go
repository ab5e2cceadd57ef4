package client

import (
	"context"
	"math/rand"
	"time"
)

// RetryConfig controls how the client retries failed requests.
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts after the first
	// request.
	MaxRetries int
	// BaseDelay is the backoff before the first retry.
	BaseDelay time.Duration
	// MaxDelay caps the backoff.
	MaxDelay time.Duration
	// Multiplier grows the backoff after each attempt.
	Multiplier float64
	// Jitter is the random spread applied to each delay, as a fraction
	// (0.0 to 1.0), so concurrent clients do not retry in lockstep.
	Jitter float64
	// RetryableOn reports whether a status code should trigger a retry.
	RetryableOn func(statusCode int) bool
}

// DefaultRetryConfig retries transient failures (timeouts, rate limits,
// 5xx) up to three times with exponential backoff.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries: 3,
		BaseDelay:  time.Second,
		MaxDelay:   30 * time.Second,
		Multiplier: 2.0,
		Jitter:     0.2,
		RetryableOn: func(statusCode int) bool {
			switch statusCode {
			case 408, 429, 500, 502, 503, 504:
				return true
			default:
				return false
			}
		},
	}
}

// ShouldRetry reports whether the given attempt should be retried for the
// given status code.
func (r *RetryConfig) ShouldRetry(attempt, statusCode int) bool {
	return attempt < r.MaxRetries && r.RetryableOn(statusCode)
}

// Delay returns the backoff for the given attempt, jittered.
func (r *RetryConfig) Delay(attempt int) time.Duration {
	delay := r.BaseDelay
	for i := 0; i < attempt && delay < r.MaxDelay; i++ {
		delay = time.Duration(float64(delay) * r.Multiplier)
	}
	if delay > r.MaxDelay {
		delay = r.MaxDelay
	}
	return jittered(delay, r.Jitter)
}

// Wait blocks for the attempt's backoff delay or until ctx is done.
func (r *RetryConfig) Wait(ctx context.Context, attempt int) error {
	timer := time.NewTimer(r.Delay(attempt))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// jittered spreads d by up to +/- factor. Shared with WaitForEmail's
// polling backoff.
func jittered(d time.Duration, factor float64) time.Duration {
	if factor <= 0 {
		return d
	}
	spread := float64(d) * factor
	return time.Duration(float64(d) - spread + rand.Float64()*2*spread)
}
