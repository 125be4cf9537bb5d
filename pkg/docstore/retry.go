package docstore

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// RetryPolicy defines exponential backoff for throttled writes
type RetryPolicy struct {
	MaxAttempts     int
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	Multiplier      float64
	RandomizeFactor float64
}

// newThrottleRetryPolicy derives a retry policy from the transport's
// configured retry options. MaxAttempts counts the initial try plus the
// configured retries.
func newThrottleRetryPolicy(opts RetryOptions) *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts:     opts.MaxAttemptsOnThrottled + 1,
		InitialDelay:    100 * time.Millisecond,
		MaxDelay:        opts.MaxWaitTime,
		Multiplier:      2.0,
		RandomizeFactor: 0.25,
	}
}

// ExecuteWithCondition runs fn, retrying with backoff only while
// shouldRetry accepts the error.
func (rp *RetryPolicy) ExecuteWithCondition(ctx context.Context, fn func() error, shouldRetry func(error) bool) error {
	var lastErr error

	for attempt := 0; attempt < rp.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err

		if !shouldRetry(err) {
			return err
		}

		// Don't sleep after the last attempt
		if attempt == rp.MaxAttempts-1 {
			break
		}

		delay := rp.calculateDelay(attempt)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-timer.C:
		}
	}

	return fmt.Errorf("all %d attempts failed: %w", rp.MaxAttempts, lastErr)
}

// calculateDelay computes the backoff delay for an attempt with jitter
func (rp *RetryPolicy) calculateDelay(attempt int) time.Duration {
	delay := float64(rp.InitialDelay) * math.Pow(rp.Multiplier, float64(attempt))

	if rp.RandomizeFactor > 0 {
		jitter := (rand.Float64()*2 - 1) * rp.RandomizeFactor * delay
		delay += jitter
	}

	if delay > float64(rp.MaxDelay) {
		delay = float64(rp.MaxDelay)
	}

	return time.Duration(delay)
}
