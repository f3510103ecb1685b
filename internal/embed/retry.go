package embed

import (
	"context"
	"fmt"
	"time"
)

// Backoff schedule for transient provider failures.
const (
	retryInitialDelay = 1 * time.Second
	retryMaxDelay     = 16 * time.Second
	retryMultiplier   = 2.0
)

// withRetry executes fn up to maxRetries+1 times with exponential
// backoff between attempts.
func withRetry(ctx context.Context, maxRetries int, fn func() error) error {
	return retryWithDelay(ctx, maxRetries, retryInitialDelay, fn)
}

// retryWithDelay is withRetry with the first backoff delay exposed.
// A cancelled context returns immediately, also mid-wait.
func retryWithDelay(ctx context.Context, maxRetries int, initialDelay time.Duration, fn func() error) error {
	if maxRetries < 0 {
		maxRetries = 0
	}

	delay := initialDelay
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := fn(); err != nil {
			lastErr = err
			if attempt >= maxRetries {
				break
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}

			delay = time.Duration(float64(delay) * retryMultiplier)
			if delay > retryMaxDelay {
				delay = retryMaxDelay
			}
			continue
		}
		return nil
	}

	return fmt.Errorf("failed after %d retries: %w", maxRetries, lastErr)
}
