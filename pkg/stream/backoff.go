package stream

import (
	"context"
	"time"
)

const (
	// MaxAttempts bounds provider acquisition retries per request.
	MaxAttempts = 3

	baseDelay = 1000 * time.Millisecond
	maxDelay  = 10000 * time.Millisecond
)

// Backoff returns the wait before retrying the given 1-based attempt:
// 1s, 2s, 4s, ... capped at 10s. Non-decreasing across attempts.
func Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := baseDelay << (attempt - 1)
	if d > maxDelay || d <= 0 {
		return maxDelay
	}
	return d
}

// Wait sleeps for the attempt's backoff delay or until ctx is cancelled.
func Wait(ctx context.Context, attempt int) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(Backoff(attempt)):
		return nil
	}
}
