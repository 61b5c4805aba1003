// Package retry runs an operation with bounded exponential backoff.
package retry

import (
	"context"
	"fmt"
	"math"
	"time"
)

// Func is one attempt of a retried operation. attempt starts at 1.
type Func func(ctx context.Context, attempt int) error

// Classifier reports whether err is worth another attempt.
type Classifier func(error) bool

// Options bounds the retry loop.
type Options struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	Classifier      Classifier

	// OnRetry, when set, is called before each wait with the failed
	// attempt number, its error and the upcoming delay.
	OnRetry func(attempt int, err error, wait time.Duration)
}

// DefaultOptions retries every error up to five times.
func DefaultOptions() Options {
	return Options{
		MaxAttempts:     5,
		InitialInterval: time.Second,
		MaxInterval:     30 * time.Second,
		Multiplier:      2.0,
		Classifier:      func(error) bool { return true },
	}
}

// Do calls fn until it succeeds, returns a non-retryable error, the
// attempt cap is reached or ctx is done. The error from the final
// attempt is returned wrapped with the attempt count.
func Do(ctx context.Context, fn Func, opts Options) error {
	maxAttempts := opts.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn(ctx, attempt)
		if err == nil {
			return nil
		}
		lastErr = err

		if opts.Classifier != nil && !opts.Classifier(err) {
			return err
		}
		if attempt == maxAttempts {
			break
		}

		wait := Backoff(attempt, opts)
		if opts.OnRetry != nil {
			opts.OnRetry(attempt, err, wait)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return fmt.Errorf("giving up after %d attempts: %w", maxAttempts, lastErr)
}

// Backoff returns the wait that follows the given failed attempt.
func Backoff(attempt int, opts Options) time.Duration {
	if attempt <= 1 {
		return capInterval(opts.InitialInterval, opts.MaxInterval)
	}
	multiplier := opts.Multiplier
	if multiplier < 1 {
		multiplier = 1
	}
	interval := float64(opts.InitialInterval) * math.Pow(multiplier, float64(attempt-1))
	if opts.MaxInterval > 0 && interval > float64(opts.MaxInterval) {
		return opts.MaxInterval
	}
	return time.Duration(interval)
}

func capInterval(d, max time.Duration) time.Duration {
	if max > 0 && d > max {
		return max
	}
	return d
}
