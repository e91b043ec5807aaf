// Package retry wraps outbound provider calls with bounded, jittered
// exponential backoff.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Config configures retry behavior.
type Config struct {
	// MaxAttempts includes the initial attempt.
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	// Jitter is the randomization factor applied to every delay (0..1).
	Jitter float64
	// IsRetryable decides whether an error deserves another attempt.
	// Nil retries nothing.
	IsRetryable func(error) bool
	// OnRetry is called before each sleep.
	OnRetry func(attempt int, err error, delay time.Duration)
}

func DefaultConfig() Config {
	return Config{
		MaxAttempts:  3,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
		Jitter:       0.3,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	if c.InitialDelay <= 0 {
		c.InitialDelay = d.InitialDelay
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = d.MaxDelay
	}
	if c.Multiplier <= 0 {
		c.Multiplier = d.Multiplier
	}
	if c.Jitter < 0 || c.Jitter > 1 {
		c.Jitter = d.Jitter
	}
	return c
}

// Do runs op until it succeeds, returns a non-retryable error, the attempt
// budget is spent, or ctx ends. It returns the number of attempts made.
func Do[T any](ctx context.Context, cfg Config, op func(ctx context.Context) (T, error)) (T, int, error) {
	cfg = cfg.withDefaults()

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = cfg.InitialDelay
	eb.MaxInterval = cfg.MaxDelay
	eb.Multiplier = cfg.Multiplier
	eb.RandomizationFactor = cfg.Jitter

	attempts := 0
	wrapped := func() (T, error) {
		attempts++
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}
		if ctx.Err() != nil || cfg.IsRetryable == nil || !cfg.IsRetryable(err) {
			return v, backoff.Permanent(err)
		}
		if d := serverDelay(err, cfg.MaxDelay); d > 0 && attempts < cfg.MaxAttempts {
			if werr := sleepCtx(ctx, d); werr != nil {
				return v, backoff.Permanent(werr)
			}
		}
		return v, err
	}

	opts := []backoff.RetryOption{
		backoff.WithBackOff(eb),
		backoff.WithMaxTries(uint(cfg.MaxAttempts)),
		backoff.WithMaxElapsedTime(0),
	}
	if cfg.OnRetry != nil {
		opts = append(opts, backoff.WithNotify(func(err error, d time.Duration) {
			cfg.OnRetry(attempts, err, d)
		}))
	}
	v, err := backoff.Retry(ctx, wrapped, opts...)
	return v, attempts, err
}

// serverDelay returns the Retry-After style hint carried by err, capped at
// max. The backoff delay is still added on top.
func serverDelay(err error, max time.Duration) time.Duration {
	var hinted interface{ RetryDelay() time.Duration }
	if !errors.As(err, &hinted) {
		return 0
	}
	d := hinted.RetryDelay()
	if d > max {
		d = max
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
