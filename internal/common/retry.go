package common

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

// RetryableFunc defines a function that can be retried.
type RetryableFunc func() error

// Config holds the configuration for retry behavior.
type Config struct {
	maxRetries   int
	initialDelay time.Duration
	maxDelay     time.Duration
	multiplier   float64
	retryIf      func(error) bool
}

// Option is a functional option for configuring retry behavior.
type Option func(*Config)

// WithMaxRetries sets the maximum number of retry attempts.
// Default is 3 retries.
func WithMaxRetries(n int) Option {
	return func(c *Config) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithInitialDelay sets the initial delay before the first retry.
// Default is 1 second.
func WithInitialDelay(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.initialDelay = d
		}
	}
}

// WithMaxDelay sets the maximum delay between retries.
// Default is 30 seconds.
func WithMaxDelay(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.maxDelay = d
		}
	}
}

// WithMultiplier sets the exponential backoff multiplier.
// Default is 2.0 (doubles each retry).
func WithMultiplier(m float64) Option {
	return func(c *Config) {
		if m > 0 {
			c.multiplier = m
		}
	}
}

// WithRetryIf restricts retries to errors accepted by pred.
// A rejected error is returned immediately, unwrapped.
func WithRetryIf(pred func(error) bool) Option {
	return func(c *Config) {
		if pred != nil {
			c.retryIf = pred
		}
	}
}

func defaultConfig() *Config {
	return &Config{
		maxRetries:   3,
		initialDelay: 1 * time.Second,
		maxDelay:     30 * time.Second,
		multiplier:   2.0,
		retryIf:      func(error) bool { return true },
	}
}

// Do executes fn with exponential backoff.
// It stops early when ctx is cancelled or when the WithRetryIf predicate
// rejects an error.
//
//	err := common.Do(ctx, func() error {
//	    return store.Ping()
//	}, common.WithMaxRetries(5), common.WithRetryIf(common.IsRetryable))
func Do(ctx context.Context, fn RetryableFunc, opts ...Option) error {
	if fn == nil {
		return errors.New("retry: function cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	lastErr := fn()
	if lastErr == nil {
		return nil
	}
	if !cfg.retryIf(lastErr) {
		return lastErr
	}

	for attempt := 1; attempt <= cfg.maxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return fmt.Errorf("retry aborted after %d attempts: %w", attempt, ctx.Err())
		default:
		}

		delay := calculateDelay(attempt, cfg.initialDelay, cfg.maxDelay, cfg.multiplier)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("retry aborted during backoff (attempt %d/%d): %w", attempt, cfg.maxRetries, ctx.Err())
		case <-timer.C:
		}

		if lastErr = fn(); lastErr == nil {
			return nil
		}
		if !cfg.retryIf(lastErr) {
			return lastErr
		}
	}

	return fmt.Errorf("retry failed after %d attempts: %w", cfg.maxRetries+1, lastErr)
}

// calculateDelay returns initialDelay * multiplier^(attempt-1), capped at maxDelay.
func calculateDelay(attempt int, initialDelay, maxDelay time.Duration, multiplier float64) time.Duration {
	delay := float64(initialDelay) * math.Pow(multiplier, float64(attempt-1))
	if time.Duration(delay) > maxDelay {
		return maxDelay
	}
	return time.Duration(delay)
}
