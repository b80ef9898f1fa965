package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker/v2"
)

// Predefined errors for resilient operations.
var (
	// ErrCircuitOpen is returned when the circuit breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker is open")
)

// RetryConfig controls exponential backoff retries.
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts. Zero means retry
	// until MaxElapsedTime.
	MaxRetries uint64

	// InitialInterval is the first backoff interval. Default: 100ms
	InitialInterval time.Duration

	// MaxInterval caps a single backoff interval. Default: 5 seconds
	MaxInterval time.Duration

	// MaxElapsedTime bounds the total retry duration. Default: 30 seconds
	MaxElapsedTime time.Duration
}

// DefaultRetryConfig returns the default retry settings.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:      3,
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		MaxElapsedTime:  30 * time.Second,
	}
}

// Retry runs op with exponential backoff until it succeeds, returns a
// permanent error, or the retry budget is exhausted.
func Retry(ctx context.Context, cfg RetryConfig, op func() error) error {
	if cfg.InitialInterval == 0 {
		cfg.InitialInterval = 100 * time.Millisecond
	}
	if cfg.MaxInterval == 0 {
		cfg.MaxInterval = 5 * time.Second
	}
	if cfg.MaxElapsedTime == 0 {
		cfg.MaxElapsedTime = 30 * time.Second
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = cfg.InitialInterval
	bo.MaxInterval = cfg.MaxInterval
	bo.MaxElapsedTime = cfg.MaxElapsedTime

	var b backoff.BackOff = bo
	if cfg.MaxRetries > 0 {
		b = backoff.WithMaxRetries(bo, cfg.MaxRetries)
	}

	return backoff.Retry(op, backoff.WithContext(b, ctx))
}

// Permanent marks err as non-retryable.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Execute runs fn through cb, retrying transient failures. An open breaker
// stops retries immediately with ErrCircuitOpen. Errors for which isPermanent
// returns true are returned without retrying.
func Execute[T any](ctx context.Context, cb *gobreaker.CircuitBreaker[T], cfg RetryConfig, isPermanent func(error) bool, fn func() (T, error)) (T, error) {
	var result T

	err := Retry(ctx, cfg, func() error {
		v, err := cb.Execute(fn)
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return backoff.Permanent(ErrCircuitOpen)
			}
			if isPermanent != nil && isPermanent(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		result = v
		return nil
	})

	return result, err
}
