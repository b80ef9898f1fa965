package kvstore

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/airalert/airalert/internal/resilience"
)

// ResilientConfig holds configuration for a ResilientStore.
type ResilientConfig struct {
	// Name identifies the store in logs and the health registry.
	Name string

	Logger   zerolog.Logger
	Registry *resilience.Registry

	// Retry controls retries of transient failures.
	// Zero value uses a short budget suitable for request paths.
	Retry resilience.RetryConfig
}

// ResilientStore wraps a Store with a circuit breaker and retries.
// ErrNotFound never counts as a failure and is not retried.
type ResilientStore struct {
	next     Store
	name     string
	cb       *gobreaker.CircuitBreaker[any]
	retry    resilience.RetryConfig
	registry *resilience.Registry
}

// NewResilientStore wraps next.
func NewResilientStore(next Store, cfg ResilientConfig) *ResilientStore {
	name := cfg.Name
	if name == "" {
		name = "kvstore"
	}

	retry := cfg.Retry
	if retry == (resilience.RetryConfig{}) {
		retry = resilience.RetryConfig{
			MaxRetries:      2,
			InitialInterval: 50 * time.Millisecond,
			MaxInterval:     500 * time.Millisecond,
			MaxElapsedTime:  2 * time.Second,
		}
	}

	logger := cfg.Logger
	cbCfg := resilience.DefaultCircuitBreakerConfig(name)
	cbCfg.IsSuccessful = func(err error) bool {
		return err == nil || errors.Is(err, ErrNotFound)
	}
	cbCfg.OnStateChange = func(name string, from, to gobreaker.State) {
		logger.Warn().
			Str("store", name).
			Str("from", from.String()).
			Str("to", to.String()).
			Msg("store circuit breaker state changed")
	}

	s := &ResilientStore{
		next:     next,
		name:     name,
		cb:       resilience.NewCircuitBreaker[any](cbCfg),
		retry:    retry,
		registry: cfg.Registry,
	}
	if s.registry != nil {
		s.registry.Register(name, s.cb)
	}
	return s
}

// Get decodes the value stored under key into dest.
func (s *ResilientStore) Get(ctx context.Context, key string, dest any) error {
	_, err := s.do(ctx, func() (any, error) {
		return nil, s.next.Get(ctx, key, dest)
	})
	return err
}

// Set stores value under key.
func (s *ResilientStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	_, err := s.do(ctx, func() (any, error) {
		return nil, s.next.Set(ctx, key, value, ttl)
	})
	return err
}

// Delete removes key.
func (s *ResilientStore) Delete(ctx context.Context, key string) error {
	_, err := s.do(ctx, func() (any, error) {
		return nil, s.next.Delete(ctx, key)
	})
	return err
}

// Incr increments the counter under key. Increments are not retried so that
// a lost reply never double counts.
func (s *ResilientStore) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	v, err := s.cb.Execute(func() (any, error) {
		return s.next.Incr(ctx, key, ttl)
	})
	s.record(err)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return 0, ErrUnavailable
		}
		return 0, err
	}
	return v.(int64), nil
}

// Keys returns the live keys with the given prefix.
func (s *ResilientStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	v, err := s.do(ctx, func() (any, error) {
		return s.next.Keys(ctx, prefix)
	})
	if err != nil {
		return nil, err
	}
	keys, _ := v.([]string)
	return keys, nil
}

// Ping checks the wrapped store directly, bypassing the breaker.
func (s *ResilientStore) Ping(ctx context.Context) error {
	return s.next.Ping(ctx)
}

// State returns the current circuit breaker state.
func (s *ResilientStore) State() gobreaker.State {
	return s.cb.State()
}

func (s *ResilientStore) do(ctx context.Context, fn func() (any, error)) (any, error) {
	v, err := resilience.Execute(ctx, s.cb, s.retry, isPermanent, fn)
	s.record(err)
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return nil, ErrUnavailable
	}
	return v, err
}

func (s *ResilientStore) record(err error) {
	if s.registry == nil {
		return
	}
	if err == nil || errors.Is(err, ErrNotFound) {
		s.registry.RecordSuccess(s.name)
		return
	}
	s.registry.RecordFailure(s.name, err)
}

// isPermanent reports errors that retrying cannot fix.
func isPermanent(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrCodec) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

var _ Store = (*ResilientStore)(nil)
