package resilience_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airalert/airalert/internal/resilience"
)

func TestDefaultReadyToTrip(t *testing.T) {
	tests := []struct {
		name   string
		counts gobreaker.Counts
		want   bool
	}{
		{"no requests", gobreaker.Counts{}, false},
		{"few failures", gobreaker.Counts{Requests: 4, TotalFailures: 4}, false},
		{"half failing", gobreaker.Counts{Requests: 10, TotalFailures: 5}, true},
		{"mostly ok", gobreaker.Counts{Requests: 10, TotalFailures: 2}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resilience.DefaultReadyToTrip(tt.counts))
		})
	}
}

func TestRetry_SucceedsAfterFailures(t *testing.T) {
	attempts := 0
	err := resilience.Retry(context.Background(), resilience.RetryConfig{
		MaxRetries:      5,
		InitialInterval: time.Millisecond,
		MaxInterval:     time.Millisecond,
	}, func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetry_PermanentStops(t *testing.T) {
	errFatal := errors.New("fatal")
	attempts := 0
	err := resilience.Retry(context.Background(), resilience.RetryConfig{
		MaxRetries:      5,
		InitialInterval: time.Millisecond,
	}, func() error {
		attempts++
		return resilience.Permanent(errFatal)
	})

	assert.ErrorIs(t, err, errFatal)
	assert.Equal(t, 1, attempts)
}

func TestExecute_OpenCircuit(t *testing.T) {
	cfg := resilience.DefaultCircuitBreakerConfig("test")
	cfg.ReadyToTrip = func(c gobreaker.Counts) bool { return c.ConsecutiveFailures >= 1 }
	cb := resilience.NewCircuitBreaker[int](cfg)

	retry := resilience.RetryConfig{MaxRetries: 3, InitialInterval: time.Millisecond}
	calls := 0
	_, err := resilience.Execute(context.Background(), cb, retry, nil, func() (int, error) {
		calls++
		return 0, errors.New("boom")
	})

	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Equal(t, 1, calls)
	assert.Equal(t, gobreaker.StateOpen, cb.State())
}

func TestRegistry_RegisterAndGetHealth(t *testing.T) {
	registry := resilience.NewRegistry()
	cb := resilience.NewCircuitBreaker[any](resilience.DefaultCircuitBreakerConfig("redis"))
	registry.Register("redis", cb)

	assert.Equal(t, 1, registry.Count())

	health := registry.GetHealth("redis")
	require.NotNil(t, health)
	assert.Equal(t, "redis", health.Name)
	assert.Equal(t, "closed", health.State)
	assert.True(t, health.IsHealthy())
	assert.False(t, health.IsDegraded())
	assert.False(t, health.IsUnhealthy())

	registry.RecordFailure("redis", errors.New("timeout"))
	health = registry.GetHealth("redis")
	assert.Equal(t, "timeout", health.LastError)
	assert.NotNil(t, health.LastFailureAt)

	registry.Unregister("redis")
	assert.Nil(t, registry.GetHealth("redis"))
}

func TestRegistry_GetAllHealthSorted(t *testing.T) {
	registry := resilience.NewRegistry()
	registry.Register("postgres", resilience.NewCircuitBreaker[any](resilience.DefaultCircuitBreakerConfig("postgres")))
	registry.Register("memory", resilience.NewCircuitBreaker[any](resilience.DefaultCircuitBreakerConfig("memory")))

	all := registry.GetAllHealth()
	require.Len(t, all, 2)
	assert.Equal(t, "memory", all[0].Name)
	assert.Equal(t, "postgres", all[1].Name)
}
