// Package kvstore provides the key/value persistence used by every AirAlert
// component. Values are JSON documents addressed by string keys such as
// "pollution:Europe" or "user:{id}:notifications".
package kvstore

import (
	"context"
	"errors"
	"time"
)

// Predefined store errors.
var (
	// ErrNotFound is returned when a key does not exist or has expired.
	ErrNotFound = errors.New("key not found")

	// ErrUnavailable is returned when the backing store cannot be reached.
	ErrUnavailable = errors.New("store unavailable")

	// ErrCodec is returned when a value cannot be encoded or decoded.
	ErrCodec = errors.New("value codec error")
)

// Store is a JSON key/value store with optional per-key expiry.
type Store interface {
	// Get decodes the value stored under key into dest.
	// Returns ErrNotFound if the key is missing or expired.
	Get(ctx context.Context, key string, dest any) error

	// Set stores value under key. A zero ttl means the key never expires.
	Set(ctx context.Context, key string, value any, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Incr atomically increments the integer counter under key and returns
	// the new value. The ttl is applied when the counter is created.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)

	// Keys returns all live keys starting with prefix.
	Keys(ctx context.Context, prefix string) ([]string, error)

	// Ping verifies connectivity to the backing store.
	Ping(ctx context.Context) error
}

// Backend names accepted by configuration.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)
