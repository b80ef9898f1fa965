package featureflags

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/airalert/airalert/internal/kvstore"
)

const storeKeyPrefix = "featureflag:"

// StoreRepository keeps flags in a kvstore.Store, one key per flag.
// Used with the Redis backend so every API and worker instance sees the
// same values.
type StoreRepository struct {
	store kvstore.Store
}

// NewStoreRepository creates a repository backed by store.
func NewStoreRepository(store kvstore.Store) *StoreRepository {
	return &StoreRepository{store: store}
}

// GetFlag retrieves a single feature flag by key.
func (r *StoreRepository) GetFlag(ctx context.Context, key string) (*Flag, error) {
	var flag Flag
	if err := r.store.Get(ctx, storeKeyPrefix+key, &flag); err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return nil, ErrFlagNotFound
		}
		return nil, err
	}
	return &flag, nil
}

// GetAllFlags retrieves all feature flags.
func (r *StoreRepository) GetAllFlags(ctx context.Context) (map[string]*Flag, error) {
	keys, err := r.store.Keys(ctx, storeKeyPrefix)
	if err != nil {
		return nil, err
	}

	flags := make(map[string]*Flag, len(keys))
	for _, k := range keys {
		flag, err := r.GetFlag(ctx, strings.TrimPrefix(k, storeKeyPrefix))
		if errors.Is(err, ErrFlagNotFound) {
			// expired or deleted between Keys and Get
			continue
		}
		if err != nil {
			return nil, err
		}
		flags[flag.Key] = flag
	}
	return flags, nil
}

// SetFlag creates or updates a feature flag.
func (r *StoreRepository) SetFlag(ctx context.Context, flag *Flag) error {
	return r.SetFlags(ctx, []*Flag{flag})
}

// SetFlags writes each flag in turn. The store has no transactions, so a
// failure part-way leaves earlier flags updated.
func (r *StoreRepository) SetFlags(ctx context.Context, flags []*Flag) error {
	now := time.Now()
	for _, flag := range flags {
		stored := Flag{Key: flag.Key, Value: flag.Value, UpdatedAt: now}
		if err := r.store.Set(ctx, storeKeyPrefix+flag.Key, stored, 0); err != nil {
			return err
		}
	}
	return nil
}

// DeleteFlag removes a feature flag by key.
func (r *StoreRepository) DeleteFlag(ctx context.Context, key string) error {
	if _, err := r.GetFlag(ctx, key); err != nil {
		return err
	}
	return r.store.Delete(ctx, storeKeyPrefix+key)
}

var _ Repository = (*StoreRepository)(nil)
