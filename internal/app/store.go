package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/airalert/airalert/internal/config"
	"github.com/airalert/airalert/internal/database"
	"github.com/airalert/airalert/internal/featureflags"
	"github.com/airalert/airalert/internal/kvstore"
	"github.com/airalert/airalert/internal/resilience"
)

// Backend is an opened store plus the resources behind it.
type Backend struct {
	Store kvstore.Store

	// Flags is set when the backend keeps feature flags in their own table.
	Flags featureflags.Repository

	closers []func()
}

// Close releases the backend's connections.
func (b *Backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// OpenStore connects to the backend named by cfg.Store.Backend. Remote
// backends are wrapped with a circuit breaker registered in registry.
func OpenStore(ctx context.Context, cfg config.Config, logger zerolog.Logger, registry *resilience.Registry) (*Backend, error) {
	backend := &Backend{}

	switch cfg.Store.Backend {
	case "", config.BackendMemory:
		backend.Store = kvstore.NewMemoryStore()
		logger.Warn().Msg("using in-memory store, data will not survive a restart")
		return backend, nil

	case config.BackendRedis:
		rdb, err := kvstore.ConnectRedis(ctx, kvstore.RedisConfig{
			Addr:     cfg.Store.Redis.Addr,
			Password: cfg.Store.Redis.Password,
			DB:       cfg.Store.Redis.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		backend.closers = append(backend.closers, func() {
			if err := rdb.Close(); err != nil {
				logger.Error().Err(err).Msg("closing redis")
			}
		})
		backend.Store = kvstore.NewResilientStore(rdb, kvstore.ResilientConfig{
			Name:     "redis",
			Logger:   logger,
			Registry: registry,
		})
		logger.Info().Str("addr", cfg.Store.Redis.Addr).Msg("connected to redis")
		return backend, nil

	case config.BackendPostgres:
		pool, err := database.Connect(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		backend.closers = append(backend.closers, pool.Close)

		pg := kvstore.NewPostgresStore(pool)
		if err := pg.Migrate(ctx); err != nil {
			backend.Close()
			return nil, err
		}
		flags := featureflags.NewPostgresRepository(pool)
		if err := flags.Migrate(ctx); err != nil {
			backend.Close()
			return nil, err
		}

		backend.Store = kvstore.NewResilientStore(pg, kvstore.ResilientConfig{
			Name:     "postgres",
			Logger:   logger,
			Registry: registry,
		})
		backend.Flags = flags
		logger.Info().
			Str("host", cfg.Database.Host).
			Str("database", cfg.Database.Database).
			Msg("connected to postgres")
		return backend, nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
