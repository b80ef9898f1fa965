package app

import (
	"github.com/rs/zerolog"

	"github.com/airalert/airalert/internal/config"
	"github.com/airalert/airalert/internal/worker"
)

// RefreshJob builds the pollution refresh job over the wired services.
func (s *Services) RefreshJob(cfg config.WorkerConfig, logger zerolog.Logger) *worker.RefreshJob {
	return worker.NewRefreshJob(worker.RefreshJobConfig{
		Config: worker.RefreshConfig{
			Regions:     cfg.Regions,
			Concurrency: cfg.Concurrency,
			Timeout:     cfg.RegionTimeout,
			SweepAlerts: true,
		},
		Logger:   logger.With().Str("component", "worker").Logger(),
		Readings: s.Pollution,
		Users:    s.Users,
		Alerts:   s.Alerts,
		Flags:    s.Flags,
	})
}
