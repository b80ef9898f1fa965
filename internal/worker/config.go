// Package worker provides background pollution refresh and alert sweeps.
package worker

import (
	"time"

	"github.com/airalert/airalert/internal/pollution"
)

// RefreshConfig holds configuration for the refresh job.
type RefreshConfig struct {
	// Regions are refreshed on every run.
	// If empty, uses pollution.Regions().
	Regions []string

	// Concurrency is the number of regions processed at once.
	// Default: 3
	Concurrency int

	// Timeout bounds the work done for a single region, including its
	// alert sweep.
	// Default: 30 seconds
	Timeout time.Duration

	// SweepAlerts evaluates alerts for every user of a refreshed region.
	// Default: true
	SweepAlerts bool
}

// DefaultRefreshConfig returns the default refresh configuration.
func DefaultRefreshConfig() RefreshConfig {
	return RefreshConfig{
		Regions:     pollution.Regions(),
		Concurrency: 3,
		Timeout:     30 * time.Second,
		SweepAlerts: true,
	}
}

func (c RefreshConfig) withDefaults() RefreshConfig {
	def := DefaultRefreshConfig()
	if len(c.Regions) == 0 {
		c.Regions = def.Regions
	}
	if c.Concurrency <= 0 {
		c.Concurrency = def.Concurrency
	}
	if c.Timeout <= 0 {
		c.Timeout = def.Timeout
	}
	return c
}
