// Package handler provides HTTP handlers for the AirAlert API.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/airalert/airalert/internal/api/models"
	"github.com/airalert/airalert/internal/api/response"
	"github.com/airalert/airalert/internal/resilience"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// OpsConfig holds configuration for the ops handler.
type OpsConfig struct {
	Version   string
	BuildTime string
	Store     Pinger
	Registry  *resilience.Registry
	Logger    zerolog.Logger

	// Worker reports the in-process refresh job, when one runs.
	Worker func() map[string]interface{}

	// Now returns the current time. Default: time.Now
	Now func() time.Time
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	cfg OpsConfig
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(cfg OpsConfig) *OpsHandler {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &OpsHandler{cfg: cfg}
}

// HealthCheck handles GET /v1/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, models.Health{
		Status:    models.HealthStatusOK,
		Timestamp: models.Timestamp(h.cfg.Now()),
	})
}

// ReadinessCheck handles GET /v1/ready. It fails when the store does not
// answer a ping within two seconds.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	if h.cfg.Store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.cfg.Store.Ping(ctx); err != nil {
			h.cfg.Logger.Warn().Err(err).Msg("readiness check failed")
			response.JSON(w, r, http.StatusServiceUnavailable, models.Health{
				Status:    models.HealthStatusFail,
				Timestamp: models.Timestamp(h.cfg.Now()),
			})
			return
		}
	}

	response.JSON(w, r, http.StatusOK, models.Health{
		Status:    models.HealthStatusOK,
		Timestamp: models.Timestamp(h.cfg.Now()),
	})
}

// SystemStatus handles GET /v1/status - build and dependency status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	status := models.SystemStatus{
		Status:       models.HealthStatusOK,
		Timestamp:    models.Timestamp(h.cfg.Now()),
		Version:      h.cfg.Version,
		BuildTime:    h.cfg.BuildTime,
		Dependencies: []resilience.DependencyHealth{},
	}

	if h.cfg.Registry != nil {
		for _, dep := range h.cfg.Registry.GetAllHealth() {
			status.Dependencies = append(status.Dependencies, *dep)
			switch {
			case dep.IsUnhealthy():
				status.Status = models.HealthStatusFail
			case dep.IsDegraded() && status.Status == models.HealthStatusOK:
				status.Status = models.HealthStatusDegraded
			}
		}
	}
	if h.cfg.Worker != nil {
		status.Worker = h.cfg.Worker()
	}

	response.JSON(w, r, http.StatusOK, status)
}
