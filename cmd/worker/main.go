// Package main provides the entrypoint for the AirAlert refresh worker.
package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/airalert/airalert/internal/api/response"
	"github.com/airalert/airalert/internal/app"
	"github.com/airalert/airalert/internal/config"
	"github.com/airalert/airalert/internal/resilience"
	"github.com/airalert/airalert/internal/telemetry"
	"github.com/airalert/airalert/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "airalert-worker"

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting AirAlert worker")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if cfg.Store.Backend == config.BackendMemory {
		log.Warn().Msg("worker is using the in-memory store, the API will not see its readings")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.App.Env,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		Enabled:        cfg.Telemetry.Enabled,
		StoreBackend:   cfg.Store.Backend,
		SampleRatio:    cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	domainMetrics, err := telemetry.NewDomainMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize domain metrics")
	}

	registry := resilience.NewRegistry()
	backend, err := app.OpenStore(ctx, *cfg, log, registry)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.Store.Backend).Msg("failed to open store")
	}
	defer backend.Close()

	services := app.New(app.Config{
		Store:          backend.Store,
		Logger:         log,
		Metrics:        domainMetrics,
		BcryptCost:     cfg.Auth.BcryptCost,
		FlagRepository: backend.Flags,
	})
	job := services.RefreshJob(cfg.Worker, log)
	jobs := worker.NewJobRunner(job, log)

	server := &http.Server{
		Addr:         ":" + cfg.Worker.Port,
		Handler:      healthRouter(job, jobs, registry),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("health check server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("health server error")
		}
	}()

	go job.Schedule(ctx, cfg.Worker.Interval)

	if cfg.PubSub.Subscription != "" {
		handler, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
			ProjectID:        cfg.PubSub.ProjectID,
			SubscriptionName: cfg.PubSub.Subscription,
			RefreshJob:       job,
			Logger:           log,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create pubsub handler")
		}
		defer func() {
			if err := handler.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close pubsub client")
			}
		}()

		go func() {
			if err := handler.Start(ctx); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("pubsub handler stopped")
			}
		}()
	}

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down worker")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}

// healthRouter serves the worker's health endpoint and a push endpoint
// that accepts job messages in the same format as Pub/Sub.
func healthRouter(job *worker.RefreshJob, jobs *worker.JobRunner, registry *resilience.Registry) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		status := "healthy"
		for _, dep := range registry.GetAllHealth() {
			if dep.IsUnhealthy() {
				status = "unhealthy"
			}
		}
		response.JSON(w, r, http.StatusOK, map[string]interface{}{
			"status":  status,
			"version": Version,
			"metrics": job.MetricsSnapshot(),
		})
	})

	r.Post("/jobs", func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 64<<10))
		if err != nil {
			response.BadRequest(w, r, "unreadable job message", nil)
			return
		}
		if !jobs.Handle(r.Context(), data) {
			response.InternalError(w, r, "job failed")
			return
		}
		response.JSON(w, r, http.StatusAccepted, map[string]bool{"success": true})
	})

	return r
}
