// Package main provides the entrypoint for the AirAlert API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/airalert/airalert/internal/api"
	"github.com/airalert/airalert/internal/api/middleware"
	"github.com/airalert/airalert/internal/app"
	"github.com/airalert/airalert/internal/auth"
	"github.com/airalert/airalert/internal/config"
	"github.com/airalert/airalert/internal/resilience"
	"github.com/airalert/airalert/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "airalert-api"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting AirAlert API")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if cfg.Auth.JWTSigningKey == config.DevSigningKey {
		log.Warn().Msg("using default JWT signing key - not secure for production")
	}

	ctx := context.Background()

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
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if cfg.Telemetry.Enabled {
		log.Info().
			Str("otlp_endpoint", cfg.Telemetry.OTLPEndpoint).
			Msg("OpenTelemetry initialized")
	}

	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}
	domainMetrics, err := telemetry.NewDomainMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize domain metrics")
		os.Exit(1)
	}

	registry := resilience.NewRegistry()

	backend, err := app.OpenStore(ctx, *cfg, log, registry)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.Store.Backend).Msg("failed to open store")
	}
	defer backend.Close()

	services := app.New(app.Config{
		Store:   backend.Store,
		Logger:  log,
		Metrics: domainMetrics,
		JWT: auth.JWTConfig{
			SigningKey: cfg.Auth.JWTSigningKey,
			Issuer:     cfg.Auth.JWTIssuer,
			Audience:   cfg.Auth.JWTAudience,
		},
		BcryptCost:     cfg.Auth.BcryptCost,
		FlagRepository: backend.Flags,
	})
	log.Info().Str("backend", cfg.Store.Backend).Msg("services initialized")

	// The refresh loop stops with the server.
	workerCtx, stopWorker := context.WithCancel(ctx)
	defer stopWorker()

	var workerSnapshot func() map[string]interface{}
	if cfg.Worker.Embedded {
		job := services.RefreshJob(cfg.Worker, log)
		workerSnapshot = job.MetricsSnapshot
		go job.Schedule(workerCtx, cfg.Worker.Interval)
	}

	router := api.NewRouter(api.RouterConfig{
		Version:             Version,
		BuildTime:           BuildTime,
		Logger:              log,
		ServiceName:         serviceName,
		Metrics:             metrics,
		AnonKey:             cfg.Auth.AnonKey,
		AllowedOrigins:      cfg.CORS.AllowedOrigins,
		RequireTLS:          cfg.IsProduction(),
		AuthService:         services.Auth,
		UserService:         services.Users,
		PollutionService:    services.Pollution,
		NotificationService: services.Notifications,
		AlertService:        services.Alerts,
		Chatbot:             services.Chatbot,
		FacilityService:     services.Facilities,
		FeatureFlagService:  services.Flags,
		Store:               backend.Store,
		Registry:            registry,
		Worker:              workerSnapshot,
	})

	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	stopWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		return
	}

	log.Info().Msg("server stopped")
}
