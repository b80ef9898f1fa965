// Package api provides the HTTP API for AirAlert.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/airalert/airalert/internal/alert"
	"github.com/airalert/airalert/internal/api/handler"
	"github.com/airalert/airalert/internal/api/middleware"
	"github.com/airalert/airalert/internal/auth"
	"github.com/airalert/airalert/internal/chatbot"
	"github.com/airalert/airalert/internal/facility"
	"github.com/airalert/airalert/internal/featureflags"
	"github.com/airalert/airalert/internal/notification"
	"github.com/airalert/airalert/internal/pollution"
	"github.com/airalert/airalert/internal/resilience"
	"github.com/airalert/airalert/internal/user"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics

	// AnonKey guards registration, login and health. Empty leaves them open.
	AnonKey        string
	AllowedOrigins []string
	RequireTLS     bool

	AuthService         *auth.Service
	UserService         *user.Service
	PollutionService    *pollution.Service
	NotificationService *notification.Service
	AlertService        *alert.Service
	Chatbot             *chatbot.Bot
	FacilityService     *facility.Service
	FeatureFlagService  *featureflags.Service

	Store    handler.Pinger
	Registry *resilience.Registry
	Worker   func() map[string]interface{}

	// Now returns the current time. Default: time.Now
	Now func() time.Time
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "airalert-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing(serviceName))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.RequireTLS(cfg.RequireTLS))
	r.Use(middleware.ContentTypeJSON)
	r.Use(middleware.RequireJSON)

	opsHandler := handler.NewOpsHandler(handler.OpsConfig{
		Version:   cfg.Version,
		BuildTime: cfg.BuildTime,
		Store:     cfg.Store,
		Registry:  cfg.Registry,
		Logger:    cfg.Logger,
		Worker:    cfg.Worker,
		Now:       cfg.Now,
	})
	authHandler := handler.NewAuthHandler(cfg.AuthService, cfg.UserService, cfg.Logger)
	userHandler := handler.NewUserHandler(cfg.UserService, cfg.Logger)
	notificationHandler := handler.NewNotificationHandler(
		cfg.NotificationService, cfg.UserService, cfg.PollutionService, cfg.AlertService.Thresholds(), cfg.Logger)
	pollutionHandler := handler.NewPollutionHandler(cfg.PollutionService, cfg.UserService, cfg.Logger)
	alertHandler := handler.NewAlertHandler(cfg.AlertService, cfg.UserService, cfg.PollutionService, cfg.Logger)
	chatHandler := handler.NewChatHandler(cfg.Chatbot, cfg.UserService, cfg.FeatureFlagService, cfg.Logger, cfg.Now)
	planningHandler := handler.NewPlanningHandler(cfg.FacilityService, cfg.UserService, cfg.Logger)
	featureFlagsHandler := handler.NewFeatureFlagsHandler(cfg.FeatureFlagService, cfg.Logger)

	authMiddleware := middleware.Auth(cfg.AuthService)
	anonKey := middleware.AnonKey(cfg.AnonKey)
	authRateLimit := middleware.RateLimitByIP(middleware.AuthRateLimit)
	userRateLimit := middleware.RateLimitByUser(middleware.StandardRateLimit)
	chatRateLimit := middleware.RateLimitByUser(middleware.ChatRateLimit)

	r.Route("/v1", func(r chi.Router) {
		r.With(anonKey).Get("/health", opsHandler.HealthCheck)
		r.Get("/ready", opsHandler.ReadinessCheck)
		r.With(authMiddleware).Get("/status", opsHandler.SystemStatus)

		r.Group(func(r chi.Router) {
			r.Use(anonKey)
			r.Use(authRateLimit)
			r.Post("/user/register", authHandler.Register)
			r.Post("/user/login", authHandler.Login)
		})
		r.With(authRateLimit).Post("/user/logout", authHandler.Logout)

		// Authenticated endpoints, limited per user
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(userRateLimit)

			r.Route("/user", func(r chi.Router) {
				r.Get("/session", authHandler.Session)
				r.Delete("/", userHandler.Delete)
				r.Put("/profile", userHandler.UpdateProfile)
				r.Post("/upgrade", userHandler.Upgrade)
				r.Get("/export", userHandler.Export)
				r.Get("/stats", userHandler.Stats)

				r.Get("/notification-preferences", notificationHandler.GetPreferences)
				r.Put("/notification-preferences", notificationHandler.PutPreferences)
				r.Get("/notifications", notificationHandler.List)
				r.Put("/notifications/{id}/read", notificationHandler.MarkRead)
				r.Post("/test-notification", notificationHandler.TestNotification)
			})

			r.Get("/pollution/current", pollutionHandler.Current)
			r.Get("/pollution/history", pollutionHandler.History)
			r.Post("/alerts/check", alertHandler.Check)

			r.Get("/chat/status", chatHandler.Status)
			r.With(chatRateLimit).Post("/chat/messages", chatHandler.Send)
			r.With(chatRateLimit).Get("/planning/facilities", planningHandler.Facilities)

			r.Route("/admin/feature-flags", func(r chi.Router) {
				r.Get("/", featureFlagsHandler.ListFeatureFlags)
				r.Put("/", featureFlagsHandler.UpsertFeatureFlags)
				r.Post("/invalidate", featureFlagsHandler.InvalidateCache)
			})
		})
	})

	if len(cfg.AllowedOrigins) == 0 {
		return r
	}
	return middleware.CORS(cfg.AllowedOrigins)(r)
}
