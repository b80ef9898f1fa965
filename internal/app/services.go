// Package app assembles the AirAlert domain services over a single store.
package app

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/airalert/airalert/internal/alert"
	"github.com/airalert/airalert/internal/auth"
	"github.com/airalert/airalert/internal/chatbot"
	"github.com/airalert/airalert/internal/facility"
	"github.com/airalert/airalert/internal/featureflags"
	"github.com/airalert/airalert/internal/kvstore"
	"github.com/airalert/airalert/internal/notification"
	"github.com/airalert/airalert/internal/pollution"
	"github.com/airalert/airalert/internal/telemetry"
	"github.com/airalert/airalert/internal/user"
)

// Config holds what the services share.
type Config struct {
	Store   kvstore.Store
	Logger  zerolog.Logger
	Metrics *telemetry.DomainMetrics

	JWT        auth.JWTConfig
	BcryptCost int

	// Generator defaults to a time-seeded generator.
	Generator *pollution.Generator

	// Selector picks chatbot replies. Default: time-seeded random.
	Selector chatbot.Selector

	// FlagRepository defaults to flags stored in Store.
	FlagRepository featureflags.Repository

	// FlagCacheTTL defaults to one minute.
	FlagCacheTTL time.Duration

	// Now returns the current time. Default: time.Now
	Now func() time.Time
}

// Services are the wired domain services.
type Services struct {
	Store         kvstore.Store
	Flags         *featureflags.Service
	Pollution     *pollution.Service
	Notifications *notification.Service
	Users         *user.Service
	Auth          *auth.Service
	Alerts        *alert.Service
	Chatbot       *chatbot.Bot
	Facilities    *facility.Service
}

// New wires every service over cfg.Store.
func New(cfg Config) *Services {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	if cfg.JWT.Now == nil {
		cfg.JWT.Now = now
	}
	generator := cfg.Generator
	if generator == nil {
		generator = pollution.NewGenerator(pollution.GeneratorConfig{Now: now})
	}

	flagRepo := cfg.FlagRepository
	if flagRepo == nil {
		flagRepo = featureflags.NewStoreRepository(cfg.Store)
	}
	flags := featureflags.NewService(featureflags.ServiceConfig{
		Repository: flagRepo,
		Logger:     cfg.Logger.With().Str("component", "featureflags").Logger(),
		CacheTTL:   cfg.FlagCacheTTL,
	})

	readings := pollution.NewService(pollution.ServiceConfig{
		Store:     cfg.Store,
		Generator: generator,
		Logger:    cfg.Logger.With().Str("component", "pollution").Logger(),
		Metrics:   cfg.Metrics,
		Now:       now,
	})

	notifications := notification.NewService(notification.ServiceConfig{
		Store:  cfg.Store,
		Logger: cfg.Logger.With().Str("component", "notification").Logger(),
		Now:    now,
	})

	alerts := alert.NewService(alert.ServiceConfig{
		Store:         cfg.Store,
		Notifications: notifications,
		Flags:         flags,
		Metrics:       cfg.Metrics,
		Logger:        cfg.Logger.With().Str("component", "alert").Logger(),
		Now:           now,
	})

	bot := chatbot.New(chatbot.Config{
		Store:    cfg.Store,
		Flags:    flags,
		Selector: cfg.Selector,
		Metrics:  cfg.Metrics,
		Logger:   cfg.Logger.With().Str("component", "chatbot").Logger(),
		Now:      now,
	})

	repo := user.NewStoreRepository(cfg.Store)
	users := user.NewService(user.ServiceConfig{
		Repository:    repo,
		Notifications: notifications,
		Readings:      readings,
		Erasers:       []user.DataEraser{alerts, bot},
		Logger:        cfg.Logger.With().Str("component", "user").Logger(),
		Now:           now,
	})

	authService := auth.NewService(auth.ServiceConfig{
		JWTService:    auth.NewJWTService(cfg.JWT),
		Users:         repo,
		Notifications: notifications,
		Revocations:   auth.NewRevocationList(cfg.Store, now),
		Logger:        cfg.Logger.With().Str("component", "auth").Logger(),
		BcryptCost:    cfg.BcryptCost,
		Now:           now,
	})

	facilities := facility.NewService(facility.ServiceConfig{
		Readings: readings,
		Flags:    flags,
		Logger:   cfg.Logger.With().Str("component", "facility").Logger(),
		Now:      now,
	})

	return &Services{
		Store:         cfg.Store,
		Flags:         flags,
		Pollution:     readings,
		Notifications: notifications,
		Users:         users,
		Auth:          authService,
		Alerts:        alerts,
		Chatbot:       bot,
		Facilities:    facilities,
	}
}
