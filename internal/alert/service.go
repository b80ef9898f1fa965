package alert

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/airalert/airalert/internal/featureflags"
	"github.com/airalert/airalert/internal/kvstore"
	"github.com/airalert/airalert/internal/notification"
	"github.com/airalert/airalert/internal/pollution"
	"github.com/airalert/airalert/internal/telemetry"
)

// ErrUserIDRequired is returned when Check is called without a user.
var ErrUserIDRequired = errors.New("user id is required")

// Notifier is the part of the notification store the alert service needs.
type Notifier interface {
	GetPreferences(ctx context.Context, userID string) (notification.Preferences, error)
	Append(ctx context.Context, userID string, n notification.Notification) (notification.Notification, error)
}

// ServiceConfig holds configuration for the alert service.
type ServiceConfig struct {
	Store         kvstore.Store
	Notifications Notifier
	Flags         *featureflags.Service
	Metrics       *telemetry.DomainMetrics
	Logger        zerolog.Logger

	// Thresholds default to DefaultThresholds.
	Thresholds *Thresholds

	// Now returns the current time. Default: time.Now
	Now func() time.Time
}

// Service runs the evaluator for a user and persists raised alerts.
type Service struct {
	store         kvstore.Store
	notifications Notifier
	flags         *featureflags.Service
	metrics       *telemetry.DomainMetrics
	logger        zerolog.Logger
	thresholds    Thresholds
	now           func() time.Time

	mu sync.Mutex
}

// NewService creates a new alert service.
func NewService(cfg ServiceConfig) *Service {
	thresholds := DefaultThresholds()
	if cfg.Thresholds != nil {
		thresholds = *cfg.Thresholds
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		store:         cfg.Store,
		notifications: cfg.Notifications,
		flags:         cfg.Flags,
		metrics:       cfg.Metrics,
		logger:        cfg.Logger,
		thresholds:    thresholds,
		now:           now,
	}
}

// Thresholds returns the limits the service evaluates against.
func (s *Service) Thresholds() Thresholds {
	return s.thresholds
}

type lastAlert struct {
	At time.Time `json:"at"`
}

func lastAlertKey(userID string) string { return "user:" + userID + ":last_alert" }

// ForgetUser drops the user's alert cooldown.
func (s *Service) ForgetUser(ctx context.Context, userID string) error {
	if err := s.store.Delete(ctx, lastAlertKey(userID)); err != nil {
		return fmt.Errorf("deleting last alert: %w", err)
	}
	return nil
}

// Check evaluates reading for userID. When an alert is raised it is
// prepended to the user's notifications and the user's cooldown restarts.
func (s *Service) Check(ctx context.Context, userID string, reading pollution.Reading) (Result, error) {
	if userID == "" {
		return Result{}, ErrUserIDRequired
	}

	prefs, err := s.notifications.GetPreferences(ctx, userID)
	if err != nil {
		return Result{}, fmt.Errorf("loading preferences: %w", err)
	}
	if !prefs.Enabled {
		res := Result{Decision: DecisionDisabled, AQI: reading.AQI, Exceeded: Exceeded(reading, s.thresholds)}
		s.record(ctx, userID, res)
		return res, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	last, err := s.lastAlertAt(ctx, userID)
	if err != nil {
		return Result{}, err
	}

	now := s.now().UTC().Truncate(time.Millisecond)
	res := Evaluate(reading, s.thresholds, last, now)
	if !res.Alerted() {
		s.record(ctx, userID, res)
		return res, nil
	}

	if s.flags.IsAlertsSendingDisabled(ctx) {
		res.Decision = DecisionSuppressedByFlag
		res.Notification = nil
		s.record(ctx, userID, res)
		return res, nil
	}

	saved, err := s.notifications.Append(ctx, userID, *res.Notification)
	if err != nil {
		return Result{}, fmt.Errorf("storing alert: %w", err)
	}
	res.Notification = &saved

	if err := s.store.Set(ctx, lastAlertKey(userID), lastAlert{At: now}, 0); err != nil {
		return Result{}, fmt.Errorf("storing last alert time: %w", err)
	}

	s.record(ctx, userID, res)
	return res, nil
}

func (s *Service) lastAlertAt(ctx context.Context, userID string) (time.Time, error) {
	var last lastAlert
	if err := s.store.Get(ctx, lastAlertKey(userID), &last); err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("loading last alert time: %w", err)
	}
	return last.At, nil
}

func (s *Service) record(ctx context.Context, userID string, res Result) {
	s.metrics.RecordAlertDecision(ctx, string(res.Decision))

	ev := s.logger.Debug()
	if res.Alerted() {
		ev = s.logger.Info()
	}
	ev.Str("user_id", userID).
		Int("aqi", res.AQI).
		Int("exceeded", len(res.Exceeded)).
		Str("decision", string(res.Decision)).
		Msg("alert evaluated")
}
