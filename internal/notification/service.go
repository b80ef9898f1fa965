package notification

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/airalert/airalert/internal/kvstore"
	"github.com/airalert/airalert/internal/validation"
)

// DefaultCap is the maximum number of notifications kept per user.
const DefaultCap = 50

// ServiceConfig holds configuration for the notification service.
type ServiceConfig struct {
	Store  kvstore.Store
	Logger zerolog.Logger

	// Cap bounds each user's list. Default: 50.
	Cap int

	// Now returns the current time. Default: time.Now
	Now func() time.Time

	// NewID generates notification IDs. Default: uuid.NewString
	NewID func() string
}

// Service manages notification lists and preferences.
type Service struct {
	store  kvstore.Store
	logger zerolog.Logger
	cap    int
	now    func() time.Time
	newID  func() string

	mu sync.Mutex
}

// NewService creates a new notification service.
func NewService(cfg ServiceConfig) *Service {
	limit := cfg.Cap
	if limit == 0 {
		limit = DefaultCap
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	newID := cfg.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	return &Service{
		store:  cfg.Store,
		logger: cfg.Logger,
		cap:    limit,
		now:    now,
		newID:  newID,
	}
}

func listKey(userID string) string        { return "user:" + userID + ":notifications" }
func preferencesKey(userID string) string { return "user:" + userID + ":preferences" }

// List returns the user's notifications, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]Notification, error) {
	if userID == "" {
		return nil, ErrUserIDRequired
	}
	return s.load(ctx, userID)
}

// Append prepends n to the user's list, dropping the oldest entries beyond
// the cap. Missing ID and timestamp are filled in.
func (s *Service) Append(ctx context.Context, userID string, n Notification) (Notification, error) {
	if userID == "" {
		return Notification{}, ErrUserIDRequired
	}
	if err := validation.Struct(n); err != nil {
		return Notification{}, err
	}
	if n.ID == "" {
		n.ID = s.newID()
	}
	if n.Timestamp.IsZero() {
		n.Timestamp = s.now().UTC().Truncate(time.Millisecond)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load(ctx, userID)
	if err != nil {
		return Notification{}, err
	}

	list = append([]Notification{n}, list...)
	if len(list) > s.cap {
		list = list[:s.cap]
	}

	if err := s.save(ctx, userID, list); err != nil {
		return Notification{}, err
	}

	s.logger.Debug().
		Str("user_id", userID).
		Str("notification_id", n.ID).
		Str("type", string(n.Type)).
		Msg("notification appended")

	return n, nil
}

// Seed replaces the user's list with items, assigning IDs where missing.
func (s *Service) Seed(ctx context.Context, userID string, items []Notification) error {
	if userID == "" {
		return ErrUserIDRequired
	}

	list := make([]Notification, 0, len(items))
	for _, n := range items {
		if n.ID == "" {
			n.ID = s.newID()
		}
		list = append(list, n)
	}
	if len(list) > s.cap {
		list = list[:s.cap]
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, userID, list)
}

// MarkRead sets the read flag on notification id.
func (s *Service) MarkRead(ctx context.Context, userID, id string) error {
	if userID == "" {
		return ErrUserIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load(ctx, userID)
	if err != nil {
		return err
	}

	found := false
	for i := range list {
		if list[i].ID == id {
			list[i].Read = true
			found = true
		}
	}
	if !found {
		return ErrNotificationNotFound
	}

	return s.save(ctx, userID, list)
}

// GetPreferences returns the user's preferences, or the defaults when none
// have been stored.
func (s *Service) GetPreferences(ctx context.Context, userID string) (Preferences, error) {
	if userID == "" {
		return Preferences{}, ErrUserIDRequired
	}

	var prefs Preferences
	if err := s.store.Get(ctx, preferencesKey(userID), &prefs); err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return DefaultPreferences(true), nil
		}
		return Preferences{}, fmt.Errorf("loading preferences: %w", err)
	}
	return prefs, nil
}

// PutPreferences validates and stores prefs as given.
func (s *Service) PutPreferences(ctx context.Context, userID string, prefs Preferences) error {
	if userID == "" {
		return ErrUserIDRequired
	}
	if err := validation.Struct(prefs); err != nil {
		return err
	}
	if err := s.store.Set(ctx, preferencesKey(userID), prefs, 0); err != nil {
		return fmt.Errorf("storing preferences: %w", err)
	}
	return nil
}

// CreateDefaults stores the default preferences for a new user.
func (s *Service) CreateDefaults(ctx context.Context, userID string, enabled bool) error {
	return s.PutPreferences(ctx, userID, DefaultPreferences(enabled))
}

// DeleteAll removes the user's notifications and preferences.
func (s *Service) DeleteAll(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Delete(ctx, listKey(userID)); err != nil {
		return err
	}
	return s.store.Delete(ctx, preferencesKey(userID))
}

func (s *Service) load(ctx context.Context, userID string) ([]Notification, error) {
	var list []Notification
	if err := s.store.Get(ctx, listKey(userID), &list); err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return []Notification{}, nil
		}
		return nil, fmt.Errorf("loading notifications: %w", err)
	}
	if list == nil {
		list = []Notification{}
	}
	return list, nil
}

func (s *Service) save(ctx context.Context, userID string, list []Notification) error {
	if err := s.store.Set(ctx, listKey(userID), list, 0); err != nil {
		return fmt.Errorf("storing notifications: %w", err)
	}
	return nil
}
