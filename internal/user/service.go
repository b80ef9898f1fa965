package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/airalert/airalert/internal/notification"
	"github.com/airalert/airalert/internal/pollution"
	"github.com/airalert/airalert/internal/validation"
)

// NotificationSource is the part of the notification store used for
// export and statistics.
type NotificationSource interface {
	List(ctx context.Context, userID string) ([]notification.Notification, error)
	GetPreferences(ctx context.Context, userID string) (notification.Preferences, error)
	DeleteAll(ctx context.Context, userID string) error
}

// ReadingSource is the part of the pollution service used for export.
type ReadingSource interface {
	Latest(ctx context.Context, region string) (*pollution.Reading, error)
	History(ctx context.Context, region string, limit int) ([]pollution.Reading, error)
}

// DataEraser removes what another component stores for a user.
type DataEraser interface {
	ForgetUser(ctx context.Context, userID string) error
}

// ServiceConfig holds configuration for the user service.
type ServiceConfig struct {
	Repository    Repository
	Notifications NotificationSource
	Readings      ReadingSource
	Logger        zerolog.Logger

	// Erasers run on account deletion.
	Erasers []DataEraser

	// Now returns the current time. Default: time.Now
	Now func() time.Time
}

// Service provides account operations.
type Service struct {
	repo          Repository
	notifications NotificationSource
	readings      ReadingSource
	erasers       []DataEraser
	logger        zerolog.Logger
	now           func() time.Time
}

// NewService creates a new user service.
func NewService(cfg ServiceConfig) *Service {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		repo:          cfg.Repository,
		notifications: cfg.Notifications,
		readings:      cfg.Readings,
		erasers:       cfg.Erasers,
		logger:        cfg.Logger,
		now:           now,
	}
}

// Get retrieves a user by ID.
func (s *Service) Get(ctx context.Context, userID string) (*User, error) {
	return s.repo.Get(ctx, userID)
}

// UpdateProfile changes a user's name, email, region and optionally city.
func (s *Service) UpdateProfile(ctx context.Context, userID string, in ProfileUpdate) (*User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Region = strings.TrimSpace(in.Region)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	u, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	u.Name = in.Name
	u.Email = in.Email
	u.Region = in.Region
	if in.City != nil {
		u.City = strings.TrimSpace(*in.City)
	}
	now := s.now().UTC()
	u.UpdatedAt = &now

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", userID).Str("region", u.Region).Msg("profile updated")
	return u, nil
}

// Upgrade marks the user as Pro. No payment is taken. Upgrading an
// existing Pro account keeps its original ProSince.
func (s *Service) Upgrade(ctx context.Context, userID string) (*User, error) {
	u, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.IsPro {
		return u, nil
	}

	now := s.now().UTC()
	u.IsPro = true
	u.ProSince = &now
	u.UpdatedAt = &now

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", userID).Msg("account upgraded to pro")
	return u, nil
}

// ListByRegion returns the users registered in region.
func (s *Service) ListByRegion(ctx context.Context, region string) ([]*User, error) {
	return s.repo.ListByRegion(ctx, region)
}

// Delete removes the user, their notification data and whatever the
// configured erasers hold for them. The account record is removed last.
func (s *Service) Delete(ctx context.Context, userID string) error {
	for _, e := range s.erasers {
		if err := e.ForgetUser(ctx, userID); err != nil {
			return fmt.Errorf("erasing user data: %w", err)
		}
	}
	if err := s.notifications.DeleteAll(ctx, userID); err != nil {
		return fmt.Errorf("deleting notifications: %w", err)
	}
	return s.repo.Delete(ctx, userID)
}

// Export is a full copy of the data held for a user.
type Export struct {
	User                *User                       `json:"user"`
	Preferences         notification.Preferences    `json:"preferences"`
	Notifications       []notification.Notification `json:"notifications"`
	RecentPollutionData *pollution.Reading          `json:"recentPollutionData"`
	PollutionHistory    []pollution.Reading         `json:"pollutionHistory"`
	ExportedAt          time.Time                   `json:"exportedAt"`
	Metadata            ExportMetadata              `json:"metadata"`
}

// ExportMetadata summarises an Export.
type ExportMetadata struct {
	TotalNotifications     int        `json:"totalNotifications"`
	UnreadNotifications    int        `json:"unreadNotifications"`
	TotalPollutionReadings int        `json:"totalPollutionReadings"`
	AccountCreated         time.Time  `json:"accountCreated"`
	LastUpdated            *time.Time `json:"lastUpdated"`
}

// Export collects everything stored for the user, including the readings
// of their region. A region without readings exports a null current
// reading and an empty history.
func (s *Service) Export(ctx context.Context, userID string) (*Export, error) {
	u, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	prefs, err := s.notifications.GetPreferences(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading preferences: %w", err)
	}
	list, err := s.notifications.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading notifications: %w", err)
	}

	recent, err := s.readings.Latest(ctx, u.Region)
	if err != nil && !errors.Is(err, pollution.ErrNoReading) {
		return nil, fmt.Errorf("loading latest reading: %w", err)
	}
	history, err := s.readings.History(ctx, u.Region, 0)
	if err != nil {
		return nil, fmt.Errorf("loading reading history: %w", err)
	}

	return &Export{
		User:                u,
		Preferences:         prefs,
		Notifications:       list,
		RecentPollutionData: recent,
		PollutionHistory:    history,
		ExportedAt:          s.now().UTC(),
		Metadata: ExportMetadata{
			TotalNotifications:     len(list),
			UnreadNotifications:    notification.CountUnread(list),
			TotalPollutionReadings: len(history),
			AccountCreated:         u.CreatedAt,
			LastUpdated:            u.UpdatedAt,
		},
	}, nil
}

// Stats are usage statistics for a user.
type Stats struct {
	AccountAge           int             `json:"accountAge"`
	TotalNotifications   int             `json:"totalNotifications"`
	UnreadNotifications  int             `json:"unreadNotifications"`
	NotificationsEnabled bool            `json:"notificationsEnabled"`
	Region               string          `json:"region"`
	LastProfileUpdate    *time.Time      `json:"lastProfileUpdate"`
	Thresholds           StatsThresholds `json:"thresholds"`
}

// StatsThresholds are the user's configured notification thresholds.
type StatsThresholds struct {
	AQI  int     `json:"aqi"`
	PM25 float64 `json:"pm25"`
	PM10 float64 `json:"pm10"`
}

// Stats computes usage statistics. AccountAge is in whole days.
func (s *Service) Stats(ctx context.Context, userID string) (*Stats, error) {
	u, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	prefs, err := s.notifications.GetPreferences(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading preferences: %w", err)
	}
	list, err := s.notifications.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading notifications: %w", err)
	}

	age := 0
	if !u.CreatedAt.IsZero() {
		age = int(s.now().Sub(u.CreatedAt) / (24 * time.Hour))
		if age < 0 {
			age = 0
		}
	}

	return &Stats{
		AccountAge:           age,
		TotalNotifications:   len(list),
		UnreadNotifications:  notification.CountUnread(list),
		NotificationsEnabled: prefs.Enabled,
		Region:               u.Region,
		LastProfileUpdate:    u.UpdatedAt,
		Thresholds: StatsThresholds{
			AQI:  prefs.AQIThreshold,
			PM25: prefs.PM25Threshold,
			PM10: prefs.PM10Threshold,
		},
	}, nil
}
