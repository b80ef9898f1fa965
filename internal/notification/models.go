// Package notification stores per-user notifications and notification
// preferences.
package notification

import (
	"errors"
	"fmt"
	"time"
)

// Predefined errors.
var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrUserIDRequired       = errors.New("user id is required")
)

// Type classifies a notification.
type Type string

// Notification types.
const (
	TypeInfo    Type = "info"
	TypeWarning Type = "warning"
	TypeAlert   Type = "alert"
)

// Notification is a message in a user's notification list.
type Notification struct {
	ID        string    `json:"id"`
	Message   string    `json:"message" validate:"required,max=2000"`
	Type      Type      `json:"type" validate:"required,oneof=info warning alert"`
	Timestamp time.Time `json:"timestamp"`
	Read      bool      `json:"read"`
}

// Frequency controls how often notifications are delivered.
type Frequency string

// Frequency values.
const (
	FrequencyImmediate Frequency = "immediate"
	FrequencyHourly    Frequency = "hourly"
	FrequencyDaily     Frequency = "daily"
)

// QuietHours is a daily window, in "HH:MM" local time, during which
// notifications should be held back.
type QuietHours struct {
	Enabled bool   `json:"enabled"`
	Start   string `json:"start" validate:"required,datetime=15:04"`
	End     string `json:"end" validate:"required,datetime=15:04"`
}

// Preferences are a user's notification settings.
type Preferences struct {
	Enabled       bool       `json:"enabled"`
	AQIThreshold  int        `json:"aqiThreshold" validate:"gte=0,lte=500"`
	PM25Threshold float64    `json:"pm25Threshold" validate:"gte=0,lte=1000"`
	PM10Threshold float64    `json:"pm10Threshold" validate:"gte=0,lte=1000"`
	QuietHours    QuietHours `json:"quietHours"`
	Frequency     Frequency  `json:"frequency" validate:"required,oneof=immediate hourly daily"`
}

// DefaultPreferences returns the preferences created at registration.
func DefaultPreferences(enabled bool) Preferences {
	return Preferences{
		Enabled:       enabled,
		AQIThreshold:  100,
		PM25Threshold: 35,
		PM10Threshold: 150,
		QuietHours: QuietHours{
			Enabled: false,
			Start:   "22:00",
			End:     "08:00",
		},
		Frequency: FrequencyImmediate,
	}
}

// CountUnread returns the number of unread notifications in list.
func CountUnread(list []Notification) int {
	n := 0
	for _, item := range list {
		if !item.Read {
			n++
		}
	}
	return n
}

// Welcome returns the notifications seeded for a newly registered user,
// newest first.
func Welcome(region string, now time.Time) []Notification {
	return []Notification{
		{
			Message: fmt.Sprintf(
				"Welcome to AirAlert! You're now monitoring air quality for %s. "+
					"We'll notify you when pollution levels exceed your thresholds.", region),
			Type:      TypeInfo,
			Timestamp: now,
		},
		{
			Message:   "Sample Alert: Air quality has improved to Good levels (AQI: 45) in your region. Great time for outdoor activities!",
			Type:      TypeInfo,
			Timestamp: now.Add(-time.Hour),
			Read:      true,
		},
	}
}

// TestMessage is the default message for a synthesized test notification.
const TestMessage = "Test notification: Air quality index has reached moderate levels (AQI: 85) in your region."
