package models

import (
	"github.com/airalert/airalert/internal/alert"
	"github.com/airalert/airalert/internal/chatbot"
	"github.com/airalert/airalert/internal/notification"
	"github.com/airalert/airalert/internal/pollution"
	"github.com/airalert/airalert/internal/user"
)

// UserResponse wraps a user summary.
type UserResponse struct {
	User user.Summary `json:"user"`
}

// ProfileResponse wraps the full user record.
type ProfileResponse struct {
	User *user.User `json:"user"`
}

// LoginResponse is returned by a successful login.
type LoginResponse struct {
	User        user.Summary `json:"user"`
	AccessToken string       `json:"access_token"`
	ExpiresAt   Timestamp    `json:"expires_at"`
}

// ProfileRequest is the body of PUT /user/profile.
type ProfileRequest struct {
	UserID string  `json:"userId"`
	Name   string  `json:"name"`
	Email  string  `json:"email"`
	Region string  `json:"region"`
	City   *string `json:"city,omitempty"`
}

// PreferencesRequest is the body of PUT /user/notification-preferences.
type PreferencesRequest struct {
	UserID      string                    `json:"userId"`
	Preferences *notification.Preferences `json:"preferences"`
}

// PreferencesResponse wraps notification preferences.
type PreferencesResponse struct {
	Preferences notification.Preferences `json:"preferences"`
}

// NotificationsResponse lists a user's notifications.
type NotificationsResponse struct {
	Notifications []notification.Notification `json:"notifications"`
	Unread        int                         `json:"unread"`
}

// TestNotificationRequest is the body of POST /user/test-notification.
// A supplied Notification is stored as given. Otherwise Message and Type
// build one, and with UseCurrentReading the message summarises the user's
// regional reading.
type TestNotificationRequest struct {
	UserID            string                     `json:"userId"`
	Notification      *notification.Notification `json:"notification,omitempty"`
	Message           string                     `json:"message,omitempty"`
	Type              notification.Type          `json:"type,omitempty"`
	UseCurrentReading bool                       `json:"useCurrentReading,omitempty"`
}

// NotificationResponse returns a stored notification.
type NotificationResponse struct {
	Success      bool                      `json:"success"`
	Notification notification.Notification `json:"notification"`
}

// StatsResponse wraps account statistics.
type StatsResponse struct {
	Stats *user.Stats `json:"stats"`
}

// HistoryResponse lists recent readings of a region, newest first.
type HistoryResponse struct {
	Region   string              `json:"region"`
	Readings []pollution.Reading `json:"readings"`
}

// AlertCheckRequest is the body of POST /alerts/check. Without a reading
// the current reading of the user's region is evaluated.
type AlertCheckRequest struct {
	UserID  string             `json:"userId"`
	Reading *pollution.Reading `json:"reading,omitempty"`
}

// AlertCheckResponse reports an evaluator run.
type AlertCheckResponse struct {
	alert.Result
	Reading pollution.Reading `json:"reading"`
}

// ChatMessageRequest is the body of POST /chat/messages.
type ChatMessageRequest struct {
	Message string `json:"message"`
}

// ChatResponse wraps a bot reply.
type ChatResponse struct {
	Reply *chatbot.Reply `json:"reply"`
}
