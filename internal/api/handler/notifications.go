package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/airalert/airalert/internal/alert"
	"github.com/airalert/airalert/internal/api/models"
	"github.com/airalert/airalert/internal/api/response"
	"github.com/airalert/airalert/internal/notification"
	"github.com/airalert/airalert/internal/pollution"
	"github.com/airalert/airalert/internal/user"
)

// NotificationHandler handles notification list and preference endpoints.
type NotificationHandler struct {
	notifications *notification.Service
	users         *user.Service
	readings      *pollution.Service
	thresholds    alert.Thresholds
	logger        zerolog.Logger
}

// NewNotificationHandler creates a new NotificationHandler. Test
// notifications built from a reading use thresholds.
func NewNotificationHandler(
	notifications *notification.Service,
	users *user.Service,
	readings *pollution.Service,
	thresholds alert.Thresholds,
	logger zerolog.Logger,
) *NotificationHandler {
	return &NotificationHandler{
		notifications: notifications,
		users:         users,
		readings:      readings,
		thresholds:    thresholds,
		logger:        logger,
	}
}

// GetPreferences handles GET /v1/user/notification-preferences.
func (h *NotificationHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	userID, ok := resolveUserID(w, r, r.URL.Query().Get("userId"))
	if !ok {
		return
	}

	prefs, err := h.notifications.GetPreferences(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	response.JSON(w, r, http.StatusOK, models.PreferencesResponse{Preferences: prefs})
}

// PutPreferences handles PUT /v1/user/notification-preferences. The
// preferences are stored exactly as given.
func (h *NotificationHandler) PutPreferences(w http.ResponseWriter, r *http.Request) {
	var req models.PreferencesRequest
	if !decodeBody(w, r, &req) {
		return
	}
	userID, ok := resolveUserID(w, r, req.UserID)
	if !ok {
		return
	}
	if req.Preferences == nil {
		response.BadRequest(w, r, "preferences are required", []models.FieldError{
			{Field: "preferences", Message: "is required", Code: "required"},
		})
		return
	}

	if err := h.notifications.PutPreferences(r.Context(), userID, *req.Preferences); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	response.JSON(w, r, http.StatusOK, models.SuccessResponse{Success: true})
}

// List handles GET /v1/user/notifications.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := resolveUserID(w, r, r.URL.Query().Get("userId"))
	if !ok {
		return
	}

	list, err := h.notifications.List(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	response.JSON(w, r, http.StatusOK, models.NotificationsResponse{
		Notifications: list,
		Unread:        notification.CountUnread(list),
	})
}

// MarkRead handles PUT /v1/user/notifications/{id}/read.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := resolveUserID(w, r, r.URL.Query().Get("userId"))
	if !ok {
		return
	}

	if err := h.notifications.MarkRead(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	response.JSON(w, r, http.StatusOK, models.SuccessResponse{Success: true})
}

// TestNotification handles POST /v1/user/test-notification. A nested
// notification is stored with its id, timestamp and read flag intact.
// Without one, a missing message or useCurrentReading summarises the
// current reading of the user's region.
func (h *NotificationHandler) TestNotification(w http.ResponseWriter, r *http.Request) {
	var req models.TestNotificationRequest
	if !decodeBody(w, r, &req) {
		return
	}
	userID, ok := resolveUserID(w, r, req.UserID)
	if !ok {
		return
	}

	var n notification.Notification
	if req.Notification != nil {
		n = *req.Notification
		if n.Message == "" {
			n.Message = notification.TestMessage
		}
	} else {
		n = notification.Notification{Message: req.Message, Type: req.Type}
	}
	if n.Type == "" {
		n.Type = notification.TypeInfo
	}

	if req.Notification == nil && (req.UseCurrentReading || req.Message == "") {
		u, err := h.users.Get(r.Context(), userID)
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		reading, err := h.readings.Current(r.Context(), u.Region)
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		n = alert.Summarize(*reading, h.thresholds)
	}

	saved, err := h.notifications.Append(r.Context(), userID, n)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	response.JSON(w, r, http.StatusOK, models.NotificationResponse{Success: true, Notification: saved})
}
