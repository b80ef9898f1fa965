package handler

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/airalert/airalert/internal/alert"
	"github.com/airalert/airalert/internal/api/models"
	"github.com/airalert/airalert/internal/api/response"
	"github.com/airalert/airalert/internal/pollution"
	"github.com/airalert/airalert/internal/user"
)

// AlertHandler runs the alert evaluator on demand.
type AlertHandler struct {
	alerts   *alert.Service
	users    *user.Service
	readings *pollution.Service
	logger   zerolog.Logger
}

// NewAlertHandler creates a new AlertHandler.
func NewAlertHandler(alerts *alert.Service, users *user.Service, readings *pollution.Service, logger zerolog.Logger) *AlertHandler {
	return &AlertHandler{alerts: alerts, users: users, readings: readings, logger: logger}
}

// Check handles POST /v1/alerts/check. The supplied reading is evaluated,
// or the current reading of the user's region when none is given.
func (h *AlertHandler) Check(w http.ResponseWriter, r *http.Request) {
	var req models.AlertCheckRequest
	if !decodeBody(w, r, &req) {
		return
	}
	userID, ok := resolveUserID(w, r, req.UserID)
	if !ok {
		return
	}

	var reading pollution.Reading
	if req.Reading != nil {
		reading = *req.Reading
	} else {
		u, err := h.users.Get(r.Context(), userID)
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		current, err := h.readings.Current(r.Context(), u.Region)
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		reading = *current
	}

	res, err := h.alerts.Check(r.Context(), userID, reading)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	response.JSON(w, r, http.StatusOK, models.AlertCheckResponse{Result: res, Reading: reading})
}
