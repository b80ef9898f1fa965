package handler

import (
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/airalert/airalert/internal/api/models"
	"github.com/airalert/airalert/internal/api/response"
	"github.com/airalert/airalert/internal/pollution"
	"github.com/airalert/airalert/internal/user"
)

const maxHistoryLimit = 100

// PollutionHandler serves readings.
type PollutionHandler struct {
	readings *pollution.Service
	users    *user.Service
	logger   zerolog.Logger
}

// NewPollutionHandler creates a new PollutionHandler.
func NewPollutionHandler(readings *pollution.Service, users *user.Service, logger zerolog.Logger) *PollutionHandler {
	return &PollutionHandler{readings: readings, users: users, logger: logger}
}

// region returns the region query parameter, falling back to the
// authenticated user's region.
func (h *PollutionHandler) region(r *http.Request) (string, error) {
	if region := r.URL.Query().Get("region"); region != "" {
		return region, nil
	}
	u, err := h.users.Get(r.Context(), GetUserID(r.Context()))
	if err != nil {
		return "", err
	}
	return u.Region, nil
}

// Current handles GET /v1/pollution/current.
func (h *PollutionHandler) Current(w http.ResponseWriter, r *http.Request) {
	region, err := h.region(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	reading, err := h.readings.Current(r.Context(), region)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	response.JSON(w, r, http.StatusOK, reading)
}

// History handles GET /v1/pollution/history. limit defaults to, and is
// capped at, the retained history length.
func (h *PollutionHandler) History(w http.ResponseWriter, r *http.Request) {
	region, err := h.region(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	limit := maxHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			response.BadRequest(w, r, "limit must be a positive integer", []models.FieldError{
				{Field: "limit", Message: "must be a positive integer", Code: "gte"},
			})
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	readings, err := h.readings.History(r.Context(), region, limit)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if readings == nil {
		readings = []pollution.Reading{}
	}

	response.JSON(w, r, http.StatusOK, models.HistoryResponse{Region: region, Readings: readings})
}
