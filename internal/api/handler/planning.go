package handler

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/airalert/airalert/internal/api/response"
	"github.com/airalert/airalert/internal/facility"
	"github.com/airalert/airalert/internal/user"
)

// PlanningHandler serves facility recommendations to Pro planners.
type PlanningHandler struct {
	facilities *facility.Service
	users      *user.Service
	logger     zerolog.Logger
}

// NewPlanningHandler creates a new PlanningHandler.
func NewPlanningHandler(facilities *facility.Service, users *user.Service, logger zerolog.Logger) *PlanningHandler {
	return &PlanningHandler{facilities: facilities, users: users, logger: logger}
}

// Facilities handles GET /v1/planning/facilities?region=.
func (h *PlanningHandler) Facilities(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.Get(r.Context(), GetUserID(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	report, err := h.facilities.Recommend(r.Context(), u, r.URL.Query().Get("region"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	response.JSON(w, r, http.StatusOK, report)
}
