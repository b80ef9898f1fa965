package handler

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/airalert/airalert/internal/api/models"
	"github.com/airalert/airalert/internal/api/response"
	"github.com/airalert/airalert/internal/user"
)

// UserHandler handles profile and account endpoints.
type UserHandler struct {
	users  *user.Service
	logger zerolog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users *user.Service, logger zerolog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

// UpdateProfile handles PUT /v1/user/profile.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req models.ProfileRequest
	if !decodeBody(w, r, &req) {
		return
	}
	userID, ok := resolveUserID(w, r, req.UserID)
	if !ok {
		return
	}

	u, err := h.users.UpdateProfile(r.Context(), userID, user.ProfileUpdate{
		Name:   req.Name,
		Email:  req.Email,
		Region: req.Region,
		City:   req.City,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	response.JSON(w, r, http.StatusOK, models.UserResponse{User: u.Summary()})
}

// Upgrade handles POST /v1/user/upgrade. No payment is taken.
func (h *UserHandler) Upgrade(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.Upgrade(r.Context(), GetUserID(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	response.JSON(w, r, http.StatusOK, models.ProfileResponse{User: u})
}

// Export handles GET /v1/user/export.
func (h *UserHandler) Export(w http.ResponseWriter, r *http.Request) {
	userID, ok := resolveUserID(w, r, r.URL.Query().Get("userId"))
	if !ok {
		return
	}

	export, err := h.users.Export(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	w.Header().Set("Content-Disposition", `attachment; filename="airalert-export.json"`)
	response.JSON(w, r, http.StatusOK, export)
}

// Stats handles GET /v1/user/stats.
func (h *UserHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID, ok := resolveUserID(w, r, r.URL.Query().Get("userId"))
	if !ok {
		return
	}

	stats, err := h.users.Stats(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	response.JSON(w, r, http.StatusOK, models.StatsResponse{Stats: stats})
}

// Delete handles DELETE /v1/user and removes the account with its
// notifications and preferences.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.users.Delete(r.Context(), GetUserID(r.Context())); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	response.JSON(w, r, http.StatusOK, models.SuccessResponse{Success: true})
}
