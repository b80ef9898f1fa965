package handler

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/airalert/airalert/internal/api/middleware"
	"github.com/airalert/airalert/internal/api/models"
	"github.com/airalert/airalert/internal/api/response"
	"github.com/airalert/airalert/internal/auth"
	"github.com/airalert/airalert/internal/user"
)

// AuthHandler handles registration, login and session endpoints.
type AuthHandler struct {
	authService *auth.Service
	users       *user.Service
	logger      zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *auth.Service, users *user.Service, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		users:       users,
		logger:      logger,
	}
}

// Register handles POST /v1/user/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterRequest
	if !decodeBody(w, r, &req) {
		return
	}

	u, err := h.authService.Register(r.Context(), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	response.Created(w, r, "/v1/user/session", models.UserResponse{User: u.Summary()})
}

// Login handles POST /v1/user/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	session, err := h.authService.Login(r.Context(), req)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			response.Unauthorized(w, r, "invalid email or password")
			return
		}
		writeError(w, r, h.logger, err)
		return
	}

	response.JSON(w, r, http.StatusOK, models.LoginResponse{
		User:        session.User.Summary(),
		AccessToken: session.AccessToken.Token,
		ExpiresAt:   models.Timestamp(session.AccessToken.ExpiresAt),
	})
}

// Session handles GET /v1/user/session. A token whose user no longer
// exists is treated as unauthenticated.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.Get(r.Context(), GetUserID(r.Context()))
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			response.Unauthorized(w, r, "session user no longer exists")
			return
		}
		writeError(w, r, h.logger, err)
		return
	}

	response.JSON(w, r, http.StatusOK, models.UserResponse{User: u.Summary()})
}

// Logout handles POST /v1/user/logout. It always reports success; a
// presented bearer token is revoked when it is valid.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token, ok := middleware.BearerToken(r); ok {
		if err := h.authService.Logout(r.Context(), token); err != nil {
			h.logger.Warn().Err(err).Msg("logout failed to revoke token")
		}
	}

	response.JSON(w, r, http.StatusOK, models.SuccessResponse{Success: true})
}
