package handler

import (
	"context"
	"net/http"

	"github.com/airalert/airalert/internal/api/middleware"
	"github.com/airalert/airalert/internal/api/response"
)

// GetUserID retrieves the authenticated user ID from the context.
// This is a convenience wrapper around middleware.GetUserID.
func GetUserID(ctx context.Context) string {
	return middleware.GetUserID(ctx)
}

// resolveUserID returns the authenticated user. A userId supplied by the
// client must name that same user; an empty one defaults to it.
func resolveUserID(w http.ResponseWriter, r *http.Request, supplied string) (string, bool) {
	userID := GetUserID(r.Context())
	if userID == "" {
		response.Unauthorized(w, r, "authentication required")
		return "", false
	}
	if supplied != "" && supplied != userID {
		response.Forbidden(w, r, "userId does not match the authenticated user")
		return "", false
	}
	return userID, true
}
