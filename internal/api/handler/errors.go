package handler

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/airalert/airalert/internal/alert"
	"github.com/airalert/airalert/internal/api/middleware"
	"github.com/airalert/airalert/internal/api/response"
	"github.com/airalert/airalert/internal/chatbot"
	"github.com/airalert/airalert/internal/facility"
	"github.com/airalert/airalert/internal/kvstore"
	"github.com/airalert/airalert/internal/notification"
	"github.com/airalert/airalert/internal/pollution"
	"github.com/airalert/airalert/internal/resilience"
	"github.com/airalert/airalert/internal/user"
	"github.com/airalert/airalert/internal/validation"
)

// writeError maps a service error to a problem response. Unrecognised
// errors are logged and reported as a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, log zerolog.Logger, err error) {
	switch {
	case errors.Is(err, validation.ErrInvalid):
		response.ValidationFailed(w, r, err)
	case errors.Is(err, pollution.ErrRegionRequired),
		errors.Is(err, notification.ErrUserIDRequired),
		errors.Is(err, alert.ErrUserIDRequired),
		errors.Is(err, chatbot.ErrEmptyMessage),
		errors.Is(err, chatbot.ErrMessageTooLong):
		response.BadRequest(w, r, err.Error(), nil)
	case errors.Is(err, user.ErrUserNotFound):
		response.NotFound(w, r, "user not found")
	case errors.Is(err, notification.ErrNotificationNotFound):
		response.NotFound(w, r, "notification not found")
	case errors.Is(err, pollution.ErrNoReading):
		response.NotFound(w, r, "no reading available for region")
	case errors.Is(err, user.ErrEmailTaken):
		response.Conflict(w, r, "email already registered")
	case errors.Is(err, facility.ErrProRequired):
		response.Forbidden(w, r, "facility planning requires a Pro planner account")
	case errors.Is(err, chatbot.ErrQuotaExceeded):
		response.TooManyRequests(w, r, "daily message limit reached")
	case errors.Is(err, chatbot.ErrChatbotDisabled),
		errors.Is(err, facility.ErrPlanningDisabled):
		response.ServiceUnavailable(w, r, err.Error())
	case errors.Is(err, kvstore.ErrUnavailable),
		errors.Is(err, resilience.ErrCircuitOpen):
		response.ServiceUnavailable(w, r, "storage temporarily unavailable")
	default:
		log.Error().
			Err(err).
			Str("request_id", middleware.GetRequestID(r.Context())).
			Str("path", r.URL.Path).
			Msg("request failed")
		response.InternalError(w, r, "an unexpected error occurred")
	}
}

// decodeBody decodes the JSON body into dst and writes a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := response.DecodeJSON(w, r, dst); err != nil {
		response.BadRequest(w, r, err.Error(), nil)
		return false
	}
	return true
}
