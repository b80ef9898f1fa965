package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/airalert/airalert/internal/api/models"
	"github.com/airalert/airalert/internal/api/response"
	"github.com/airalert/airalert/internal/chatbot"
	"github.com/airalert/airalert/internal/featureflags"
	"github.com/airalert/airalert/internal/user"
)

// ChatHandler serves the scripted assistant.
type ChatHandler struct {
	bot    *chatbot.Bot
	users  *user.Service
	flags  *featureflags.Service
	logger zerolog.Logger
	now    func() time.Time
}

// NewChatHandler creates a new ChatHandler. now defaults to time.Now.
func NewChatHandler(bot *chatbot.Bot, users *user.Service, flags *featureflags.Service, logger zerolog.Logger, now func() time.Time) *ChatHandler {
	if now == nil {
		now = time.Now
	}
	return &ChatHandler{bot: bot, users: users, flags: flags, logger: logger, now: now}
}

// Send handles POST /v1/chat/messages.
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req models.ChatMessageRequest
	if !decodeBody(w, r, &req) {
		return
	}

	u, err := h.users.Get(r.Context(), GetUserID(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	reply, err := h.bot.Send(r.Context(), u, req.Message)
	if err != nil {
		if errors.Is(err, chatbot.ErrQuotaExceeded) {
			h.quotaExceeded(w, r)
			return
		}
		writeError(w, r, h.logger, err)
		return
	}

	response.JSON(w, r, http.StatusOK, models.ChatResponse{Reply: reply})
}

// Status handles GET /v1/chat/status and returns the greeting with the
// user's remaining quota.
func (h *ChatHandler) Status(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.Get(r.Context(), GetUserID(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	reply, err := h.bot.Greet(r.Context(), u)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	response.JSON(w, r, http.StatusOK, models.ChatResponse{Reply: reply})
}

// quotaExceeded writes a 429 whose reset is the next UTC midnight.
func (h *ChatHandler) quotaExceeded(w http.ResponseWriter, r *http.Request) {
	now := h.now().UTC()
	reset := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, time.UTC)

	response.TooManyRequestsWithInfo(w, r, "daily message limit reached; upgrade to Pro for unlimited messages", &response.RateLimitInfo{
		Limit:      h.flags.ChatDailyLimit(r.Context()),
		Remaining:  0,
		ResetAt:    reset.Unix(),
		RetryAfter: int(reset.Sub(now).Seconds()),
	})
}
