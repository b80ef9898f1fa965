package handler

import (
	"net/http"
	"sort"

	"github.com/rs/zerolog"

	"github.com/airalert/airalert/internal/api/models"
	"github.com/airalert/airalert/internal/api/response"
	"github.com/airalert/airalert/internal/featureflags"
	"github.com/airalert/airalert/internal/validation"
)

// FeatureFlagsHandler handles feature flag endpoints.
type FeatureFlagsHandler struct {
	service *featureflags.Service
	logger  zerolog.Logger
}

// NewFeatureFlagsHandler creates a new FeatureFlagsHandler.
func NewFeatureFlagsHandler(service *featureflags.Service, logger zerolog.Logger) *FeatureFlagsHandler {
	return &FeatureFlagsHandler{service: service, logger: logger}
}

// ListFeatureFlags handles GET /v1/admin/feature-flags. Defaults are
// listed alongside stored flags, sorted by key.
func (h *FeatureFlagsHandler) ListFeatureFlags(w http.ResponseWriter, r *http.Request) {
	flags := h.service.GetAllFlags(r.Context())

	list := featureflags.FlagList{Items: make([]featureflags.Flag, 0, len(flags))}
	for _, f := range flags {
		list.Items = append(list.Items, *f)
	}
	sort.Slice(list.Items, func(i, j int) bool { return list.Items[i].Key < list.Items[j].Key })

	response.JSON(w, r, http.StatusOK, list)
}

// UpsertFeatureFlags handles PUT /v1/admin/feature-flags.
func (h *FeatureFlagsHandler) UpsertFeatureFlags(w http.ResponseWriter, r *http.Request) {
	var req featureflags.FlagUpdateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := validation.Struct(req); err != nil {
		response.ValidationFailed(w, r, err)
		return
	}

	flags := make([]*featureflags.Flag, len(req.Updates))
	keys := make([]string, len(req.Updates))
	for i, u := range req.Updates {
		flags[i] = &featureflags.Flag{Key: u.Key, Value: u.Value}
		keys[i] = u.Key
	}

	if err := h.service.SetFlags(r.Context(), flags); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.logger.Info().
		Str("user_id", GetUserID(r.Context())).
		Strs("keys", keys).
		Str("reason", req.Reason).
		Msg("feature flags updated")

	response.JSON(w, r, http.StatusOK, models.SuccessResponse{Success: true})
}

// InvalidateCache handles POST /v1/admin/feature-flags/invalidate.
func (h *FeatureFlagsHandler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	h.service.InvalidateCache()
	response.JSON(w, r, http.StatusOK, models.SuccessResponse{Success: true})
}
