package handlers

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/neopath7/pethoria-matchpage-server/internal/domain/model"
	"github.com/neopath7/pethoria-matchpage-server/internal/pkg/validate"
	authsvc "github.com/neopath7/pethoria-matchpage-server/internal/services/auth"
	swipesvc "github.com/neopath7/pethoria-matchpage-server/internal/services/swipes"
	"github.com/neopath7/pethoria-matchpage-server/internal/transport/http/dto"
	httperrors "github.com/neopath7/pethoria-matchpage-server/internal/transport/http/errors"
)

type SwipeHandler struct {
	service *swipesvc.Service
	logger  *zap.Logger
}

func NewSwipeHandler(service *swipesvc.Service, logger *zap.Logger) *SwipeHandler {
	return &SwipeHandler{service: service, logger: logger}
}

func (h *SwipeHandler) Handle(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "SWIPE_SERVICE_UNAVAILABLE", "swipe service is unavailable")
		return
	}

	var req dto.SwipeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	var target model.CandidateRef
	switch {
	case req.Target != nil:
		target = model.CandidateRef{
			ProfileID: strings.TrimSpace(req.Target.ProfileID),
			PetID:     strings.TrimSpace(req.Target.PetID),
		}
	case validate.Required(req.TargetID):
		target = model.ParseCandidateRef(req.TargetID)
	}
	if target.ProfileID == "" {
		writeBadRequest(w, "VALIDATION_ERROR", "target is required")
		return
	}

	result, err := h.service.RecordSwipe(r.Context(), identity.ProfileID, target, req.Decision)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to record swipe")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.SwipeResponse{
		IsMatch:  result.IsMatch,
		Decision: string(result.Decision),
	})
}

func (h *SwipeHandler) Limit(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "SWIPE_SERVICE_UNAVAILABLE", "swipe service is unavailable")
		return
	}

	state, err := h.service.LimitState(r.Context(), identity.ProfileID)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to read swipe limit")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.SwipeLimitResponse{
		CanSwipe:      state.CanSwipe,
		RetryAfterSec: state.RetryAfterSec,
	})
}
