package handlers

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/neopath7/pethoria-matchpage-server/internal/pkg/validate"
	authsvc "github.com/neopath7/pethoria-matchpage-server/internal/services/auth"
	matchessvc "github.com/neopath7/pethoria-matchpage-server/internal/services/matches"
	"github.com/neopath7/pethoria-matchpage-server/internal/transport/http/dto"
	httperrors "github.com/neopath7/pethoria-matchpage-server/internal/transport/http/errors"
)

type MatchesHandler struct {
	service *matchessvc.Service
	logger  *zap.Logger
}

func NewMatchesHandler(service *matchessvc.Service, logger *zap.Logger) *MatchesHandler {
	return &MatchesHandler{service: service, logger: logger}
}

func (h *MatchesHandler) Handle(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "MATCHES_SERVICE_UNAVAILABLE", "matches service is unavailable")
		return
	}

	items, err := h.service.ListMatches(r.Context(), identity.ProfileID)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to load matches")
		return
	}

	responseItems := make([]dto.MatchItemResponse, 0, len(items))
	for _, item := range items {
		responseItems = append(responseItems, dto.MatchItemResponse{
			ID:        item.ID,
			Name:      item.Name,
			Image:     item.Image,
			Timestamp: item.Timestamp,
		})
	}

	httperrors.Write(w, http.StatusOK, dto.MatchesResponse{Matches: responseItems})
}

func (h *MatchesHandler) Unmatch(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "MATCHES_SERVICE_UNAVAILABLE", "matches service is unavailable")
		return
	}

	var req dto.UnmatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}
	if !validate.Required(req.TargetID) {
		writeBadRequest(w, "VALIDATION_ERROR", "target_id is required")
		return
	}

	deactivated, err := h.service.Unmatch(r.Context(), identity.ProfileID, strings.TrimSpace(req.TargetID))
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to unmatch")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.UnmatchResponse{
		OK:          true,
		Deactivated: deactivated,
	})
}
