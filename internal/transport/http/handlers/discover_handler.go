package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	authsvc "github.com/neopath7/pethoria-matchpage-server/internal/services/auth"
	discoverysvc "github.com/neopath7/pethoria-matchpage-server/internal/services/discovery"
	"github.com/neopath7/pethoria-matchpage-server/internal/transport/http/dto"
	httperrors "github.com/neopath7/pethoria-matchpage-server/internal/transport/http/errors"
)

type DiscoverHandler struct {
	service *discoverysvc.Service
	logger  *zap.Logger
}

func NewDiscoverHandler(service *discoverysvc.Service, logger *zap.Logger) *DiscoverHandler {
	return &DiscoverHandler{service: service, logger: logger}
}

func (h *DiscoverHandler) Handle(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "DISCOVERY_SERVICE_UNAVAILABLE", "discovery service is unavailable")
		return
	}

	query := r.URL.Query()
	req := discoverysvc.Request{
		RequesterID: identity.ProfileID,
		Kind:        query.Get("kind"),
	}
	if raw := strings.TrimSpace(query.Get("radius")); raw != "" {
		radius, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeBadRequest(w, "VALIDATION_ERROR", "radius must be a number")
			return
		}
		req.RadiusMiles = &radius
	}
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			writeBadRequest(w, "VALIDATION_ERROR", "limit must be an integer")
			return
		}
		req.Limit = limit
	}

	result, err := h.service.DiscoverNearby(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to discover candidates")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.DiscoverResponse{
		Candidates: result.Candidates,
		Total:      result.Total,
	})
}
