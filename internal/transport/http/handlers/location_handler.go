package handlers

import (
	"net/http"

	"go.uber.org/zap"

	authsvc "github.com/neopath7/pethoria-matchpage-server/internal/services/auth"
	geosvc "github.com/neopath7/pethoria-matchpage-server/internal/services/geo"
	"github.com/neopath7/pethoria-matchpage-server/internal/transport/http/dto"
	httperrors "github.com/neopath7/pethoria-matchpage-server/internal/transport/http/errors"
)

type LocationHandler struct {
	service *geosvc.Service
	logger  *zap.Logger
}

func NewLocationHandler(service *geosvc.Service, logger *zap.Logger) *LocationHandler {
	return &LocationHandler{service: service, logger: logger}
}

func (h *LocationHandler) Handle(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "LOCATION_SERVICE_UNAVAILABLE", "location service is unavailable")
		return
	}

	var req dto.ProfileLocationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}
	if req.Lat == nil || req.Lon == nil {
		writeBadRequest(w, "VALIDATION_ERROR", "lat and lon are required")
		return
	}

	loc, err := h.service.UpdateProfileLocation(r.Context(), identity.ProfileID, *req.Lat, *req.Lon)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to update profile location")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.ProfileLocationResponse{
		Lat:   loc.Lat,
		Lon:   loc.Lon,
		City:  loc.City,
		State: loc.State,
	})
}
