package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/neopath7/pethoria-matchpage-server/internal/domain/model"
	authsvc "github.com/neopath7/pethoria-matchpage-server/internal/services/auth"
	searchsvc "github.com/neopath7/pethoria-matchpage-server/internal/services/search"
	"github.com/neopath7/pethoria-matchpage-server/internal/transport/http/dto"
	httperrors "github.com/neopath7/pethoria-matchpage-server/internal/transport/http/errors"
)

type SearchHandler struct {
	service *searchsvc.Service
	logger  *zap.Logger
}

func NewSearchHandler(service *searchsvc.Service, logger *zap.Logger) *SearchHandler {
	return &SearchHandler{service: service, logger: logger}
}

func (h *SearchHandler) Handle(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "SEARCH_SERVICE_UNAVAILABLE", "search service is unavailable")
		return
	}

	var req dto.SearchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}
	if (req.Lat == nil) != (req.Lon == nil) {
		writeBadRequest(w, "VALIDATION_ERROR", "lat and lon must be sent together")
		return
	}

	var point *model.Point
	if req.Lat != nil {
		point = &model.Point{Lat: *req.Lat, Lon: *req.Lon}
	}

	result, err := h.service.FilteredSearch(r.Context(), searchsvc.Request{
		RequesterID: identity.ProfileID,
		Point:       point,
		Filters:     req.Filters,
	})
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to search")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.SearchResponse{
		Matches: result.Matches,
		Count:   result.Count,
		Filters: result.FiltersEcho,
	})
}
