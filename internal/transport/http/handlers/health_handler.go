package handlers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/neopath7/pethoria-matchpage-server/internal/transport/http/dto"
	httperrors "github.com/neopath7/pethoria-matchpage-server/internal/transport/http/errors"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	store  Pinger
	logger *zap.Logger
}

func NewHealthHandler(store Pinger, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{store: store, logger: logger}
}

func (h *HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		httperrors.Write(w, http.StatusOK, dto.HealthResponse{Status: "ok", Store: "unconfigured"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		if h.logger != nil {
			h.logger.Warn("health check store ping failed", zap.Error(err))
		}
		httperrors.Write(w, http.StatusServiceUnavailable, dto.HealthResponse{Status: "degraded", Store: "down"})
		return
	}

	httperrors.Write(w, http.StatusOK, dto.HealthResponse{Status: "ok", Store: "up"})
}
