package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
)

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	service HealthServiceInterface
	logger  *slog.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(service HealthServiceInterface, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "health")),
	}
}

// HealthCheck handles GET /api/health. A service that has not loaded its
// segmentation yet answers 503.
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := h.service.HealthCheck(r.Context())
	if status.Status != "ok" {
		render.Status(r, http.StatusServiceUnavailable)
	}
	render.JSON(w, r, status)
}
