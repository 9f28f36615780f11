package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apperrors "bankcli/internal/errors"
)

// SegmentHandler serves segments, per-customer assignments and the SQL analytics
type SegmentHandler struct {
	service SegmentServiceInterface
	logger  *slog.Logger
}

// NewSegmentHandler creates a new segment handler
func NewSegmentHandler(service SegmentServiceInterface, logger *slog.Logger) *SegmentHandler {
	return &SegmentHandler{
		service: service,
		logger:  logger.With(slog.String("component", "segment_handler")),
	}
}

// Routes returns the /api/v1 routes
func (h *SegmentHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/segments", h.ListSegments)
	r.Get("/segments/{clusterID}", h.GetSegment)
	r.Get("/assignments/{customerID}", h.GetAssignment)

	r.Route("/analytics", func(r chi.Router) {
		r.Get("/top-customers", h.TopCustomers)
		r.Get("/cities", h.Cities)
	})
	return r
}

// ListSegments handles GET /api/v1/segments
func (h *SegmentHandler) ListSegments(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Segments(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, view)
}

// GetSegment handles GET /api/v1/segments/{clusterID}
func (h *SegmentHandler) GetSegment(w http.ResponseWriter, r *http.Request) {
	clusterID, err := intParam(r, "clusterID")
	if err != nil {
		apperrors.WriteError(w, r, apperrors.InvalidParameter("clusterID", err))
		return
	}
	seg, err := h.service.Segment(r.Context(), clusterID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, seg)
}

// GetAssignment handles GET /api/v1/assignments/{customerID}
func (h *SegmentHandler) GetAssignment(w http.ResponseWriter, r *http.Request) {
	customerID, err := intParam(r, "customerID")
	if err != nil {
		apperrors.WriteError(w, r, apperrors.InvalidParameter("customerID", err))
		return
	}
	view, err := h.service.Assignment(r.Context(), customerID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, view)
}

const maxTopLimit = 1000

// TopCustomers handles GET /api/v1/analytics/top-customers?limit=N
func (h *SegmentHandler) TopCustomers(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err == nil && (n < 1 || n > maxTopLimit) {
			err = fmt.Errorf("must be between 1 and %d", maxTopLimit)
		}
		if err != nil {
			apperrors.WriteError(w, r, apperrors.InvalidParameter("limit", err))
			return
		}
		limit = n
	}

	top, err := h.service.TopCustomers(r.Context(), limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, top)
}

// Cities handles GET /api/v1/analytics/cities
func (h *SegmentHandler) Cities(w http.ResponseWriter, r *http.Request) {
	cities, err := h.service.Cities(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, cities)
}

func (h *SegmentHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := apperrors.FromAppError(err)
	if apiErr.StatusCode >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "Request failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()))
	}
	apperrors.WriteError(w, r, apiErr)
}

func intParam(r *http.Request, name string) (int, error) {
	return strconv.Atoi(chi.URLParam(r, name))
}
