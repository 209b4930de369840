package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"variantpulse/pkg/contracts"
)

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	service HealthService
}

// NewHealthHandler creates a health handler
func NewHealthHandler(service HealthService) *HealthHandler {
	return &HealthHandler{service: service}
}

// Routes returns the router for health endpoints
func (h *HealthHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Live)
	r.Get("/live", h.Live)
	r.Get("/ready", h.Ready)
	return r
}

// Live handles GET /api/health and GET /api/health/live
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusOK)
	render.JSON(w, r, h.service.Live(r.Context()))
}

// Version handles GET /api/version
func (h *HealthHandler) Version(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusOK)
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   contracts.GetVersionInfo(),
	})
}

// Ready handles GET /api/health/ready
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	status, ready := h.service.Ready(r.Context())

	if !ready {
		render.Status(r, http.StatusServiceUnavailable)
	} else {
		render.Status(r, http.StatusOK)
	}
	render.JSON(w, r, status)
}
