package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"retailpulse/internal/infrastructure"
)

// MetricsHandler serves the Prometheus scrape endpoint and a JSON view of
// the Go runtime.
type MetricsHandler struct {
	prometheus http.Handler
	started    time.Time
}

// NewMetricsHandler creates a metrics handler. prometheus is nil when
// metrics are disabled.
func NewMetricsHandler(prometheus http.Handler, started time.Time) *MetricsHandler {
	return &MetricsHandler{prometheus: prometheus, started: started}
}

// Routes sets up the routes mounted under /api/metrics.
func (h *MetricsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/runtime", h.GetRuntime)
	return r
}

// Prometheus handles GET /metrics.
func (h *MetricsHandler) Prometheus(w http.ResponseWriter, r *http.Request) {
	if h.prometheus == nil {
		http.Error(w, "metrics are disabled", http.StatusNotFound)
		return
	}
	h.prometheus.ServeHTTP(w, r)
}

// GetRuntime handles GET /api/metrics/runtime.
func (h *MetricsHandler) GetRuntime(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]any{
		"status": "success",
		"data":   infrastructure.ReadRuntimeStats(h.started),
	})
}
