package http

import (
	"net/http"
	"time"

	"github.com/go-chi/render"

	"gsewatch/internal/config"
)

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	paths   *config.Paths
	version string
	started time.Time
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(paths *config.Paths, version string) *HealthHandler {
	return &HealthHandler{paths: paths, version: version, started: time.Now()}
}

// Liveness handles GET /healthz.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"status":  "ok",
		"version": h.version,
		"uptime":  time.Since(h.started).Round(time.Second).String(),
	})
}

// Readiness handles GET /readyz: ready once the data directories are
// in place.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if err := h.paths.EnsureDirectories(); err != nil {
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, map[string]interface{}{
			"status": "unavailable",
			"error":  err.Error(),
		})
		return
	}
	render.JSON(w, r, map[string]interface{}{"status": "ready"})
}
