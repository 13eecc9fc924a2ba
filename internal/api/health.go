package api

import (
	"context"
	"net/http"
	"time"

	respond "github.com/secondbrain/vault-service/internal/api/respond"
	"github.com/secondbrain/vault-service/internal/store"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	serviceIsHealthy func() bool
	storePinger      store.HealthPinger
}

// NewHealthHandler creates a health handler. serviceIsHealthy reports the
// aggregated background-checker verdict; storePinger probes the database
// synchronously for /api/health/db.
func NewHealthHandler(serviceIsHealthy func() bool, storePinger store.HealthPinger) *HealthHandler {
	if serviceIsHealthy == nil {
		serviceIsHealthy = func() bool { return true }
	}
	return &HealthHandler{serviceIsHealthy: serviceIsHealthy, storePinger: storePinger}
}

// CheckHealth handles GET /api/health
// Always returns 200; body reports healthy/unhealthy. 500 indicates handler failure only.
func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	status := "unhealthy"
	if h.serviceIsHealthy() {
		status = "healthy"
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// CheckStorageHealth handles GET /api/health/db with a live ping.
func (h *HealthHandler) CheckStorageHealth(w http.ResponseWriter, r *http.Request) {
	if h.storePinger == nil {
		respond.WriteError(w, http.StatusServiceUnavailable, "store not configured")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.storePinger.HealthPing(ctx); err != nil {
		respond.WriteError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"status": "healthy"})
}
