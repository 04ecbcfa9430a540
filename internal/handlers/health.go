package handlers

import (
	"net/http"
	"time"

	"github.com/omnivet/vetpms/internal/database"
	"gorm.io/gorm"
)

// HealthHandler serves liveness and readiness probes
type HealthHandler struct {
	ownerDB *gorm.DB
}

// NewHealthHandler creates a health handler over the owner database
func NewHealthHandler(ownerDB *gorm.DB) *HealthHandler {
	return &HealthHandler{ownerDB: ownerDB}
}

// Health reports process liveness
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready reports whether the owner database is reachable
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if err := database.Ping(r.Context(), h.ownerDB); err != nil {
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
