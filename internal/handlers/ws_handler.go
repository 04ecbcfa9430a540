package handlers

import (
	"net/http"

	"github.com/omnivet/vetpms/internal/notify"
	"github.com/omnivet/vetpms/internal/tenant"
)

// WSHandler upgrades authenticated clients onto the tenant's
// notification stream.
type WSHandler struct {
	hub *notify.Hub
}

// NewWSHandler creates a websocket handler
func NewWSHandler(hub *notify.Hub) *WSHandler {
	return &WSHandler{hub: hub}
}

// Connect joins the caller to their tenant's event room
func (h *WSHandler) Connect(w http.ResponseWriter, r *http.Request) {
	tenantID := tenant.IDFromContext(r.Context())
	h.hub.ServeWS(tenantID, w, r)
}
