package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/omnivet/vetpms/internal/rbac"
	"github.com/omnivet/vetpms/internal/services"
)

// InventoryHandler serves the stock management endpoints
type InventoryHandler struct {
	inventory *services.InventoryService
	evaluator *rbac.Evaluator
}

// NewInventoryHandler creates an inventory handler
func NewInventoryHandler(inventory *services.InventoryService, evaluator *rbac.Evaluator) *InventoryHandler {
	return &InventoryHandler{inventory: inventory, evaluator: evaluator}
}

// CreateItem adds a stocked item
func (h *InventoryHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var input services.CreateItemInput
	if err := decodeJSON(r, &input); err != nil {
		respondError(w, r, err)
		return
	}

	item, err := h.inventory.CreateItem(r.Context(), input)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, item)
}

// List returns a practice's items
func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	practiceID, err := practiceScope(r, h.evaluator)
	if err != nil {
		respondError(w, r, err)
		return
	}

	items, err := h.inventory.List(r.Context(), practiceID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, items)
}

// ListLowStock returns items at or below their reorder point
func (h *InventoryHandler) ListLowStock(w http.ResponseWriter, r *http.Request) {
	practiceID, err := practiceScope(r, h.evaluator)
	if err != nil {
		respondError(w, r, err)
		return
	}

	items, err := h.inventory.ListLowStock(r.Context(), practiceID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, items)
}

// Adjust applies a stock delta with a reason
func (h *InventoryHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, services.NewValidationError("id", "invalid item id"))
		return
	}

	var input services.AdjustInput
	if err := decodeJSON(r, &input); err != nil {
		respondError(w, r, err)
		return
	}
	input.ItemID = id

	item, err := h.inventory.Adjust(r.Context(), input)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}
