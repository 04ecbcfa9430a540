package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/omnivet/vetpms/internal/rbac"
	"github.com/omnivet/vetpms/internal/services"
)

// BillingHandler serves the invoicing endpoints
type BillingHandler struct {
	billing   *services.BillingService
	evaluator *rbac.Evaluator
}

// NewBillingHandler creates a billing handler
func NewBillingHandler(billing *services.BillingService, evaluator *rbac.Evaluator) *BillingHandler {
	return &BillingHandler{billing: billing, evaluator: evaluator}
}

// CreateInvoice creates an invoice with server-computed totals
func (h *BillingHandler) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	var input services.CreateInvoiceInput
	if err := decodeJSON(r, &input); err != nil {
		respondError(w, r, err)
		return
	}

	inv, err := h.billing.CreateInvoice(r.Context(), input)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, inv)
}

// GetInvoice retrieves an invoice with its items
func (h *BillingHandler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, services.NewValidationError("id", "invalid invoice id"))
		return
	}

	inv, err := h.billing.GetInvoice(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, inv)
}

// List returns a practice's invoices
func (h *BillingHandler) List(w http.ResponseWriter, r *http.Request) {
	practiceID, err := practiceScope(r, h.evaluator)
	if err != nil {
		respondError(w, r, err)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	invoices, err := h.billing.ListByPractice(r.Context(), practiceID, limit, offset)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, invoices)
}

// RecordPayment applies a payment against an invoice
func (h *BillingHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, services.NewValidationError("id", "invalid invoice id"))
		return
	}

	var input services.RecordPaymentInput
	if err := decodeJSON(r, &input); err != nil {
		respondError(w, r, err)
		return
	}
	input.InvoiceID = id

	inv, err := h.billing.RecordPayment(r.Context(), input)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, inv)
}
