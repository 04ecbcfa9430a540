package handlers

import (
	"net/http"
	"strconv"

	"github.com/omnivet/vetpms/internal/rbac"
	"github.com/omnivet/vetpms/internal/repository"
)

// AuditHandler serves read-only access to the audit trail
type AuditHandler struct {
	audit     *repository.AuditRepository
	evaluator *rbac.Evaluator
}

// NewAuditHandler creates an audit handler
func NewAuditHandler(audit *repository.AuditRepository, evaluator *rbac.Evaluator) *AuditHandler {
	return &AuditHandler{audit: audit, evaluator: evaluator}
}

// List returns a practice's audit entries, newest first
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	practiceID, err := practiceScope(r, h.evaluator)
	if err != nil {
		respondError(w, r, err)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	logs, err := h.audit.ListByPractice(r.Context(), practiceID, limit, offset)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, logs)
}
