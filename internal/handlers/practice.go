package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/omnivet/vetpms/internal/auth"
	"github.com/omnivet/vetpms/internal/rbac"
	"github.com/omnivet/vetpms/internal/services"
	"github.com/omnivet/vetpms/internal/tenant"
)

// practiceScope resolves which practice a list request may read.
// Without a practice_id parameter the user's home practice is used;
// an explicit parameter must name a practice the user can access, so
// a read grant on the resource never widens into cross-practice reads.
func practiceScope(r *http.Request, evaluator *rbac.Evaluator) (uuid.UUID, error) {
	user := tenant.UserFromContext(r.Context())
	if user == nil {
		return uuid.Nil, auth.ErrUnauthenticated
	}

	raw := r.URL.Query().Get("practice_id")
	if raw == "" {
		if user.PracticeID == nil {
			return uuid.Nil, services.NewValidationError("practice_id", "is required")
		}
		return *user.PracticeID, nil
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, services.NewValidationError("practice_id", "invalid practice id")
	}
	if evaluator.IsSuperAdmin(user) {
		return id, nil
	}

	accessible, err := evaluator.AccessiblePractices(r.Context(), user)
	if err != nil {
		return uuid.Nil, err
	}
	for _, pid := range accessible {
		if pid == id {
			return id, nil
		}
	}
	return uuid.Nil, rbac.ErrPermissionDenied
}
