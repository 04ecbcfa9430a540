package middleware

import (
	"net/http"

	"github.com/omnivet/vetpms/internal/rbac"
	"github.com/omnivet/vetpms/internal/tenant"
)

// RequirePermission denies the request unless the authenticated user is
// allowed to perform the action on the resource. Evaluation errors deny
// like any other failed check.
func RequirePermission(evaluator *rbac.Evaluator, resource rbac.Resource, action rbac.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := tenant.UserFromContext(r.Context())
			if user == nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if !evaluator.Check(r.Context(), user, resource, action).Allowed() {
				http.Error(w, "Access denied", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
