package middleware

import (
	"errors"
	"net/http"

	"github.com/omnivet/vetpms/internal/tenant"
	"github.com/rs/zerolog/log"
)

// Tenant resolves the request to a tenant record and attaches the
// tenant's database handle to the context. Unknown subdomains get 404,
// an unreachable tenant database gets 503.
func Tenant(resolver *tenant.Resolver, manager *tenant.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t, err := resolver.FromRequest(r)
			if err != nil {
				if errors.Is(err, tenant.ErrTenantNotFound) {
					http.Error(w, "Tenant not found", http.StatusNotFound)
					return
				}
				log.Error().Err(err).Str("host", r.Host).Msg("Tenant resolution failed")
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}

			db, err := manager.Get(r.Context(), t)
			if err != nil {
				if errors.Is(err, tenant.ErrConnectionUnavailable) {
					http.Error(w, "Service temporarily unavailable", http.StatusServiceUnavailable)
					return
				}
				log.Error().Err(err).Str("tenant", t.ID.String()).Msg("Tenant database unavailable")
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}

			ctx := tenant.WithTenant(r.Context(), t)
			ctx = tenant.WithDB(ctx, db)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
