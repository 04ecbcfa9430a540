package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/omnivet/vetpms/internal/auth"
	"github.com/omnivet/vetpms/internal/tenant"
)

type contextKey string

const ownerClaimsKey contextKey = "ownerClaims"

// Authenticate resolves the session cookie to a user and attaches it to
// the context. Requests without a valid session get 401.
func Authenticate(sessions *auth.Sessions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := sessions.CurrentUser(r)
			if err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := tenant.WithUser(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OwnerAuth guards the owner portal with a bearer token
func OwnerAuth(tokens *auth.OwnerTokens) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := tokens.Verify(token)
			if err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ownerClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OwnerFromContext returns the verified owner claims, if any
func OwnerFromContext(ctx context.Context) (auth.OwnerClaims, bool) {
	claims, ok := ctx.Value(ownerClaimsKey).(auth.OwnerClaims)
	return claims, ok
}
