package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/omnivet/vetpms/internal/auth"
	"github.com/omnivet/vetpms/internal/rbac"
	"github.com/omnivet/vetpms/internal/services"
	"github.com/omnivet/vetpms/internal/tenant"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// respondError maps domain errors onto the HTTP surface. Anything
// unrecognized is logged and collapsed to a generic 500 so internals
// never leak to clients.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "Validation failed", Fields: verr.Fields})
	case errors.Is(err, tenant.ErrTenantNotFound):
		respondJSON(w, http.StatusNotFound, errorBody{Error: "Tenant not found"})
	case errors.Is(err, tenant.ErrConnectionUnavailable):
		respondJSON(w, http.StatusServiceUnavailable, errorBody{Error: "Service temporarily unavailable"})
	case errors.Is(err, auth.ErrUnauthenticated):
		respondJSON(w, http.StatusUnauthorized, errorBody{Error: "Unauthorized"})
	case errors.Is(err, rbac.ErrPermissionDenied):
		respondJSON(w, http.StatusForbidden, errorBody{Error: "Access denied"})
	case errors.Is(err, gorm.ErrRecordNotFound):
		respondJSON(w, http.StatusNotFound, errorBody{Error: "Not found"})
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
		respondJSON(w, http.StatusInternalServerError, errorBody{Error: "Internal Server Error"})
	}
}

func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return services.NewValidationError("body", "invalid JSON")
	}
	return nil
}
