package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/omnivet/vetpms/internal/auth"
	"github.com/omnivet/vetpms/internal/models"
	"github.com/omnivet/vetpms/internal/repository"
	"github.com/omnivet/vetpms/internal/services"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// AdminHandler serves the owner portal: platform accounts provision
// and suspend tenants here. It talks to the owner database only.
type AdminHandler struct {
	tenants      *repository.TenantRepository
	provisioning *services.ProvisioningService
	tokens       *auth.OwnerTokens
}

// NewAdminHandler creates an owner portal handler
func NewAdminHandler(tenants *repository.TenantRepository, provisioning *services.ProvisioningService, tokens *auth.OwnerTokens) *AdminHandler {
	return &AdminHandler{tenants: tenants, provisioning: provisioning, tokens: tokens}
}

// Login exchanges owner credentials for a bearer token
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	owner, err := h.tenants.OwnerUserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(w, r, auth.ErrUnauthenticated)
			return
		}
		respondError(w, r, err)
		return
	}
	if auth.CheckPassword(owner.PasswordHash, req.Password) != nil {
		respondError(w, r, auth.ErrUnauthenticated)
		return
	}

	token, err := h.tokens.Sign(owner.ID.String(), owner.Email)
	if err != nil {
		respondError(w, r, err)
		return
	}

	log.Info().Str("owner_id", owner.ID.String()).Msg("Owner logged in")
	respondJSON(w, http.StatusOK, map[string]string{"token": token})
}

// ListTenants returns every tenant in the registry
func (h *AdminHandler) ListTenants(w http.ResponseWriter, r *http.Request) {
	tenants, err := h.provisioning.ListTenants(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, tenants)
}

// CreateTenant provisions a new tenant
func (h *AdminHandler) CreateTenant(w http.ResponseWriter, r *http.Request) {
	var input services.CreateTenantInput
	if err := decodeJSON(r, &input); err != nil {
		respondError(w, r, err)
		return
	}

	t, err := h.provisioning.CreateTenant(r.Context(), input)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, t)
}

type tenantStatusRequest struct {
	Status models.TenantStatus `json:"status"`
}

// SetTenantStatus activates or suspends a tenant
func (h *AdminHandler) SetTenantStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, services.NewValidationError("id", "invalid tenant id"))
		return
	}

	var req tenantStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if req.Status != models.TenantStatusActive && req.Status != models.TenantStatusSuspended {
		respondError(w, r, services.NewValidationError("status", "must be active or suspended"))
		return
	}

	if err := h.provisioning.SetTenantStatus(r.Context(), id, req.Status); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": string(req.Status)})
}
