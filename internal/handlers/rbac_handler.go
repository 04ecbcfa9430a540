package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/omnivet/vetpms/internal/models"
	"github.com/omnivet/vetpms/internal/rbac"
	"github.com/omnivet/vetpms/internal/repository"
	"github.com/omnivet/vetpms/internal/services"
	"github.com/rs/zerolog/log"
)

// RBACHandler serves dynamic role, category and override administration
type RBACHandler struct {
	store *repository.RBACRepository
}

// NewRBACHandler creates an RBAC admin handler
func NewRBACHandler(store *repository.RBACRepository) *RBACHandler {
	return &RBACHandler{store: store}
}

type roleRequest struct {
	PracticeID  *uuid.UUID `json:"practice_id,omitempty"`
	CategoryID  *uuid.UUID `json:"category_id,omitempty"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Permissions []string   `json:"permissions"`
	IsActive    *bool      `json:"is_active,omitempty"`
}

func (req *roleRequest) validate() ([]string, error) {
	verr := &services.ValidationError{}
	if strings.TrimSpace(req.Name) == "" {
		verr.Add("name", "is required")
	}
	perms, malformed := rbac.ParseAll(req.Permissions)
	if len(malformed) > 0 {
		verr.Add("permissions", "unknown entries: "+strings.Join(malformed, ", "))
	}
	if len(verr.Fields) > 0 {
		return nil, verr
	}

	canonical := make([]string, 0, len(perms))
	for _, p := range perms {
		canonical = append(canonical, p.String())
	}
	return canonical, nil
}

// CreateRole creates a dynamic role. Permission entries are validated
// against the known resource and action vocabulary before storage.
func (h *RBACHandler) CreateRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	perms, err := req.validate()
	if err != nil {
		respondError(w, r, err)
		return
	}

	role := &models.DynamicRole{
		PracticeID:  req.PracticeID,
		CategoryID:  req.CategoryID,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Permissions: models.StringList(perms),
		IsActive:    true,
	}
	if err := h.store.CreateRole(r.Context(), role); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, role)
}

// UpdateRole replaces a dynamic role's definition
func (h *RBACHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, services.NewValidationError("id", "invalid role id"))
		return
	}

	var req roleRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	perms, err := req.validate()
	if err != nil {
		respondError(w, r, err)
		return
	}

	role, err := h.store.GetRole(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	role.Name = strings.TrimSpace(req.Name)
	role.Description = req.Description
	role.CategoryID = req.CategoryID
	role.Permissions = models.StringList(perms)
	if req.IsActive != nil {
		role.IsActive = *req.IsActive
	}
	if err := h.store.UpdateRole(r.Context(), role); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, role)
}

// ListRoles returns dynamic roles, optionally filtered by practice
func (h *RBACHandler) ListRoles(w http.ResponseWriter, r *http.Request) {
	var practiceID *uuid.UUID
	if raw := r.URL.Query().Get("practice_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondError(w, r, services.NewValidationError("practice_id", "invalid practice id"))
			return
		}
		practiceID = &id
	}

	roles, err := h.store.ListRoles(r.Context(), practiceID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, roles)
}

// DeleteRole removes a dynamic role
func (h *RBACHandler) DeleteRole(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, services.NewValidationError("id", "invalid role id"))
		return
	}

	if err := h.store.DeleteRole(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type categoryRequest struct {
	Name string `json:"name"`
}

// CreateCategory creates a role category
func (h *RBACHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		respondError(w, r, services.NewValidationError("name", "is required"))
		return
	}

	cat := &models.RoleCategory{Name: strings.TrimSpace(req.Name), IsActive: true}
	if err := h.store.CreateCategory(r.Context(), cat); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, cat)
}

// ListCategories returns all role categories
func (h *RBACHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.store.ListCategories(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, cats)
}

type categoryActiveRequest struct {
	IsActive bool `json:"is_active"`
}

// SetCategoryActive toggles a category; deactivation disables every
// role in the category for subsequent checks.
func (h *RBACHandler) SetCategoryActive(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, services.NewValidationError("id", "invalid category id"))
		return
	}

	var req categoryActiveRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	if err := h.store.SetCategoryActive(r.Context(), id, req.IsActive); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"is_active": req.IsActive})
}

type overrideRequest struct {
	UserID    uuid.UUID  `json:"user_id"`
	Resource  string     `json:"resource"`
	Action    string     `json:"action"`
	Granted   bool       `json:"granted"`
	Reason    string     `json:"reason"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// CreateOverride records a time-bounded permission override. A new
// override for the same pair takes precedence over older ones.
func (h *RBACHandler) CreateOverride(w http.ResponseWriter, r *http.Request) {
	var req overrideRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	verr := &services.ValidationError{}
	if req.UserID == uuid.Nil {
		verr.Add("user_id", "is required")
	}
	if strings.TrimSpace(req.Reason) == "" {
		verr.Add("reason", "is required")
	}
	perm, err := rbac.Parse(req.Resource + ":" + req.Action)
	if err != nil {
		verr.Add("permission", err.Error())
	}
	if req.ExpiresAt != nil && !req.ExpiresAt.After(time.Now()) {
		verr.Add("expires_at", "must be in the future")
	}
	if len(verr.Fields) > 0 {
		respondError(w, r, verr)
		return
	}

	o := &models.PermissionOverride{
		UserID:    req.UserID,
		Resource:  string(perm.Resource),
		Action:    string(perm.Action),
		Granted:   req.Granted,
		Reason:    strings.TrimSpace(req.Reason),
		ExpiresAt: req.ExpiresAt,
		Status:    models.OverrideStatusActive,
	}
	if err := h.store.CreateOverride(r.Context(), o); err != nil {
		respondError(w, r, err)
		return
	}

	log.Info().
		Str("user_id", o.UserID.String()).
		Str("resource", o.Resource).
		Str("action", o.Action).
		Bool("granted", o.Granted).
		Msg("Permission override created")
	respondJSON(w, http.StatusCreated, o)
}

// RevokeOverride terminates an active override. Revocation is terminal.
func (h *RBACHandler) RevokeOverride(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, services.NewValidationError("id", "invalid override id"))
		return
	}

	if err := h.store.RevokeOverride(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "revoked"})
}

// ListOverrides returns a user's overrides, newest first
func (h *RBACHandler) ListOverrides(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		respondError(w, r, services.NewValidationError("user_id", "invalid user id"))
		return
	}

	overrides, err := h.store.ListOverrides(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, overrides)
}
