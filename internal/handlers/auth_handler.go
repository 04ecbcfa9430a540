package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/omnivet/vetpms/internal/auth"
	"github.com/omnivet/vetpms/internal/rbac"
	"github.com/omnivet/vetpms/internal/repository"
	"github.com/omnivet/vetpms/internal/tenant"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// AuthHandler serves tenant-side login, logout and profile endpoints
type AuthHandler struct {
	users     *repository.UserRepository
	sessions  *auth.Sessions
	evaluator *rbac.Evaluator
}

// NewAuthHandler creates an auth handler
func NewAuthHandler(users *repository.UserRepository, sessions *auth.Sessions, evaluator *rbac.Evaluator) *AuthHandler {
	return &AuthHandler{users: users, sessions: sessions, evaluator: evaluator}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login checks credentials and opens a session. Bad credentials and
// unknown emails get the same answer.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	user, err := h.users.ByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(w, r, auth.ErrUnauthenticated)
			return
		}
		respondError(w, r, err)
		return
	}
	if !user.IsActive || auth.CheckPassword(user.PasswordHash, req.Password) != nil {
		respondError(w, r, auth.ErrUnauthenticated)
		return
	}

	sess, err := h.sessions.Create(r.Context(), user.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	http.SetCookie(w, h.sessions.Cookie(sess))
	log.Info().Str("user_id", user.ID.String()).Msg("User logged in")
	respondJSON(w, http.StatusOK, user)
}

// Logout revokes the session and expires the cookie
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(auth.SessionCookie); err == nil && c.Value != "" {
		if err := h.sessions.Revoke(r.Context(), c.Value); err != nil {
			log.Warn().Err(err).Msg("Failed to revoke session")
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   true,
	})
	respondJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// Me returns the authenticated user with their accessible practices
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := tenant.UserFromContext(r.Context())
	if user == nil {
		respondError(w, r, auth.ErrUnauthenticated)
		return
	}

	practices, err := h.evaluator.AccessiblePractices(r.Context(), user)
	if err != nil {
		respondError(w, r, err)
		return
	}
	canSwitch, err := h.evaluator.CanSwitchPractices(r.Context(), user)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"user":                 user,
		"accessible_practices": practices,
		"can_switch_practices": canSwitch,
	})
}
