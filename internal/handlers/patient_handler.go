package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/omnivet/vetpms/internal/models"
	"github.com/omnivet/vetpms/internal/repository"
	"github.com/omnivet/vetpms/internal/services"
)

// PatientHandler serves client (pet owner) and patient (animal) endpoints
type PatientHandler struct {
	patients *repository.PatientRepository
}

// NewPatientHandler creates a patient handler
func NewPatientHandler(patients *repository.PatientRepository) *PatientHandler {
	return &PatientHandler{patients: patients}
}

// CreateClient registers a pet owner
func (h *PatientHandler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var c models.Client
	if err := decodeJSON(r, &c); err != nil {
		respondError(w, r, err)
		return
	}
	if strings.TrimSpace(c.FirstName) == "" || strings.TrimSpace(c.LastName) == "" {
		respondError(w, r, services.NewValidationError("name", "first and last name are required"))
		return
	}

	c.ID = uuid.Nil
	if err := h.patients.CreateClient(r.Context(), &c); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, c)
}

// GetClient retrieves a pet owner
func (h *PatientHandler) GetClient(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, services.NewValidationError("id", "invalid client id"))
		return
	}

	c, err := h.patients.GetClient(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

// CreatePatient registers an animal under a client
func (h *PatientHandler) CreatePatient(w http.ResponseWriter, r *http.Request) {
	var p models.Patient
	if err := decodeJSON(r, &p); err != nil {
		respondError(w, r, err)
		return
	}
	verr := &services.ValidationError{}
	if p.ClientID == uuid.Nil {
		verr.Add("client_id", "is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		verr.Add("name", "is required")
	}
	if strings.TrimSpace(p.Species) == "" {
		verr.Add("species", "is required")
	}
	if len(verr.Fields) > 0 {
		respondError(w, r, verr)
		return
	}

	p.ID = uuid.Nil
	if err := h.patients.CreatePatient(r.Context(), &p); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, p)
}

// GetPatient retrieves an animal
func (h *PatientHandler) GetPatient(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, services.NewValidationError("id", "invalid patient id"))
		return
	}

	p, err := h.patients.GetPatient(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// ListPatientsByClient returns a client's animals
func (h *PatientHandler) ListPatientsByClient(w http.ResponseWriter, r *http.Request) {
	clientID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, services.NewValidationError("id", "invalid client id"))
		return
	}

	patients, err := h.patients.ListPatientsByClient(r.Context(), clientID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, patients)
}
