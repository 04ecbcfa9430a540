package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/omnivet/vetpms/internal/services"
)

// MedicalHandler serves the SOAP note endpoints
type MedicalHandler struct {
	medical *services.MedicalService
}

// NewMedicalHandler creates a medical records handler
func NewMedicalHandler(medical *services.MedicalService) *MedicalHandler {
	return &MedicalHandler{medical: medical}
}

// CreateNote records a SOAP note
func (h *MedicalHandler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var input services.CreateNoteInput
	if err := decodeJSON(r, &input); err != nil {
		respondError(w, r, err)
		return
	}

	note, err := h.medical.CreateNote(r.Context(), input)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, note)
}

// ListByPatient returns a patient's notes
func (h *MedicalHandler) ListByPatient(w http.ResponseWriter, r *http.Request) {
	patientID, err := uuid.Parse(chi.URLParam(r, "patientID"))
	if err != nil {
		respondError(w, r, services.NewValidationError("patient_id", "invalid patient id"))
		return
	}

	notes, err := h.medical.ListByPatient(r.Context(), patientID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, notes)
}

// UpdateNote edits an unsigned note
func (h *MedicalHandler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, services.NewValidationError("id", "invalid note id"))
		return
	}

	var input services.CreateNoteInput
	if err := decodeJSON(r, &input); err != nil {
		respondError(w, r, err)
		return
	}

	note, err := h.medical.UpdateNote(r.Context(), id, input)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, note)
}

// SignNote locks a note against further edits
func (h *MedicalHandler) SignNote(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, services.NewValidationError("id", "invalid note id"))
		return
	}

	note, err := h.medical.SignNote(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, note)
}
