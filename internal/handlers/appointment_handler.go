package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/omnivet/vetpms/internal/models"
	"github.com/omnivet/vetpms/internal/rbac"
	"github.com/omnivet/vetpms/internal/services"
)

// AppointmentHandler serves the scheduling endpoints
type AppointmentHandler struct {
	appointments *services.AppointmentService
	evaluator    *rbac.Evaluator
}

// NewAppointmentHandler creates an appointment handler
func NewAppointmentHandler(appointments *services.AppointmentService, evaluator *rbac.Evaluator) *AppointmentHandler {
	return &AppointmentHandler{appointments: appointments, evaluator: evaluator}
}

// Create schedules an appointment
func (h *AppointmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input services.CreateAppointmentInput
	if err := decodeJSON(r, &input); err != nil {
		respondError(w, r, err)
		return
	}

	appt, err := h.appointments.Create(r.Context(), input)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, appt)
}

// List returns a practice's appointments in a time window. The window
// defaults to the next seven days.
func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request) {
	practiceID, err := practiceScope(r, h.evaluator)
	if err != nil {
		respondError(w, r, err)
		return
	}

	from := time.Now().UTC()
	if raw := r.URL.Query().Get("from"); raw != "" {
		if from, err = time.Parse(time.RFC3339, raw); err != nil {
			respondError(w, r, services.NewValidationError("from", "must be RFC 3339"))
			return
		}
	}
	var to time.Time
	if raw := r.URL.Query().Get("to"); raw != "" {
		if to, err = time.Parse(time.RFC3339, raw); err != nil {
			respondError(w, r, services.NewValidationError("to", "must be RFC 3339"))
			return
		}
	}

	appts, err := h.appointments.List(r.Context(), practiceID, from, to)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, appts)
}

type appointmentStatusRequest struct {
	Status models.AppointmentStatus `json:"status"`
}

// UpdateStatus transitions an appointment through its lifecycle
func (h *AppointmentHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, services.NewValidationError("id", "invalid appointment id"))
		return
	}

	var req appointmentStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	appt, err := h.appointments.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, appt)
}
