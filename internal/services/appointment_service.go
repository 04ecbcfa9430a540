package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/omnivet/vetpms/internal/models"
	"github.com/omnivet/vetpms/internal/repository"
	"github.com/omnivet/vetpms/internal/tenant"
	"github.com/rs/zerolog/log"
)

// Notifier pushes events to connected clients after successful
// mutations. Delivery is fire-and-forget.
type Notifier interface {
	Broadcast(tenantID uuid.UUID, eventType string, payload interface{})
}

// AppointmentService handles scheduling business logic
type AppointmentService struct {
	appointments *repository.AppointmentRepository
	audit        *repository.AuditRepository
	notifier     Notifier
}

// NewAppointmentService creates an appointment service
func NewAppointmentService(appointments *repository.AppointmentRepository, audit *repository.AuditRepository, notifier Notifier) *AppointmentService {
	return &AppointmentService{appointments: appointments, audit: audit, notifier: notifier}
}

// CreateAppointmentInput is the payload for scheduling a visit
type CreateAppointmentInput struct {
	PracticeID     uuid.UUID `json:"practice_id"`
	PatientID      uuid.UUID `json:"patient_id"`
	VeterinarianID uuid.UUID `json:"veterinarian_id"`
	StartsAt       time.Time `json:"starts_at"`
	EndsAt         time.Time `json:"ends_at"`
	Reason         string    `json:"reason"`
}

// Create schedules an appointment, rejecting veterinarian double-booking
func (s *AppointmentService) Create(ctx context.Context, input CreateAppointmentInput) (*models.Appointment, error) {
	verr := &ValidationError{}
	if input.PracticeID == uuid.Nil {
		verr.Add("practice_id", "is required")
	}
	if input.PatientID == uuid.Nil {
		verr.Add("patient_id", "is required")
	}
	if input.VeterinarianID == uuid.Nil {
		verr.Add("veterinarian_id", "is required")
	}
	if input.StartsAt.IsZero() || input.EndsAt.IsZero() || !input.EndsAt.After(input.StartsAt) {
		verr.Add("starts_at", "must be before ends_at")
	}
	if len(verr.Fields) > 0 {
		return nil, verr
	}

	overlapping, err := s.appointments.CountOverlapping(ctx, input.VeterinarianID, input.StartsAt, input.EndsAt)
	if err != nil {
		return nil, err
	}
	if overlapping > 0 {
		return nil, NewValidationError("starts_at", "veterinarian already booked in this window")
	}

	appt := &models.Appointment{
		PracticeID:     input.PracticeID,
		PatientID:      input.PatientID,
		VeterinarianID: input.VeterinarianID,
		StartsAt:       input.StartsAt,
		EndsAt:         input.EndsAt,
		Status:         models.AppointmentStatusScheduled,
		Reason:         input.Reason,
	}
	if err := s.appointments.Create(ctx, appt); err != nil {
		if errors.Is(err, repository.ErrAppointmentOverlap) {
			return nil, NewValidationError("starts_at", "veterinarian already booked in this window")
		}
		return nil, err
	}

	s.recordAudit(ctx, appt.PracticeID, "appointment.create", appt.ID.String())
	s.notifier.Broadcast(tenant.IDFromContext(ctx), "appointment.created", appt)
	return appt, nil
}

// List returns a practice's appointments inside a time window
func (s *AppointmentService) List(ctx context.Context, practiceID uuid.UUID, from, to time.Time) ([]models.Appointment, error) {
	if to.IsZero() {
		to = from.AddDate(0, 0, 7)
	}
	return s.appointments.ListByPractice(ctx, practiceID, from, to)
}

// UpdateStatus transitions an appointment through its lifecycle
func (s *AppointmentService) UpdateStatus(ctx context.Context, id uuid.UUID, status models.AppointmentStatus) (*models.Appointment, error) {
	switch status {
	case models.AppointmentStatusScheduled,
		models.AppointmentStatusCheckedIn,
		models.AppointmentStatusCompleted,
		models.AppointmentStatusCancelled,
		models.AppointmentStatusNoShow:
	default:
		return nil, NewValidationError("status", "unknown status")
	}

	if err := s.appointments.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	appt, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, appt.PracticeID, "appointment."+string(status), appt.ID.String())
	if status == models.AppointmentStatusCancelled {
		s.notifier.Broadcast(tenant.IDFromContext(ctx), "appointment.cancelled", appt)
	}
	return appt, nil
}

func (s *AppointmentService) recordAudit(ctx context.Context, practiceID uuid.UUID, action, resourceID string) {
	entry := &models.AuditLog{
		PracticeID:   practiceID,
		Action:       action,
		ResourceType: "appointment",
		ResourceID:   resourceID,
		Status:       "success",
	}
	if u := tenant.UserFromContext(ctx); u != nil {
		entry.UserID = u.ID
	}
	if err := s.audit.Create(ctx, entry); err != nil {
		log.Warn().Err(err).Str("action", action).Msg("Failed to write audit log")
	}
}
