package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/omnivet/vetpms/internal/models"
	"github.com/omnivet/vetpms/internal/repository"
	"github.com/omnivet/vetpms/internal/tenant"
	"github.com/rs/zerolog/log"
)

// MedicalService handles SOAP note business logic
type MedicalService struct {
	records *repository.MedicalRepository
	audit   *repository.AuditRepository
}

// NewMedicalService creates a medical records service
func NewMedicalService(records *repository.MedicalRepository, audit *repository.AuditRepository) *MedicalService {
	return &MedicalService{records: records, audit: audit}
}

// CreateNoteInput is the payload for a new SOAP note
type CreateNoteInput struct {
	PatientID  uuid.UUID `json:"patient_id"`
	Subjective string    `json:"subjective"`
	Objective  string    `json:"objective"`
	Assessment string    `json:"assessment"`
	Plan       string    `json:"plan"`
}

// CreateNote records a SOAP note authored by the current user
func (s *MedicalService) CreateNote(ctx context.Context, input CreateNoteInput) (*models.SOAPNote, error) {
	verr := &ValidationError{}
	if input.PatientID == uuid.Nil {
		verr.Add("patient_id", "is required")
	}
	if strings.TrimSpace(input.Subjective) == "" && strings.TrimSpace(input.Objective) == "" &&
		strings.TrimSpace(input.Assessment) == "" && strings.TrimSpace(input.Plan) == "" {
		verr.Add("note", "at least one SOAP section is required")
	}
	if len(verr.Fields) > 0 {
		return nil, verr
	}

	u := tenant.UserFromContext(ctx)
	if u == nil {
		return nil, NewValidationError("author", "no authenticated user")
	}

	note := &models.SOAPNote{
		PatientID:  input.PatientID,
		AuthorID:   u.ID,
		Subjective: input.Subjective,
		Objective:  input.Objective,
		Assessment: input.Assessment,
		Plan:       input.Plan,
	}
	if err := s.records.CreateNote(ctx, note); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, "soap_note.create", note.ID.String())
	return note, nil
}

// ListByPatient returns a patient's notes
func (s *MedicalService) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]models.SOAPNote, error) {
	return s.records.ListByPatient(ctx, patientID)
}

// UpdateNote edits an unsigned note. Signed notes are locked.
func (s *MedicalService) UpdateNote(ctx context.Context, id uuid.UUID, input CreateNoteInput) (*models.SOAPNote, error) {
	note, err := s.records.GetNote(ctx, id)
	if err != nil {
		return nil, err
	}
	if note.Signed() {
		return nil, NewValidationError("note", "signed notes cannot be edited")
	}

	note.Subjective = input.Subjective
	note.Objective = input.Objective
	note.Assessment = input.Assessment
	note.Plan = input.Plan
	if err := s.records.UpdateNote(ctx, note); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, "soap_note.update", note.ID.String())
	return note, nil
}

// SignNote locks a note against further edits
func (s *MedicalService) SignNote(ctx context.Context, id uuid.UUID) (*models.SOAPNote, error) {
	if err := s.records.SignNote(ctx, id, time.Now().UTC()); err != nil {
		return nil, err
	}
	note, err := s.records.GetNote(ctx, id)
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, "soap_note.sign", note.ID.String())
	return note, nil
}

func (s *MedicalService) recordAudit(ctx context.Context, action, resourceID string) {
	entry := &models.AuditLog{
		Action:       action,
		ResourceType: "soap_note",
		ResourceID:   resourceID,
		Status:       "success",
	}
	if u := tenant.UserFromContext(ctx); u != nil {
		entry.UserID = u.ID
		if u.PracticeID != nil {
			entry.PracticeID = *u.PracticeID
		}
	}
	if err := s.audit.Create(ctx, entry); err != nil {
		log.Warn().Err(err).Str("action", action).Msg("Failed to write audit log")
	}
}
