package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/omnivet/vetpms/internal/models"
	"gorm.io/gorm"
)

// MedicalRepository handles SOAP notes in the tenant database
type MedicalRepository struct{}

// NewMedicalRepository creates a medical records repository
func NewMedicalRepository() *MedicalRepository {
	return &MedicalRepository{}
}

// CreateNote inserts a SOAP note
func (r *MedicalRepository) CreateNote(ctx context.Context, n *models.SOAPNote) error {
	db, err := tenantDB(ctx)
	if err != nil {
		return err
	}
	if err := db.Create(n).Error; err != nil {
		return fmt.Errorf("failed to create SOAP note: %w", err)
	}
	return nil
}

// GetNote retrieves a SOAP note
func (r *MedicalRepository) GetNote(ctx context.Context, id uuid.UUID) (*models.SOAPNote, error) {
	db, err := tenantDB(ctx)
	if err != nil {
		return nil, err
	}
	var n models.SOAPNote
	if err := db.Where("id = ?", id).First(&n).Error; err != nil {
		return nil, fmt.Errorf("failed to get SOAP note: %w", err)
	}
	return &n, nil
}

// ListByPatient returns a patient's notes, newest first
func (r *MedicalRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]models.SOAPNote, error) {
	db, err := tenantDB(ctx)
	if err != nil {
		return nil, err
	}
	var notes []models.SOAPNote
	if err := db.
		Where("patient_id = ?", patientID).
		Order("created_at DESC").
		Find(&notes).Error; err != nil {
		return nil, fmt.Errorf("failed to list SOAP notes: %w", err)
	}
	return notes, nil
}

// UpdateNote saves an unsigned note's content
func (r *MedicalRepository) UpdateNote(ctx context.Context, n *models.SOAPNote) error {
	db, err := tenantDB(ctx)
	if err != nil {
		return err
	}
	if err := db.Save(n).Error; err != nil {
		return fmt.Errorf("failed to update SOAP note: %w", err)
	}
	return nil
}

// SignNote locks a note at the given instant; signing is idempotent
// only in the sense that an already-signed note is left untouched.
func (r *MedicalRepository) SignNote(ctx context.Context, id uuid.UUID, at time.Time) error {
	db, err := tenantDB(ctx)
	if err != nil {
		return err
	}
	res := db.Model(&models.SOAPNote{}).
		Where("id = ? AND signed_at IS NULL", id).
		Update("signed_at", at)
	if res.Error != nil {
		return fmt.Errorf("failed to sign SOAP note: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
