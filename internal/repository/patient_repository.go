package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/omnivet/vetpms/internal/models"
)

// PatientRepository handles clients (owners) and patients (animals)
type PatientRepository struct{}

// NewPatientRepository creates a patient repository
func NewPatientRepository() *PatientRepository {
	return &PatientRepository{}
}

// CreateClient inserts a pet owner
func (r *PatientRepository) CreateClient(ctx context.Context, c *models.Client) error {
	db, err := tenantDB(ctx)
	if err != nil {
		return err
	}
	if err := db.Create(c).Error; err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	return nil
}

// GetClient retrieves a pet owner
func (r *PatientRepository) GetClient(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	db, err := tenantDB(ctx)
	if err != nil {
		return nil, err
	}
	var c models.Client
	if err := db.Where("id = ?", id).First(&c).Error; err != nil {
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	return &c, nil
}

// CreatePatient inserts an animal
func (r *PatientRepository) CreatePatient(ctx context.Context, p *models.Patient) error {
	db, err := tenantDB(ctx)
	if err != nil {
		return err
	}
	if err := db.Create(p).Error; err != nil {
		return fmt.Errorf("failed to create patient: %w", err)
	}
	return nil
}

// GetPatient retrieves an animal
func (r *PatientRepository) GetPatient(ctx context.Context, id uuid.UUID) (*models.Patient, error) {
	db, err := tenantDB(ctx)
	if err != nil {
		return nil, err
	}
	var p models.Patient
	if err := db.Where("id = ?", id).First(&p).Error; err != nil {
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return &p, nil
}

// ListPatientsByClient returns a client's animals
func (r *PatientRepository) ListPatientsByClient(ctx context.Context, clientID uuid.UUID) ([]models.Patient, error) {
	db, err := tenantDB(ctx)
	if err != nil {
		return nil, err
	}
	var patients []models.Patient
	if err := db.
		Where("client_id = ?", clientID).
		Order("name ASC").
		Find(&patients).Error; err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	return patients, nil
}
