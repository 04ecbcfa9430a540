package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/omnivet/vetpms/internal/models"
	"gorm.io/gorm"
)

// ErrAppointmentOverlap reports a veterinarian double-booking rejected
// by the appointments exclusion constraint.
var ErrAppointmentOverlap = errors.New("appointment overlaps an existing booking")

const overlapConstraint = "appointments_no_vet_overlap"

// isOverlapViolation matches the exclusion violation raised by the
// overlap constraint; other database errors pass through unchanged.
func isOverlapViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) &&
		pgErr.Code == "23P01" &&
		pgErr.ConstraintName == overlapConstraint
}

// AppointmentRepository handles appointment rows in the tenant database
type AppointmentRepository struct{}

// NewAppointmentRepository creates an appointment repository
func NewAppointmentRepository() *AppointmentRepository {
	return &AppointmentRepository{}
}

// Create inserts an appointment. The exclusion constraint is the
// authoritative double-booking guard: two interleaved creates can both
// pass the overlap count, but only one insert survives.
func (r *AppointmentRepository) Create(ctx context.Context, a *models.Appointment) error {
	db, err := tenantDB(ctx)
	if err != nil {
		return err
	}
	if err := db.Create(a).Error; err != nil {
		if isOverlapViolation(err) {
			return ErrAppointmentOverlap
		}
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

// GetByID retrieves an appointment
func (r *AppointmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Appointment, error) {
	db, err := tenantDB(ctx)
	if err != nil {
		return nil, err
	}
	var a models.Appointment
	if err := db.Where("id = ?", id).First(&a).Error; err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &a, nil
}

// ListByPractice returns appointments for a practice in a time window
func (r *AppointmentRepository) ListByPractice(ctx context.Context, practiceID uuid.UUID, from, to time.Time) ([]models.Appointment, error) {
	db, err := tenantDB(ctx)
	if err != nil {
		return nil, err
	}
	var appts []models.Appointment
	if err := db.
		Where("practice_id = ? AND starts_at >= ? AND starts_at < ?", practiceID, from, to).
		Order("starts_at ASC").
		Find(&appts).Error; err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appts, nil
}

// CountOverlapping counts non-cancelled appointments for a veterinarian
// that overlap [startsAt, endsAt).
func (r *AppointmentRepository) CountOverlapping(ctx context.Context, vetID uuid.UUID, startsAt, endsAt time.Time) (int64, error) {
	db, err := tenantDB(ctx)
	if err != nil {
		return 0, err
	}
	var count int64
	if err := db.
		Model(&models.Appointment{}).
		Where("veterinarian_id = ? AND status NOT IN ? AND starts_at < ? AND ends_at > ?",
			vetID,
			[]models.AppointmentStatus{models.AppointmentStatusCancelled, models.AppointmentStatusNoShow},
			endsAt, startsAt).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count overlapping appointments: %w", err)
	}
	return count, nil
}

// UpdateStatus transitions an appointment's status
func (r *AppointmentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.AppointmentStatus) error {
	db, err := tenantDB(ctx)
	if err != nil {
		return err
	}
	res := db.Model(&models.Appointment{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("failed to update appointment status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
