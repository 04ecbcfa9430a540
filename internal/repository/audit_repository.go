package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/omnivet/vetpms/internal/models"
)

// AuditRepository handles audit log entries in the tenant database
type AuditRepository struct{}

// NewAuditRepository creates an audit repository
func NewAuditRepository() *AuditRepository {
	return &AuditRepository{}
}

// Create appends an audit log entry
func (r *AuditRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	db, err := tenantDB(ctx)
	if err != nil {
		return err
	}
	if err := db.Create(entry).Error; err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	return nil
}

// ListByPractice retrieves audit entries for a practice, newest first
func (r *AuditRepository) ListByPractice(ctx context.Context, practiceID uuid.UUID, limit, offset int) ([]models.AuditLog, error) {
	db, err := tenantDB(ctx)
	if err != nil {
		return nil, err
	}
	q := db.Where("practice_id = ?", practiceID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	var logs []models.AuditLog
	if err := q.Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return logs, nil
}
