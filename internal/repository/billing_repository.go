package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/omnivet/vetpms/internal/models"
	"gorm.io/gorm"
)

// BillingRepository handles invoices and payments in the tenant database
type BillingRepository struct{}

// NewBillingRepository creates a billing repository
func NewBillingRepository() *BillingRepository {
	return &BillingRepository{}
}

// CreateInvoice inserts an invoice with its line items in one transaction
func (r *BillingRepository) CreateInvoice(ctx context.Context, inv *models.Invoice) error {
	db, err := tenantDB(ctx)
	if err != nil {
		return err
	}
	if err := db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(inv).Error
	}); err != nil {
		return fmt.Errorf("failed to create invoice: %w", err)
	}
	return nil
}

// GetInvoice retrieves an invoice with its items
func (r *BillingRepository) GetInvoice(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	db, err := tenantDB(ctx)
	if err != nil {
		return nil, err
	}
	var inv models.Invoice
	if err := db.Preload("Items").Where("id = ?", id).First(&inv).Error; err != nil {
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	return &inv, nil
}

// ListByPractice returns a practice's invoices, newest first
func (r *BillingRepository) ListByPractice(ctx context.Context, practiceID uuid.UUID, limit, offset int) ([]models.Invoice, error) {
	db, err := tenantDB(ctx)
	if err != nil {
		return nil, err
	}
	q := db.Preload("Items").
		Where("practice_id = ?", practiceID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	var invoices []models.Invoice
	if err := q.Find(&invoices).Error; err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	return invoices, nil
}

// ListByClient returns a client's invoices, newest first
func (r *BillingRepository) ListByClient(ctx context.Context, clientID uuid.UUID) ([]models.Invoice, error) {
	db, err := tenantDB(ctx)
	if err != nil {
		return nil, err
	}
	var invoices []models.Invoice
	if err := db.Preload("Items").
		Where("client_id = ?", clientID).
		Order("created_at DESC").
		Find(&invoices).Error; err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	return invoices, nil
}

// RecordPayment applies a payment and advances the invoice status in
// one transaction.
func (r *BillingRepository) RecordPayment(ctx context.Context, p *models.Payment) (*models.Invoice, error) {
	db, err := tenantDB(ctx)
	if err != nil {
		return nil, err
	}

	var inv models.Invoice
	if err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", p.InvoiceID).First(&inv).Error; err != nil {
			return err
		}
		if err := tx.Create(p).Error; err != nil {
			return err
		}

		inv.AmountPaid += p.Amount
		switch {
		case inv.AmountPaid >= inv.Total:
			inv.Status = models.InvoiceStatusPaid
		case inv.AmountPaid > 0:
			inv.Status = models.InvoiceStatusPartial
		}
		return tx.Save(&inv).Error
	}); err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}
	return &inv, nil
}

// UpdateStatus transitions an invoice's status
func (r *BillingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.InvoiceStatus) error {
	db, err := tenantDB(ctx)
	if err != nil {
		return err
	}
	res := db.Model(&models.Invoice{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("failed to update invoice status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
