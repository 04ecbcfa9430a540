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

// taxRateBasisPoints is the flat tax applied to invoice subtotals.
// TODO: move to per-practice configuration once the settings surface exists.
const taxRateBasisPoints = 700

// BillingService handles invoicing business logic
type BillingService struct {
	billing  *repository.BillingRepository
	audit    *repository.AuditRepository
	notifier Notifier
}

// NewBillingService creates a billing service
func NewBillingService(billing *repository.BillingRepository, audit *repository.AuditRepository, notifier Notifier) *BillingService {
	return &BillingService{billing: billing, audit: audit, notifier: notifier}
}

// InvoiceItemInput is one requested invoice line
type InvoiceItemInput struct {
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	UnitPrice   int64  `json:"unit_price"`
}

// CreateInvoiceInput is the payload for creating an invoice
type CreateInvoiceInput struct {
	PracticeID uuid.UUID          `json:"practice_id"`
	ClientID   uuid.UUID          `json:"client_id"`
	Items      []InvoiceItemInput `json:"items"`
}

// CreateInvoice builds an invoice with server-computed totals
func (s *BillingService) CreateInvoice(ctx context.Context, input CreateInvoiceInput) (*models.Invoice, error) {
	verr := &ValidationError{}
	if input.PracticeID == uuid.Nil {
		verr.Add("practice_id", "is required")
	}
	if input.ClientID == uuid.Nil {
		verr.Add("client_id", "is required")
	}
	if len(input.Items) == 0 {
		verr.Add("items", "at least one line item is required")
	}
	for _, item := range input.Items {
		if strings.TrimSpace(item.Description) == "" {
			verr.Add("items", "line item description is required")
		}
		if item.Quantity <= 0 {
			verr.Add("items", "line item quantity must be positive")
		}
		if item.UnitPrice < 0 {
			verr.Add("items", "line item unit price must not be negative")
		}
	}
	if len(verr.Fields) > 0 {
		return nil, verr
	}

	inv := &models.Invoice{
		PracticeID: input.PracticeID,
		ClientID:   input.ClientID,
		Status:     models.InvoiceStatusIssued,
	}
	for _, item := range input.Items {
		amount := int64(item.Quantity) * item.UnitPrice
		inv.Items = append(inv.Items, models.InvoiceItem{
			Description: strings.TrimSpace(item.Description),
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Amount:      amount,
		})
		inv.Subtotal += amount
	}
	inv.Tax = inv.Subtotal * taxRateBasisPoints / 10000
	inv.Total = inv.Subtotal + inv.Tax

	if err := s.billing.CreateInvoice(ctx, inv); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, inv.PracticeID, "invoice.create", inv.ID.String())
	s.notifier.Broadcast(tenant.IDFromContext(ctx), "invoice.created", inv)
	return inv, nil
}

// GetInvoice retrieves an invoice with its items
func (s *BillingService) GetInvoice(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	return s.billing.GetInvoice(ctx, id)
}

// ListByPractice returns a practice's invoices
func (s *BillingService) ListByPractice(ctx context.Context, practiceID uuid.UUID, limit, offset int) ([]models.Invoice, error) {
	return s.billing.ListByPractice(ctx, practiceID, limit, offset)
}

// RecordPaymentInput is the payload for applying a payment
type RecordPaymentInput struct {
	InvoiceID uuid.UUID `json:"invoice_id"`
	Amount    int64     `json:"amount"`
	Method    string    `json:"method"`
}

// RecordPayment applies a payment against an invoice
func (s *BillingService) RecordPayment(ctx context.Context, input RecordPaymentInput) (*models.Invoice, error) {
	verr := &ValidationError{}
	if input.InvoiceID == uuid.Nil {
		verr.Add("invoice_id", "is required")
	}
	if input.Amount <= 0 {
		verr.Add("amount", "must be positive")
	}
	if strings.TrimSpace(input.Method) == "" {
		verr.Add("method", "is required")
	}
	if len(verr.Fields) > 0 {
		return nil, verr
	}

	payment := &models.Payment{
		InvoiceID:  input.InvoiceID,
		Amount:     input.Amount,
		Method:     strings.TrimSpace(input.Method),
		ReceivedAt: time.Now().UTC(),
	}
	inv, err := s.billing.RecordPayment(ctx, payment)
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, inv.PracticeID, "invoice.payment", inv.ID.String())
	return inv, nil
}

func (s *BillingService) recordAudit(ctx context.Context, practiceID uuid.UUID, action, resourceID string) {
	entry := &models.AuditLog{
		PracticeID:   practiceID,
		Action:       action,
		ResourceType: "invoice",
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
