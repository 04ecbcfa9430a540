package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/omnivet/vetpms/internal/models"
	"github.com/omnivet/vetpms/internal/repository"
	"github.com/omnivet/vetpms/internal/tenant"
	"github.com/rs/zerolog/log"
)

// InventoryService handles stock management business logic
type InventoryService struct {
	inventory *repository.InventoryRepository
	audit     *repository.AuditRepository
}

// NewInventoryService creates an inventory service
func NewInventoryService(inventory *repository.InventoryRepository, audit *repository.AuditRepository) *InventoryService {
	return &InventoryService{inventory: inventory, audit: audit}
}

// CreateItemInput is the payload for adding a stocked item
type CreateItemInput struct {
	PracticeID   uuid.UUID `json:"practice_id"`
	Name         string    `json:"name"`
	SKU          string    `json:"sku"`
	ReorderPoint int       `json:"reorder_point"`
	UnitPrice    int64     `json:"unit_price"`
}

// CreateItem adds an inventory item
func (s *InventoryService) CreateItem(ctx context.Context, input CreateItemInput) (*models.InventoryItem, error) {
	verr := &ValidationError{}
	if input.PracticeID == uuid.Nil {
		verr.Add("practice_id", "is required")
	}
	if strings.TrimSpace(input.Name) == "" {
		verr.Add("name", "is required")
	}
	if input.ReorderPoint < 0 {
		verr.Add("reorder_point", "must not be negative")
	}
	if len(verr.Fields) > 0 {
		return nil, verr
	}

	item := &models.InventoryItem{
		PracticeID:   input.PracticeID,
		Name:         strings.TrimSpace(input.Name),
		SKU:          strings.TrimSpace(input.SKU),
		ReorderPoint: input.ReorderPoint,
		UnitPrice:    input.UnitPrice,
	}
	if err := s.inventory.Create(ctx, item); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, item.PracticeID, "inventory.create", item.ID.String())
	return item, nil
}

// List returns a practice's items
func (s *InventoryService) List(ctx context.Context, practiceID uuid.UUID) ([]models.InventoryItem, error) {
	return s.inventory.ListByPractice(ctx, practiceID)
}

// ListLowStock returns items at or below their reorder point
func (s *InventoryService) ListLowStock(ctx context.Context, practiceID uuid.UUID) ([]models.InventoryItem, error) {
	return s.inventory.ListLowStock(ctx, practiceID)
}

// AdjustInput is the payload for a stock adjustment
type AdjustInput struct {
	ItemID uuid.UUID `json:"item_id"`
	Delta  int       `json:"delta"`
	Reason string    `json:"reason"`
}

// Adjust applies a stock delta with a mandatory reason
func (s *InventoryService) Adjust(ctx context.Context, input AdjustInput) (*models.InventoryItem, error) {
	verr := &ValidationError{}
	if input.ItemID == uuid.Nil {
		verr.Add("item_id", "is required")
	}
	if input.Delta == 0 {
		verr.Add("delta", "must not be zero")
	}
	if strings.TrimSpace(input.Reason) == "" {
		verr.Add("reason", "is required")
	}
	if len(verr.Fields) > 0 {
		return nil, verr
	}

	adj := &models.StockAdjustment{
		ItemID: input.ItemID,
		Delta:  input.Delta,
		Reason: strings.TrimSpace(input.Reason),
	}
	if u := tenant.UserFromContext(ctx); u != nil {
		adj.UserID = u.ID
	}

	item, err := s.inventory.Adjust(ctx, adj)
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, item.PracticeID, "inventory.adjust", item.ID.String())
	return item, nil
}

func (s *InventoryService) recordAudit(ctx context.Context, practiceID uuid.UUID, action, resourceID string) {
	entry := &models.AuditLog{
		PracticeID:   practiceID,
		Action:       action,
		ResourceType: "inventory_item",
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
