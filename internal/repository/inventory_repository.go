package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/omnivet/vetpms/internal/models"
	"gorm.io/gorm"
)

// InventoryRepository handles stock items in the tenant database
type InventoryRepository struct{}

// NewInventoryRepository creates an inventory repository
func NewInventoryRepository() *InventoryRepository {
	return &InventoryRepository{}
}

// Create inserts an inventory item
func (r *InventoryRepository) Create(ctx context.Context, item *models.InventoryItem) error {
	db, err := tenantDB(ctx)
	if err != nil {
		return err
	}
	if err := db.Create(item).Error; err != nil {
		return fmt.Errorf("failed to create inventory item: %w", err)
	}
	return nil
}

// GetByID retrieves an inventory item
func (r *InventoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error) {
	db, err := tenantDB(ctx)
	if err != nil {
		return nil, err
	}
	var item models.InventoryItem
	if err := db.Where("id = ?", id).First(&item).Error; err != nil {
		return nil, fmt.Errorf("failed to get inventory item: %w", err)
	}
	return &item, nil
}

// ListByPractice returns a practice's items
func (r *InventoryRepository) ListByPractice(ctx context.Context, practiceID uuid.UUID) ([]models.InventoryItem, error) {
	db, err := tenantDB(ctx)
	if err != nil {
		return nil, err
	}
	var items []models.InventoryItem
	if err := db.
		Where("practice_id = ?", practiceID).
		Order("name ASC").
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list inventory items: %w", err)
	}
	return items, nil
}

// ListLowStock returns items at or below their reorder point
func (r *InventoryRepository) ListLowStock(ctx context.Context, practiceID uuid.UUID) ([]models.InventoryItem, error) {
	db, err := tenantDB(ctx)
	if err != nil {
		return nil, err
	}
	var items []models.InventoryItem
	if err := db.
		Where("practice_id = ? AND quantity_on_hand <= reorder_point", practiceID).
		Order("name ASC").
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list low stock items: %w", err)
	}
	return items, nil
}

// Adjust applies a stock delta and records the adjustment in one
// transaction. The delta may not take quantity below zero.
func (r *InventoryRepository) Adjust(ctx context.Context, adj *models.StockAdjustment) (*models.InventoryItem, error) {
	db, err := tenantDB(ctx)
	if err != nil {
		return nil, err
	}

	var item models.InventoryItem
	if err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", adj.ItemID).First(&item).Error; err != nil {
			return err
		}
		if item.QuantityOnHand+adj.Delta < 0 {
			return fmt.Errorf("adjustment would take quantity below zero")
		}
		if err := tx.Create(adj).Error; err != nil {
			return err
		}
		item.QuantityOnHand += adj.Delta
		return tx.Save(&item).Error
	}); err != nil {
		return nil, fmt.Errorf("failed to adjust stock: %w", err)
	}
	return &item, nil
}
