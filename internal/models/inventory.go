package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InventoryItem is a stocked product or medication
type InventoryItem struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	PracticeID     uuid.UUID `gorm:"type:uuid;not null;index" json:"practice_id"`
	Name           string    `gorm:"type:varchar(255);not null" json:"name"`
	SKU            string    `gorm:"type:varchar(64);uniqueIndex" json:"sku"`
	QuantityOnHand int       `gorm:"not null;default:0" json:"quantity_on_hand"`
	ReorderPoint   int       `gorm:"not null;default:0" json:"reorder_point"`
	UnitPrice      int64     `gorm:"not null;default:0" json:"unit_price"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName overrides the table name
func (InventoryItem) TableName() string {
	return "inventory_items"
}

// BeforeCreate hook
func (i *InventoryItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// LowStock reports whether the item is at or below its reorder point
func (i *InventoryItem) LowStock() bool {
	return i.QuantityOnHand <= i.ReorderPoint
}

// StockAdjustment records a change to an item's on-hand quantity with
// a mandatory reason.
type StockAdjustment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ItemID    uuid.UUID `gorm:"type:uuid;not null;index" json:"item_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null" json:"user_id"`
	Delta     int       `gorm:"not null" json:"delta"`
	Reason    string    `gorm:"type:text;not null" json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName overrides the table name
func (StockAdjustment) TableName() string {
	return "stock_adjustments"
}

// BeforeCreate hook
func (s *StockAdjustment) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
