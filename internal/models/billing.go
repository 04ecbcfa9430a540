package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InvoiceStatus is the lifecycle state of an invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft   InvoiceStatus = "draft"
	InvoiceStatusIssued  InvoiceStatus = "issued"
	InvoiceStatusPaid    InvoiceStatus = "paid"
	InvoiceStatusVoided  InvoiceStatus = "voided"
	InvoiceStatusPartial InvoiceStatus = "partial"
)

// Invoice amounts are integer cents; totals are computed server-side
// from the line items, never trusted from the client.
type Invoice struct {
	ID         uuid.UUID     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	PracticeID uuid.UUID     `gorm:"type:uuid;not null;index" json:"practice_id"`
	ClientID   uuid.UUID     `gorm:"type:uuid;not null;index" json:"client_id"`
	Status     InvoiceStatus `gorm:"type:varchar(20);not null;default:'draft'" json:"status"`
	Subtotal   int64         `gorm:"not null;default:0" json:"subtotal"`
	Tax        int64         `gorm:"not null;default:0" json:"tax"`
	Total      int64         `gorm:"not null;default:0" json:"total"`
	AmountPaid int64         `gorm:"not null;default:0" json:"amount_paid"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`

	Items []InvoiceItem `gorm:"foreignKey:InvoiceID" json:"items,omitempty"`
}

// TableName overrides the table name
func (Invoice) TableName() string {
	return "invoices"
}

// BeforeCreate hook
func (i *Invoice) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// InvoiceItem is a single invoice line
type InvoiceItem struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	InvoiceID   uuid.UUID `gorm:"type:uuid;not null;index" json:"invoice_id"`
	Description string    `gorm:"type:varchar(255);not null" json:"description"`
	Quantity    int       `gorm:"not null;default:1" json:"quantity"`
	UnitPrice   int64     `gorm:"not null" json:"unit_price"`
	Amount      int64     `gorm:"not null" json:"amount"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName overrides the table name
func (InvoiceItem) TableName() string {
	return "invoice_items"
}

// BeforeCreate hook
func (i *InvoiceItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// Payment records money received against an invoice
type Payment struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	InvoiceID  uuid.UUID `gorm:"type:uuid;not null;index" json:"invoice_id"`
	Amount     int64     `gorm:"not null" json:"amount"`
	Method     string    `gorm:"type:varchar(30);not null" json:"method"`
	ReceivedAt time.Time `gorm:"not null" json:"received_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName overrides the table name
func (Payment) TableName() string {
	return "payments"
}

// BeforeCreate hook
func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
