package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TenantStatus is the lifecycle state of a tenant record
type TenantStatus string

const (
	TenantStatusActive    TenantStatus = "active"
	TenantStatusSuspended TenantStatus = "suspended"
)

// Tenant is one practice's isolated data partition, stored in the
// owner (platform) database. Tenants are soft-deactivated, never
// hard-deleted while referenced data exists.
type Tenant struct {
	ID        uuid.UUID    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Subdomain string       `gorm:"type:varchar(63);uniqueIndex;not null" json:"subdomain"`
	Name      string       `gorm:"type:varchar(255);not null" json:"name"`
	DBName    string       `gorm:"type:varchar(63);not null" json:"db_name"`
	DSN       string       `gorm:"type:text;not null" json:"-"`
	Status    TenantStatus `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// TableName overrides the table name
func (Tenant) TableName() string {
	return "tenants"
}

// BeforeCreate hook
func (t *Tenant) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// IsActive reports whether the tenant may serve requests
func (t *Tenant) IsActive() bool {
	return t.Status == TenantStatusActive
}

// OwnerUser is a platform-owner account, stored in the owner database
type OwnerUser struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"type:text;not null" json:"-"`
	IsActive     bool      `gorm:"default:true" json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName overrides the table name
func (OwnerUser) TableName() string {
	return "owner_users"
}

// BeforeCreate hook
func (o *OwnerUser) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
