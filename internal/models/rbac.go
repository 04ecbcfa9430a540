package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StringList is a jsonb-backed string slice used for dynamic role
// permission lists.
type StringList []string

// Value implements driver.Valuer
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported type for StringList: %T", value)
	}
}

// RoleCategory groups dynamic roles; toggling IsActive disables every
// role in the category for subsequent permission checks.
type RoleCategory struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name      string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	IsActive  bool      `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides the table name
func (RoleCategory) TableName() string {
	return "role_categories"
}

// BeforeCreate hook
func (c *RoleCategory) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// DynamicRole is a per-practice role with a JSON-encoded permission
// list of "resource:action" strings. Static roles are compiled in and
// never stored here.
type DynamicRole struct {
	ID          uuid.UUID     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	PracticeID  *uuid.UUID    `gorm:"type:uuid;index" json:"practice_id,omitempty"`
	CategoryID  *uuid.UUID    `gorm:"type:uuid;index" json:"category_id,omitempty"`
	Category    *RoleCategory `gorm:"foreignKey:CategoryID" json:"-"`
	Name        string        `gorm:"type:varchar(100);not null" json:"name"`
	Description string        `gorm:"type:text" json:"description"`
	Permissions StringList    `gorm:"type:jsonb;default:'[]'" json:"permissions"`
	IsActive    bool          `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// TableName overrides the table name
func (DynamicRole) TableName() string {
	return "dynamic_roles"
}

// BeforeCreate hook
func (r *DynamicRole) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// EffectiveGrants returns the role's permission strings, or nil when
// the role or its category is inactive.
func (r *DynamicRole) EffectiveGrants() []string {
	if r == nil || !r.IsActive {
		return nil
	}
	if r.Category != nil && !r.Category.IsActive {
		return nil
	}
	return []string(r.Permissions)
}

// OverrideStatus is the lifecycle state of a permission override
type OverrideStatus string

const (
	OverrideStatusActive  OverrideStatus = "active"
	OverrideStatusRevoked OverrideStatus = "revoked"
)

// PermissionOverride is a time-bounded, user-specific exception to
// role-derived permissions. Expired and revoked overrides never
// satisfy a check; an override is never reactivated.
type PermissionOverride struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Resource  string         `gorm:"type:varchar(50);not null;index" json:"resource"`
	Action    string         `gorm:"type:varchar(50);not null" json:"action"`
	Granted   bool           `gorm:"not null" json:"granted"`
	Reason    string         `gorm:"type:text;not null" json:"reason"`
	ExpiresAt *time.Time     `json:"expires_at,omitempty"`
	Status    OverrideStatus `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	RevokedAt *time.Time     `json:"revoked_at,omitempty"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
}

// TableName overrides the table name
func (PermissionOverride) TableName() string {
	return "permission_overrides"
}

// BeforeCreate hook
func (o *PermissionOverride) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// ActiveAt reports whether the override is in force at the given instant
func (o *PermissionOverride) ActiveAt(now time.Time) bool {
	if o.Status != OverrideStatusActive {
		return false
	}
	if o.ExpiresAt != nil && !now.Before(*o.ExpiresAt) {
		return false
	}
	return true
}
