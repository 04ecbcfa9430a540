package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is a user's primary role name. Static roles are system defined
// and not editable; dynamic roles are per-practice DynamicRole rows.
type Role string

const (
	RoleSuperAdmin            Role = "SUPER_ADMIN"
	RoleAdministrator         Role = "ADMINISTRATOR"
	RolePracticeAdministrator Role = "PRACTICE_ADMINISTRATOR"
	RoleVeterinarian          Role = "VETERINARIAN"
	RoleTechnician            Role = "TECHNICIAN"
	RoleReceptionist          Role = "RECEPTIONIST"
	RoleAccountant            Role = "ACCOUNTANT"
	RoleClient                Role = "CLIENT"
)

// Practice is a business entity (clinic) within a tenant. A tenant may
// host one or more practices depending on deployment mode.
type Practice struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	IsActive  bool      `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides the table name
func (Practice) TableName() string {
	return "practices"
}

// BeforeCreate hook
func (p *Practice) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// User is a practice-scoped account with exactly one primary role
type User struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Email        string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"type:text;not null" json:"-"`
	FirstName    string     `gorm:"type:varchar(100)" json:"first_name"`
	LastName     string     `gorm:"type:varchar(100)" json:"last_name"`
	Role         Role       `gorm:"type:varchar(50);not null" json:"role"`
	PracticeID   *uuid.UUID `gorm:"type:uuid;index" json:"practice_id,omitempty"`
	// DynamicRoleID points at a per-practice role whose permission set
	// extends the primary role's grants.
	DynamicRoleID *uuid.UUID `gorm:"type:uuid;index" json:"dynamic_role_id,omitempty"`
	IsActive      bool       `gorm:"default:true" json:"is_active"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	PracticeAccess []PracticeAccess `gorm:"foreignKey:UserID" json:"practice_access,omitempty"`
}

// TableName overrides the table name
func (User) TableName() string {
	return "users"
}

// BeforeCreate hook
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// PracticeAccess grants a user access to a practice beyond their home
// practice; used by administrators for cross-practice flows.
type PracticeAccess struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index:idx_practice_access,unique" json:"user_id"`
	PracticeID uuid.UUID `gorm:"type:uuid;not null;index:idx_practice_access,unique" json:"practice_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName overrides the table name
func (PracticeAccess) TableName() string {
	return "practice_access"
}

// BeforeCreate hook
func (p *PracticeAccess) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Session is a server-side session row backing the HTTP-only session cookie
type Session struct {
	Token     string     `gorm:"primaryKey;size:64" json:"-"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// TableName overrides the table name
func (Session) TableName() string {
	return "sessions"
}

// Valid reports whether the session is usable at the given instant
func (s *Session) Valid(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}
