package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/omnivet/vetpms/internal/models"
	"gorm.io/gorm"
)

// TenantRepository reads and writes the tenant registry in the owner
// (platform) database. It satisfies tenant.Registry.
type TenantRepository struct {
	db *gorm.DB
}

// NewTenantRepository creates a registry repository over the owner database
func NewTenantRepository(ownerDB *gorm.DB) *TenantRepository {
	return &TenantRepository{db: ownerDB}
}

// BySubdomain retrieves a tenant record by its subdomain
func (r *TenantRepository) BySubdomain(ctx context.Context, subdomain string) (*models.Tenant, error) {
	var t models.Tenant
	if err := r.db.WithContext(ctx).
		Where("subdomain = ?", strings.ToLower(subdomain)).
		First(&t).Error; err != nil {
		return nil, fmt.Errorf("failed to get tenant by subdomain: %w", err)
	}
	return &t, nil
}

// ByID retrieves a tenant record by id
func (r *TenantRepository) ByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	var t models.Tenant
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&t).Error; err != nil {
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}
	return &t, nil
}

// Create inserts a tenant registry row
func (r *TenantRepository) Create(ctx context.Context, t *models.Tenant) error {
	if err := r.db.WithContext(ctx).Create(t).Error; err != nil {
		return fmt.Errorf("failed to create tenant: %w", err)
	}
	return nil
}

// List returns all tenant records
func (r *TenantRepository) List(ctx context.Context) ([]models.Tenant, error) {
	var tenants []models.Tenant
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&tenants).Error; err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}
	return tenants, nil
}

// UpdateStatus flips a tenant's status; tenants are never hard-deleted
func (r *TenantRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.TenantStatus) error {
	res := r.db.WithContext(ctx).
		Model(&models.Tenant{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("failed to update tenant status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// OwnerUserByEmail retrieves an owner account for portal login
func (r *TenantRepository) OwnerUserByEmail(ctx context.Context, email string) (*models.OwnerUser, error) {
	var u models.OwnerUser
	if err := r.db.WithContext(ctx).
		Where("email = ? AND is_active = ?", strings.ToLower(email), true).
		First(&u).Error; err != nil {
		return nil, fmt.Errorf("failed to get owner user: %w", err)
	}
	return &u, nil
}
