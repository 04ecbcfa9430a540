package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/omnivet/vetpms/internal/models"
	"github.com/omnivet/vetpms/internal/rbac"
	"gorm.io/gorm"
)

// RBACRepository supplies role and override data from the tenant
// database. It satisfies rbac.Store and also carries the plain CRUD
// for dynamic roles, categories and overrides.
type RBACRepository struct{}

// NewRBACRepository creates an RBAC repository
func NewRBACRepository() *RBACRepository {
	return &RBACRepository{}
}

// DynamicGrants returns the raw permission strings of the user's
// dynamic role. An inactive role, an inactive category or no dynamic
// role at all yields nil without error.
func (r *RBACRepository) DynamicGrants(ctx context.Context, user *models.User) ([]string, error) {
	if user.DynamicRoleID == nil {
		return nil, nil
	}
	db, err := tenantDB(ctx)
	if err != nil {
		return nil, err
	}

	var role models.DynamicRole
	if err := db.Preload("Category").Where("id = ?", *user.DynamicRoleID).First(&role).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load dynamic role: %w", err)
	}

	return role.EffectiveGrants(), nil
}

// Overrides returns all overrides recorded for a user and exact pair
func (r *RBACRepository) Overrides(ctx context.Context, userID uuid.UUID, resource rbac.Resource, action rbac.Action) ([]models.PermissionOverride, error) {
	db, err := tenantDB(ctx)
	if err != nil {
		return nil, err
	}
	var overrides []models.PermissionOverride
	if err := db.
		Where("user_id = ? AND resource = ? AND action = ?", userID, string(resource), string(action)).
		Find(&overrides).Error; err != nil {
		return nil, fmt.Errorf("failed to load overrides: %w", err)
	}
	return overrides, nil
}

// AccessiblePracticeIDs returns cross-practice grants for a user
func (r *RBACRepository) AccessiblePracticeIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	db, err := tenantDB(ctx)
	if err != nil {
		return nil, err
	}
	var ids []uuid.UUID
	if err := db.
		Model(&models.PracticeAccess{}).
		Where("user_id = ?", userID).
		Pluck("practice_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to load practice access: %w", err)
	}
	return ids, nil
}

// AllPracticeIDs returns every active practice in the tenant
func (r *RBACRepository) AllPracticeIDs(ctx context.Context) ([]uuid.UUID, error) {
	db, err := tenantDB(ctx)
	if err != nil {
		return nil, err
	}
	var ids []uuid.UUID
	if err := db.
		Model(&models.Practice{}).
		Where("is_active = ?", true).
		Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list practices: %w", err)
	}
	return ids, nil
}

// CreateOverride records a new permission override
func (r *RBACRepository) CreateOverride(ctx context.Context, o *models.PermissionOverride) error {
	db, err := tenantDB(ctx)
	if err != nil {
		return err
	}
	if err := db.Create(o).Error; err != nil {
		return fmt.Errorf("failed to create override: %w", err)
	}
	return nil
}

// RevokeOverride marks an override revoked. Revocation is terminal;
// a revoked override is never reactivated.
func (r *RBACRepository) RevokeOverride(ctx context.Context, id uuid.UUID) error {
	db, err := tenantDB(ctx)
	if err != nil {
		return err
	}
	res := db.Model(&models.PermissionOverride{}).
		Where("id = ? AND status = ?", id, models.OverrideStatusActive).
		Updates(map[string]interface{}{
			"status":     models.OverrideStatusRevoked,
			"revoked_at": gorm.Expr("NOW()"),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to revoke override: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListOverrides returns a user's overrides, newest first
func (r *RBACRepository) ListOverrides(ctx context.Context, userID uuid.UUID) ([]models.PermissionOverride, error) {
	db, err := tenantDB(ctx)
	if err != nil {
		return nil, err
	}
	var overrides []models.PermissionOverride
	if err := db.
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&overrides).Error; err != nil {
		return nil, fmt.Errorf("failed to list overrides: %w", err)
	}
	return overrides, nil
}

// CreateRole inserts a dynamic role
func (r *RBACRepository) CreateRole(ctx context.Context, role *models.DynamicRole) error {
	db, err := tenantDB(ctx)
	if err != nil {
		return err
	}
	if err := db.Create(role).Error; err != nil {
		return fmt.Errorf("failed to create role: %w", err)
	}
	return nil
}

// UpdateRole saves a dynamic role
func (r *RBACRepository) UpdateRole(ctx context.Context, role *models.DynamicRole) error {
	db, err := tenantDB(ctx)
	if err != nil {
		return err
	}
	if err := db.Save(role).Error; err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}
	return nil
}

// GetRole retrieves a dynamic role by id
func (r *RBACRepository) GetRole(ctx context.Context, id uuid.UUID) (*models.DynamicRole, error) {
	db, err := tenantDB(ctx)
	if err != nil {
		return nil, err
	}
	var role models.DynamicRole
	if err := db.Where("id = ?", id).First(&role).Error; err != nil {
		return nil, fmt.Errorf("failed to get role: %w", err)
	}
	return &role, nil
}

// ListRoles returns dynamic roles, optionally scoped to a practice
func (r *RBACRepository) ListRoles(ctx context.Context, practiceID *uuid.UUID) ([]models.DynamicRole, error) {
	db, err := tenantDB(ctx)
	if err != nil {
		return nil, err
	}
	q := db.Order("name ASC")
	if practiceID != nil {
		q = q.Where("practice_id = ?", *practiceID)
	}
	var roles []models.DynamicRole
	if err := q.Find(&roles).Error; err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	return roles, nil
}

// DeleteRole removes a dynamic role
func (r *RBACRepository) DeleteRole(ctx context.Context, id uuid.UUID) error {
	db, err := tenantDB(ctx)
	if err != nil {
		return err
	}
	if err := db.Delete(&models.DynamicRole{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("failed to delete role: %w", err)
	}
	return nil
}

// SetCategoryActive toggles a category's active flag. Setting the same
// value twice is a no-op; checks in flight are unaffected because the
// evaluator reads current data at call time.
func (r *RBACRepository) SetCategoryActive(ctx context.Context, id uuid.UUID, active bool) error {
	db, err := tenantDB(ctx)
	if err != nil {
		return err
	}
	res := db.Model(&models.RoleCategory{}).
		Where("id = ?", id).
		Update("is_active", active)
	if res.Error != nil {
		return fmt.Errorf("failed to toggle category: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CreateCategory inserts a role category
func (r *RBACRepository) CreateCategory(ctx context.Context, c *models.RoleCategory) error {
	db, err := tenantDB(ctx)
	if err != nil {
		return err
	}
	if err := db.Create(c).Error; err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

// ListCategories returns all role categories
func (r *RBACRepository) ListCategories(ctx context.Context) ([]models.RoleCategory, error) {
	db, err := tenantDB(ctx)
	if err != nil {
		return nil, err
	}
	var cats []models.RoleCategory
	if err := db.Order("name ASC").Find(&cats).Error; err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return cats, nil
}
