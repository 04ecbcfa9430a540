package repository

import (
	"context"
	"errors"

	"github.com/omnivet/vetpms/internal/tenant"
	"gorm.io/gorm"
)

// ErrNoTenantDB indicates a tenant-scoped repository was called
// outside a resolved tenant context. Evaluators treat it as a failure,
// so guarded operations fail closed.
var ErrNoTenantDB = errors.New("no tenant database in context")

// tenantDB returns the request's tenant-scoped handle
func tenantDB(ctx context.Context) (*gorm.DB, error) {
	db := tenant.DBFromContext(ctx)
	if db == nil {
		return nil, ErrNoTenantDB
	}
	return db.WithContext(ctx), nil
}
