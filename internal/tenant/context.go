package tenant

import (
	"context"

	"github.com/google/uuid"
	"github.com/omnivet/vetpms/internal/models"
	"gorm.io/gorm"
)

type contextKey string

const (
	tenantKey contextKey = "tenant"
	dbKey     contextKey = "tenantDB"
	userKey   contextKey = "user"
)

// WithTenant stores the resolved tenant in the context
func WithTenant(ctx context.Context, t *models.Tenant) context.Context {
	return context.WithValue(ctx, tenantKey, t)
}

// FromContext returns the resolved tenant, or nil
func FromContext(ctx context.Context) *models.Tenant {
	t, _ := ctx.Value(tenantKey).(*models.Tenant)
	return t
}

// IDFromContext returns the resolved tenant id, or uuid.Nil
func IDFromContext(ctx context.Context) uuid.UUID {
	if t := FromContext(ctx); t != nil {
		return t.ID
	}
	return uuid.Nil
}

// WithDB stores the tenant-scoped database handle in the context
func WithDB(ctx context.Context, db *gorm.DB) context.Context {
	return context.WithValue(ctx, dbKey, db)
}

// DBFromContext returns the tenant-scoped database handle, or nil
func DBFromContext(ctx context.Context) *gorm.DB {
	db, _ := ctx.Value(dbKey).(*gorm.DB)
	return db
}

// WithUser stores the authenticated user in the context
func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFromContext returns the authenticated user, or nil
func UserFromContext(ctx context.Context) *models.User {
	u, _ := ctx.Value(userKey).(*models.User)
	return u
}
