package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/omnivet/vetpms/internal/auth"
	"github.com/omnivet/vetpms/internal/cache"
	"github.com/omnivet/vetpms/internal/middleware"
	"github.com/omnivet/vetpms/internal/models"
	"github.com/omnivet/vetpms/internal/rbac"
	"github.com/omnivet/vetpms/internal/tenant"
	"gorm.io/gorm"
)

type stubRegistry struct {
	tenant *models.Tenant
}

func (r *stubRegistry) BySubdomain(ctx context.Context, subdomain string) (*models.Tenant, error) {
	if r.tenant != nil && r.tenant.Subdomain == subdomain {
		return r.tenant, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubRegistry) ByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	if r.tenant != nil && r.tenant.ID == id {
		return r.tenant, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type stubConn struct{ db *gorm.DB }

func (c *stubConn) DB() *gorm.DB                   { return c.db }
func (c *stubConn) Ping(ctx context.Context) error { return nil }
func (c *stubConn) Close() error                   { return nil }

func okOpener(ctx context.Context, dsn string) (tenant.Conn, error) {
	return &stubConn{db: &gorm.DB{}}, nil
}

func failOpener(ctx context.Context, dsn string) (tenant.Conn, error) {
	return nil, errors.New("dial failed")
}

func newResolver(reg tenant.Registry) *tenant.Resolver {
	return tenant.NewResolver(reg, cache.NewMemoryCache(), time.Minute, "default")
}

func TestTenantMiddlewareUnknownTenant(t *testing.T) {
	mw := middleware.Tenant(newResolver(&stubRegistry{}), tenant.NewManager(okOpener, tenant.ManagerOptions{}))
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run for an unknown tenant")
	}))

	req := httptest.NewRequest("GET", "http://nosuch.vetpms.io/api/v1/appointments", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestTenantMiddlewareDatabaseUnavailable(t *testing.T) {
	reg := &stubRegistry{tenant: &models.Tenant{
		ID:        uuid.New(),
		Subdomain: "happytails",
		Status:    models.TenantStatusActive,
	}}
	mw := middleware.Tenant(newResolver(reg), tenant.NewManager(failOpener, tenant.ManagerOptions{RetryBackoff: time.Millisecond}))
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run when the tenant database is down")
	}))

	req := httptest.NewRequest("GET", "http://happytails.vetpms.io/api/v1/appointments", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}

func TestTenantMiddlewareAttachesContext(t *testing.T) {
	known := &models.Tenant{
		ID:        uuid.New(),
		Subdomain: "happytails",
		Status:    models.TenantStatusActive,
	}
	mw := middleware.Tenant(newResolver(&stubRegistry{tenant: known}), tenant.NewManager(okOpener, tenant.ManagerOptions{}))

	var sawTenant *models.Tenant
	var sawDB *gorm.DB
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawTenant = tenant.FromContext(r.Context())
		sawDB = tenant.DBFromContext(r.Context())
	}))

	req := httptest.NewRequest("GET", "http://happytails.vetpms.io/api/v1/appointments", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if sawTenant == nil || sawTenant.ID != known.ID {
		t.Error("handler did not see the resolved tenant")
	}
	if sawDB == nil {
		t.Error("handler did not see the tenant database handle")
	}
}

func TestAuthenticateRejectsMissingSession(t *testing.T) {
	mw := middleware.Authenticate(auth.NewSessions(time.Hour))
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run without a session")
	}))

	req := httptest.NewRequest("GET", "http://happytails.vetpms.io/api/v1/auth/me", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

type allowAllStore struct{}

func (allowAllStore) DynamicGrants(ctx context.Context, user *models.User) ([]string, error) {
	return nil, nil
}
func (allowAllStore) Overrides(ctx context.Context, userID uuid.UUID, resource rbac.Resource, action rbac.Action) ([]models.PermissionOverride, error) {
	return nil, nil
}
func (allowAllStore) AccessiblePracticeIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return nil, nil
}
func (allowAllStore) AllPracticeIDs(ctx context.Context) ([]uuid.UUID, error) { return nil, nil }

func TestRequirePermission(t *testing.T) {
	evaluator := rbac.NewEvaluator(allowAllStore{})
	mw := middleware.RequirePermission(evaluator, rbac.ResourceBilling, rbac.ActionRead)

	ran := false
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { ran = true }))

	// No user: 401.
	req := httptest.NewRequest("GET", "http://happytails.vetpms.io/api/v1/invoices", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	// A client role lacks billing:read: 403 with the stable message.
	client := &models.User{ID: uuid.New(), Role: models.RoleClient, IsActive: true}
	req = httptest.NewRequest("GET", "http://happytails.vetpms.io/api/v1/invoices", nil)
	req = req.WithContext(tenant.WithUser(req.Context(), client))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("client status = %d, want %d", rec.Code, http.StatusForbidden)
	}
	if ran {
		t.Error("handler must not run when denied")
	}

	// An accountant holds billing:manage: allowed.
	accountant := &models.User{ID: uuid.New(), Role: models.RoleAccountant, IsActive: true}
	req = httptest.NewRequest("GET", "http://happytails.vetpms.io/api/v1/invoices", nil)
	req = req.WithContext(tenant.WithUser(req.Context(), accountant))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("accountant status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !ran {
		t.Error("handler should run when allowed")
	}
}
