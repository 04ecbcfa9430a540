package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/omnivet/vetpms/internal/database"
	"github.com/omnivet/vetpms/internal/models"
	"github.com/omnivet/vetpms/internal/repository"
	"github.com/omnivet/vetpms/internal/tenant"
	"github.com/rs/zerolog/log"
)

// ProvisioningService manages the tenant registry for the owner portal
type ProvisioningService struct {
	tenants  *repository.TenantRepository
	resolver *tenant.Resolver
	manager  *tenant.Manager
}

// NewProvisioningService creates a provisioning service
func NewProvisioningService(tenants *repository.TenantRepository, resolver *tenant.Resolver, manager *tenant.Manager) *ProvisioningService {
	return &ProvisioningService{tenants: tenants, resolver: resolver, manager: manager}
}

// CreateTenantInput is the payload for provisioning a tenant
type CreateTenantInput struct {
	Name      string `json:"name"`
	Subdomain string `json:"subdomain"`
	DBName    string `json:"db_name"`
	DSN       string `json:"dsn"`
}

// CreateTenant provisions a tenant: the DSN is normalized once here,
// the registry row is inserted, the tenant database is opened and
// migrated, and any cached registry entry is invalidated. An empty DSN
// places the tenant on the shared default database.
func (s *ProvisioningService) CreateTenant(ctx context.Context, input CreateTenantInput) (*models.Tenant, error) {
	verr := &ValidationError{}
	subdomain := strings.ToLower(strings.TrimSpace(input.Subdomain))
	if subdomain == "" {
		verr.Add("subdomain", "is required")
	}
	if strings.TrimSpace(input.Name) == "" {
		verr.Add("name", "is required")
	}
	if len(verr.Fields) > 0 {
		return nil, verr
	}

	t := &models.Tenant{
		Subdomain: subdomain,
		Name:      strings.TrimSpace(input.Name),
		DBName:    strings.TrimSpace(input.DBName),
		DSN:       tenant.NormalizeDSN(strings.TrimSpace(input.DSN)),
		Status:    models.TenantStatusActive,
	}
	if err := s.tenants.Create(ctx, t); err != nil {
		return nil, err
	}

	db, err := s.manager.Get(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("tenant created but database unreachable: %w", err)
	}
	if err := database.MigrateTenant(db); err != nil {
		return nil, fmt.Errorf("tenant created but migration failed: %w", err)
	}

	s.resolver.Invalidate(ctx, t)
	log.Info().Str("tenant", t.ID.String()).Str("subdomain", t.Subdomain).Msg("Tenant provisioned")
	return t, nil
}

// ListTenants returns all tenants in the registry
func (s *ProvisioningService) ListTenants(ctx context.Context) ([]models.Tenant, error) {
	return s.tenants.List(ctx)
}

// SetTenantStatus activates or suspends a tenant. Suspension evicts
// the cached connection and registry entry so the subdomain stops
// resolving immediately.
func (s *ProvisioningService) SetTenantStatus(ctx context.Context, id uuid.UUID, status models.TenantStatus) error {
	t, err := s.tenants.ByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.tenants.UpdateStatus(ctx, id, status); err != nil {
		return err
	}

	s.resolver.Invalidate(ctx, t)
	if status == models.TenantStatusSuspended {
		s.manager.Evict(id.String())
	}
	log.Info().Str("tenant", id.String()).Str("status", string(status)).Msg("Tenant status updated")
	return nil
}
