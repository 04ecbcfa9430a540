package tenant

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/omnivet/vetpms/internal/cache"
	"github.com/omnivet/vetpms/internal/metrics"
	"github.com/omnivet/vetpms/internal/models"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ImpersonationHeader lets platform admins address a tenant directly,
// bypassing subdomain resolution.
const ImpersonationHeader = "X-Tenant-ID"

// Registry looks up tenant records in the owner database
type Registry interface {
	BySubdomain(ctx context.Context, subdomain string) (*models.Tenant, error)
	ByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
}

// Resolver maps inbound requests to tenant records, caching registry
// lookups for a configurable TTL.
type Resolver struct {
	registry         Registry
	cache            cache.Cache
	ttl              time.Duration
	defaultSubdomain string
}

// NewResolver creates a resolver backed by the given registry and cache
func NewResolver(registry Registry, c cache.Cache, ttl time.Duration, defaultSubdomain string) *Resolver {
	return &Resolver{
		registry:         registry,
		cache:            c,
		ttl:              ttl,
		defaultSubdomain: defaultSubdomain,
	}
}

// FromRequest resolves the request's tenant from the impersonation
// header if present, otherwise from the Host subdomain. Unknown or
// suspended tenants yield ErrTenantNotFound.
func (r *Resolver) FromRequest(req *http.Request) (*models.Tenant, error) {
	ctx := req.Context()

	if raw := req.Header.Get(ImpersonationHeader); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, ErrTenantNotFound
		}
		return r.byID(ctx, id)
	}

	subdomain := SubdomainFromHost(req.Host, r.defaultSubdomain)
	return r.BySubdomain(ctx, subdomain)
}

// tenantRecord is the cache codec for a registry row. The gorm model
// hides DSN from API JSON, so cached records carry their own shape;
// marshalling the model directly would lose the connection descriptor
// and every cache hit would land on the default database.
type tenantRecord struct {
	ID        uuid.UUID           `json:"id"`
	Subdomain string              `json:"subdomain"`
	Name      string              `json:"name"`
	DBName    string              `json:"db_name"`
	DSN       string              `json:"dsn"`
	Status    models.TenantStatus `json:"status"`
}

func newTenantRecord(t *models.Tenant) tenantRecord {
	return tenantRecord{
		ID:        t.ID,
		Subdomain: t.Subdomain,
		Name:      t.Name,
		DBName:    t.DBName,
		DSN:       t.DSN,
		Status:    t.Status,
	}
}

func (rec tenantRecord) tenant() *models.Tenant {
	return &models.Tenant{
		ID:        rec.ID,
		Subdomain: rec.Subdomain,
		Name:      rec.Name,
		DBName:    rec.DBName,
		DSN:       rec.DSN,
		Status:    rec.Status,
	}
}

// BySubdomain resolves a subdomain to an active tenant record
func (r *Resolver) BySubdomain(ctx context.Context, subdomain string) (*models.Tenant, error) {
	key := cache.TenantKey(subdomain)
	if t, ok := r.cached(ctx, key); ok {
		metrics.RegistryCacheHits.Inc()
		return t, nil
	}
	metrics.RegistryCacheMisses.Inc()

	t, err := r.registry.BySubdomain(ctx, subdomain)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, err
	}
	if !t.IsActive() {
		return nil, ErrTenantNotFound
	}

	r.store(ctx, key, t)
	return t, nil
}

func (r *Resolver) byID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	key := cache.TenantIDKey(id.String())
	if t, ok := r.cached(ctx, key); ok {
		metrics.RegistryCacheHits.Inc()
		return t, nil
	}
	metrics.RegistryCacheMisses.Inc()

	t, err := r.registry.ByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, err
	}
	if !t.IsActive() {
		return nil, ErrTenantNotFound
	}

	r.store(ctx, key, t)
	return t, nil
}

func (r *Resolver) cached(ctx context.Context, key string) (*models.Tenant, bool) {
	data, err := r.cache.Get(ctx, key)
	if err != nil {
		return nil, false
	}
	var rec tenantRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, false
	}
	return rec.tenant(), true
}

func (r *Resolver) store(ctx context.Context, key string, t *models.Tenant) {
	data, err := json.Marshal(newTenantRecord(t))
	if err != nil {
		return
	}
	if err := r.cache.Set(ctx, key, data, r.ttl); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to cache tenant record")
	}
}

// Invalidate drops a tenant's cached registry records, both the
// subdomain and the id entry; called after provisioning changes.
func (r *Resolver) Invalidate(ctx context.Context, t *models.Tenant) {
	for _, key := range []string{cache.TenantKey(t.Subdomain), cache.TenantIDKey(t.ID.String())} {
		if err := r.cache.Delete(ctx, key); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Failed to invalidate tenant cache entry")
		}
	}
}

// SubdomainFromHost extracts the tenant subdomain from a Host header.
// Hosts with fewer than three labels, loopback names and IP literals
// resolve to the default subdomain. A leading "www" label is ignored
// and matching is case-insensitive.
func SubdomainFromHost(host, defaultSubdomain string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.ToLower(strings.TrimSuffix(host, "."))

	if host == "" || host == "localhost" || net.ParseIP(host) != nil {
		return defaultSubdomain
	}

	labels := strings.Split(host, ".")
	if labels[0] == "www" {
		labels = labels[1:]
	}
	if len(labels) < 3 {
		return defaultSubdomain
	}
	return labels[0]
}
