package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TenantConnectionsOpened counts physical database connections opened per tenant
	TenantConnectionsOpened = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vetpms_tenant_connections_opened_total",
		Help: "Number of tenant database connections opened",
	}, []string{"tenant"})

	// TenantConnectionsEvicted counts connections removed from the cache after a failed health check
	TenantConnectionsEvicted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vetpms_tenant_connections_evicted_total",
		Help: "Number of tenant database connections evicted from the cache",
	}, []string{"tenant"})

	// RegistryCacheHits counts tenant registry lookups served from cache
	RegistryCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vetpms_registry_cache_hits_total",
		Help: "Number of tenant registry cache hits",
	})

	// RegistryCacheMisses counts tenant registry lookups that fell through to the owner database
	RegistryCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vetpms_registry_cache_misses_total",
		Help: "Number of tenant registry cache misses",
	})

	// PermissionDenials counts denied permission checks by resource
	PermissionDenials = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vetpms_permission_denials_total",
		Help: "Number of denied permission checks",
	}, []string{"resource", "action"})
)
