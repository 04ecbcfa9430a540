package tenant

import "errors"

var (
	// ErrTenantNotFound indicates the subdomain or tenant id does not
	// map to an active tenant. Handlers translate it to a 4xx, never 500.
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrConnectionUnavailable indicates the tenant's backing database
	// is unreachable after the single retry. Surfaced as 503.
	ErrConnectionUnavailable = errors.New("tenant database unavailable")
)
