package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned when a key is not found in cache
var ErrCacheMiss = errors.New("cache miss")

// Cache defines the cache interface
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Clear(ctx context.Context, pattern string) error
}

// TenantKey generates a cache key for a tenant registry record
func TenantKey(subdomain string) string {
	return "tenant:subdomain:" + subdomain
}

// TenantIDKey generates a cache key for a tenant registry record by id
func TenantIDKey(id string) string {
	return "tenant:id:" + id
}
