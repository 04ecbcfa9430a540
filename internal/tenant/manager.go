package tenant

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/omnivet/vetpms/internal/database"
	"github.com/omnivet/vetpms/internal/metrics"
	"github.com/omnivet/vetpms/internal/models"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

// defaultKey identifies the process-wide default connection used in
// single-tenant and development deployments.
const defaultKey = "default"

// Conn is a live tenant database handle
type Conn interface {
	DB() *gorm.DB
	Ping(ctx context.Context) error
	Close() error
}

// Opener opens a new connection for a DSN
type Opener func(ctx context.Context, dsn string) (Conn, error)

// GormOpener returns an Opener backed by gorm/postgres
func GormOpener(logLevel string) Opener {
	return func(ctx context.Context, dsn string) (Conn, error) {
		db, err := database.Open(ctx, dsn, logLevel)
		if err != nil {
			return nil, err
		}
		return &gormConn{db: db}, nil
	}
}

type gormConn struct {
	db *gorm.DB
}

func (c *gormConn) DB() *gorm.DB                  { return c.db }
func (c *gormConn) Ping(ctx context.Context) error { return database.Ping(ctx, c.db) }
func (c *gormConn) Close() error                   { return database.Close(c.db) }

type entry struct {
	conn     Conn
	openedAt time.Time
	lastPing time.Time
}

// ManagerOptions configures the connection manager
type ManagerOptions struct {
	DefaultDSN   string
	StaleAfter   time.Duration
	OpenTimeout  time.Duration
	RetryBackoff time.Duration
}

// Manager caches at most one live database handle per tenant. A
// single-flight group guarantees concurrent first callers for the
// same uncached tenant share one connection-open instead of racing.
type Manager struct {
	opener  Opener
	opts    ManagerOptions
	now     func() time.Time
	group   singleflight.Group
	mu      sync.RWMutex
	entries map[string]*entry
}

// NewManager creates a connection manager
func NewManager(opener Opener, opts ManagerOptions) *Manager {
	if opts.StaleAfter <= 0 {
		opts.StaleAfter = time.Minute
	}
	if opts.OpenTimeout <= 0 {
		opts.OpenTimeout = 10 * time.Second
	}
	return &Manager{
		opener:  opener,
		opts:    opts,
		now:     time.Now,
		entries: make(map[string]*entry),
	}
}

// Get returns the live handle for a tenant, opening one if needed.
// Tenants without their own connection descriptor share the default
// database; single-tenant deployments provision exactly such a row.
func (m *Manager) Get(ctx context.Context, t *models.Tenant) (*gorm.DB, error) {
	if t.DSN == "" {
		return m.Default(ctx)
	}
	conn, err := m.get(ctx, t.ID.String(), t.DSN)
	if err != nil {
		return nil, err
	}
	return conn.DB(), nil
}

// Default returns the process-wide default connection, lazily opened once
func (m *Manager) Default(ctx context.Context) (*gorm.DB, error) {
	conn, err := m.get(ctx, defaultKey, m.opts.DefaultDSN)
	if err != nil {
		return nil, err
	}
	return conn.DB(), nil
}

func (m *Manager) get(ctx context.Context, key, dsn string) (Conn, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if ok && m.now().Sub(e.lastPing) < m.opts.StaleAfter {
		return e.conn, nil
	}

	v, err, _ := m.group.Do(key, func() (interface{}, error) {
		m.mu.RLock()
		e := m.entries[key]
		m.mu.RUnlock()

		if e != nil {
			if m.now().Sub(e.lastPing) < m.opts.StaleAfter {
				return e.conn, nil
			}
			pingCtx, cancel := context.WithTimeout(ctx, m.opts.OpenTimeout)
			err := e.conn.Ping(pingCtx)
			cancel()
			if err == nil {
				m.mu.Lock()
				e.lastPing = m.now()
				m.mu.Unlock()
				return e.conn, nil
			}

			// Broken handle must not poison the cache: evict and reopen.
			log.Warn().Err(err).Str("tenant", key).Msg("Tenant connection evicted after failed health check")
			metrics.TenantConnectionsEvicted.WithLabelValues(key).Inc()
			m.mu.Lock()
			delete(m.entries, key)
			m.mu.Unlock()
			_ = e.conn.Close()
		}

		conn, err := m.open(dsn)
		if err != nil {
			// One retry with backoff at most; never loop inline with the request.
			if m.opts.RetryBackoff > 0 {
				time.Sleep(m.opts.RetryBackoff)
			}
			conn, err = m.open(dsn)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrConnectionUnavailable, err)
			}
		}

		now := m.now()
		m.mu.Lock()
		m.entries[key] = &entry{conn: conn, openedAt: now, lastPing: now}
		m.mu.Unlock()

		log.Info().Str("tenant", key).Msg("Tenant connection opened")
		metrics.TenantConnectionsOpened.WithLabelValues(key).Inc()
		return conn, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Conn), nil
}

// open dials with a bounded timeout detached from the caller's context,
// so an aborted request cannot cancel an open shared by other waiters.
func (m *Manager) open(dsn string) (Conn, error) {
	ctx, cancel := context.WithTimeout(context.Background(), m.opts.OpenTimeout)
	defer cancel()
	return m.opener(ctx, dsn)
}

// Evict closes and removes a tenant's cached connection; called when a
// tenant is suspended.
func (m *Manager) Evict(tenantID string) {
	m.mu.Lock()
	e, ok := m.entries[tenantID]
	if ok {
		delete(m.entries, tenantID)
	}
	m.mu.Unlock()

	if ok {
		_ = e.conn.Close()
		log.Info().Str("tenant", tenantID).Msg("Tenant connection evicted")
		metrics.TenantConnectionsEvicted.WithLabelValues(tenantID).Inc()
	}
}

// CloseAll closes every cached connection
func (m *Manager) CloseAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errCount int
	for key, e := range m.entries {
		if err := e.conn.Close(); err != nil {
			log.Warn().Err(err).Str("tenant", key).Msg("Failed to close tenant connection")
			errCount++
		}
		delete(m.entries, key)
	}

	if errCount > 0 {
		return fmt.Errorf("encountered %d errors while closing tenant connections", errCount)
	}
	return nil
}
