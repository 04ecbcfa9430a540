package database

import (
	"context"
	"fmt"
	"time"

	"github.com/omnivet/vetpms/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open establishes a pooled gorm connection for the given DSN
func Open(ctx context.Context, dsn, logLevel string) (*gorm.DB, error) {
	var gormLogger logger.Interface
	switch logLevel {
	case "silent":
		gormLogger = logger.Default.LogMode(logger.Silent)
	case "error":
		gormLogger = logger.Default.LogMode(logger.Error)
	case "warn":
		gormLogger = logger.Default.LogMode(logger.Warn)
	default:
		gormLogger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// Ping checks a connection's health
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes a gorm connection's underlying pool
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// MigrateOwner runs automatic migrations for the owner (platform) database
func MigrateOwner(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Tenant{},
		&models.OwnerUser{},
	)
}

// MigrateTenant runs automatic migrations for a tenant database
func MigrateTenant(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Practice{},
		&models.User{},
		&models.PracticeAccess{},
		&models.Session{},
		&models.RoleCategory{},
		&models.DynamicRole{},
		&models.PermissionOverride{},
		&models.Client{},
		&models.Patient{},
		&models.Appointment{},
		&models.SOAPNote{},
		&models.Invoice{},
		&models.InvoiceItem{},
		&models.Payment{},
		&models.InventoryItem{},
		&models.StockAdjustment{},
		&models.AuditLog{},
	); err != nil {
		return err
	}
	return migrateTenantConstraints(db)
}

// migrateTenantConstraints adds guards AutoMigrate cannot express. The
// appointments exclusion constraint rejects concurrent double-bookings
// that pass the service-level overlap count.
func migrateTenantConstraints(db *gorm.DB) error {
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS btree_gist").Error; err != nil {
		return fmt.Errorf("failed to enable btree_gist: %w", err)
	}

	const overlapGuard = `
DO $$ BEGIN
	ALTER TABLE appointments ADD CONSTRAINT appointments_no_vet_overlap
		EXCLUDE USING gist (
			veterinarian_id WITH =,
			tstzrange(starts_at, ends_at) WITH &&
		) WHERE (status NOT IN ('cancelled', 'no_show'));
EXCEPTION WHEN duplicate_object THEN NULL;
END $$`
	if err := db.Exec(overlapGuard).Error; err != nil {
		return fmt.Errorf("failed to add appointment overlap constraint: %w", err)
	}
	return nil
}
