package database

import (
	"fmt"
	"log/slog"
	"time"

	"safespace-chat/internal/config"
	"safespace-chat/internal/models"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const (
	maxConnectAttempts = 5
	connectRetryDelay  = 2 * time.Second
)

// Dialector picks the gorm driver for cfg.Driver.
func Dialector(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "", "postgres", "postgresql":
		return postgres.Open(cfg.DSN), nil
	case "mysql":
		return mysql.Open(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// NewSQLConnection opens the incident store, retrying the initial connect.
// The schema is migrated only when cfg.AutoMigrate is set.
func NewSQLConnection(cfg config.DatabaseConfig, log *slog.Logger) (*gorm.DB, error) {
	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}

	var db *gorm.DB
	for i := 1; i <= maxConnectAttempts; i++ {
		db, err = gorm.Open(dialector, &gorm.Config{
			SkipDefaultTransaction: true,
			PrepareStmt:            false,
		})
		if err == nil {
			break
		}
		log.Warn("Failed to connect to database", "driver", cfg.Driver, "attempt", i, "maxAttempts", maxConnectAttempts, "error", err)
		if i < maxConnectAttempts {
			time.Sleep(connectRetryDelay)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxConnectAttempts, err)
	}

	if err := configure(db, cfg); err != nil {
		return nil, err
	}

	log.Info("Database connection established successfully", "driver", cfg.Driver, "autoMigrate", cfg.AutoMigrate)
	return db, nil
}

// configure applies pool limits and, when enabled, the schema migration.
func configure(db *gorm.DB, cfg config.DatabaseConfig) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if cfg.AutoMigrate {
		return Migrate(db)
	}
	return nil
}

// Migrate creates or updates the tables this service owns.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.CrisisIncident{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
