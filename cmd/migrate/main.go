package main

import (
	"log/slog"
	"os"

	"safespace-chat/internal/config"
	"safespace-chat/internal/database"
)

// migrate prepares the crisis incident store ahead of a deploy. Servers run
// with DATABASE_AUTO_MIGRATE=false then need no DDL privileges.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	if !cfg.Database.Enabled() {
		slog.Error("DATABASE_DSN is not set, nothing to migrate")
		os.Exit(1)
	}

	slog.Info("Starting database migration...", "driver", cfg.Database.Driver)
	cfg.Database.AutoMigrate = true

	db, err := database.NewSQLConnection(cfg.Database, slog.Default())
	if err != nil {
		slog.Error("Failed to migrate database", "error", err)
		os.Exit(1)
	}

	sqlDB, err := db.DB()
	if err != nil {
		slog.Error("Failed to get database instance", "error", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		slog.Error("Failed to ping database", "error", err)
		os.Exit(1)
	}

	slog.Info("Database migration completed successfully!")
}
