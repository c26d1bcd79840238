package db

import (
	"errors"
	"fmt"
	"strings"

	"github.com/terraincognita07/nutriwell/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var ErrRemoteDSNMissing = errors.New("remote database dsn is empty")

// OpenPostgres prepares the remote mirror (a Supabase Postgres instance)
// without connecting. Connections are made on first use, so an unreachable
// host at startup only delays delivery.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, ErrRemoteDSNMissing
	}

	database, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:               newGormLogger(),
		DisableAutomaticPing: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return database, nil
}

// MigrateRemoteSchema creates missing tables and columns of the synced
// records. The remote schema is owned by the hosted project.
func MigrateRemoteSchema(database *gorm.DB) error {
	if err := database.AutoMigrate(
		&models.DailyCounter{},
		&models.MealRecord{},
		&models.ProgressPhoto{},
	); err != nil {
		return fmt.Errorf("migrate remote schema: %w", err)
	}
	return nil
}
