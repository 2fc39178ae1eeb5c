package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/estateflow/publisher/config"
	"github.com/estateflow/publisher/internal/domain"
)

// NewPostgresDB creates a new PostgreSQL database connection
func NewPostgresDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := cfg.GetDSN()

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})

	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate runs schema auto-migration for all engine entities.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&domain.PublicationTask{},
		&domain.PublicationHistory{},
		&domain.AutopublishConfig{},
		&domain.TelegramAccount{},
		&domain.Chat{},
		&domain.Object{},
		&domain.User{},
		&domain.ChatSubscriptionTask{},
		&domain.Setting{},
	)
	if err != nil {
		return fmt.Errorf("failed to auto migrate: %w", err)
	}
	return nil
}
