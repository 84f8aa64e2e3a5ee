package database

import (
	"fmt"

	"voice-order/internal/common/models"
	"voice-order/internal/pkg/logger"
)

// RunMigrations creates or updates every table the service writes to.
func (db *Database) RunMigrations() error {
	logger.Info.Println("Starting database migrations...")

	entities := []any{
		&models.Transaction{},
	}

	for _, entity := range entities {
		logger.Info.Printf("Migrating model: %T", entity)
		if err := db.AutoMigrate(entity); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", entity, err)
		}
	}

	logger.Info.Println("Database migrations completed successfully")
	return nil
}
