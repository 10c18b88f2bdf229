package db

import (
	"github.com/diewo77/go-policy/internal/models"
	"gorm.io/gorm"
)

// Migrate runs AutoMigrate for all models.
// Call this at application startup or as part of a migration step.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		// Auth & Authorization
		&models.User{},
		&models.Profile{},
		&models.Permission{},
		&models.AuditEntry{},
		// Business entities
		&models.Client{},
		&models.Product{},
	)
}
