package datastore

import (
	"time"

	"gorm.io/gorm"

	"github.com/tphakala/camrelay/internal/errors"
	"github.com/tphakala/camrelay/internal/logger"
)

// performAutoMigration brings the schema up to date with the models.
func performAutoMigration(db *gorm.DB, log logger.Logger, dbType, connectionInfo string) error {
	migrationStart := time.Now()
	migrationLogger := log.With(logger.String("db_type", dbType))

	migrationLogger.Debug("Starting database migration")

	if err := db.AutoMigrate(&Camera{}); err != nil {
		return errors.New(err).
			Component(componentName).
			Category(errors.CategoryDatabase).
			Priority(errors.PriorityCritical).
			Context("operation", "auto_migrate").
			Context("db_type", dbType).
			Context("connection", connectionInfo).
			Build()
	}

	migrationLogger.Info("Database ready",
		logger.String("connection", connectionInfo),
		logger.Duration("migration_duration", time.Since(migrationStart)))
	return nil
}
