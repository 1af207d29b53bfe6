package datastore

import (
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tphakala/camrelay/internal/conf"
	"github.com/tphakala/camrelay/internal/errors"
	"github.com/tphakala/camrelay/internal/logger"
)

// SQLite pragmas: WAL lets readers run during a write, busy_timeout waits instead of
// failing fast on a locked database.
const sqliteDSNParams = "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=ON"

// SQLiteStore implements Interface for SQLite
type SQLiteStore struct {
	DataStore
	Settings *conf.Settings
}

func validateSQLiteConfig(settings *conf.Settings) error {
	if settings.Datastore.SQLite.Path == "" {
		return errors.Newf("sqlite path is not configured").
			Component(componentName).
			Category(errors.CategoryConfiguration).
			Build()
	}
	return nil
}

// Open connects to the SQLite database file and migrates the schema.
func (store *SQLiteStore) Open() error {
	if err := validateSQLiteConfig(store.Settings); err != nil {
		return err
	}

	path := store.Settings.Datastore.SQLite.Path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return errors.New(err).
				Component(componentName).
				Category(errors.CategoryFileIO).
				Context("operation", "create_database_directory").
				Context("path", path).
				Build()
		}
	}

	gormLogger := logger.NewGormLoggerAdapter(store.log.Module("gorm"), store.Settings.Datastore.SlowQueryThreshold)

	db, err := gorm.Open(sqlite.Open(path+sqliteDSNParams), &gorm.Config{Logger: gormLogger})
	if err != nil {
		return dbError(err, "open_sqlite", errors.PriorityCritical, "path", path)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return dbError(err, "open_sqlite", errors.PriorityCritical, "path", path)
	}
	// SQLite serialises writers anyway; a single connection avoids SQLITE_BUSY churn.
	sqlDB.SetMaxOpenConns(1)

	store.DB = db
	return performAutoMigration(db, store.log, "SQLite", path)
}
