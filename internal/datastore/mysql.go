package datastore

import (
	"net"
	"time"

	"github.com/go-sql-driver/mysql"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/tphakala/camrelay/internal/conf"
	"github.com/tphakala/camrelay/internal/errors"
	"github.com/tphakala/camrelay/internal/logger"
)

const (
	mysqlDialTimeout     = 10 * time.Second
	mysqlMaxIdleConns    = 10
	mysqlMaxOpenConns    = 50
	mysqlConnMaxLifetime = time.Hour
)

// MySQLStore implements Interface for MySQL
type MySQLStore struct {
	DataStore
	Settings *conf.Settings
}

func validateMySQLConfig(settings *conf.Settings) error {
	m := settings.Datastore.MySQL
	var missing []string
	if m.Host == "" {
		missing = append(missing, "host")
	}
	if m.Port == "" {
		missing = append(missing, "port")
	}
	if m.Username == "" {
		missing = append(missing, "username")
	}
	if m.Database == "" {
		missing = append(missing, "database")
	}
	if len(missing) > 0 {
		return errors.Newf("mysql settings incomplete, missing %v", missing).
			Component(componentName).
			Category(errors.CategoryConfiguration).
			Build()
	}
	return nil
}

// mysqlDSN builds the connection string with the driver's own formatter so
// credentials containing special characters are escaped correctly.
func mysqlDSN(settings *conf.Settings) string {
	m := settings.Datastore.MySQL
	cfg := mysql.Config{
		User:                 m.Username,
		Passwd:               m.Password,
		Net:                  "tcp",
		Addr:                 net.JoinHostPort(m.Host, m.Port),
		DBName:               m.Database,
		AllowNativePasswords: true,
		ParseTime:            true,
		Loc:                  time.UTC,
		Timeout:              mysqlDialTimeout,
		Params: map[string]string{
			"charset": "utf8mb4",
		},
	}
	return cfg.FormatDSN()
}

// Open connects to MySQL, sizes the pool and migrates the schema.
func (store *MySQLStore) Open() error {
	if err := validateMySQLConfig(store.Settings); err != nil {
		return err
	}

	addr := net.JoinHostPort(store.Settings.Datastore.MySQL.Host, store.Settings.Datastore.MySQL.Port)
	gormLogger := logger.NewGormLoggerAdapter(store.log.Module("gorm"), store.Settings.Datastore.SlowQueryThreshold)

	db, err := gorm.Open(gormmysql.Open(mysqlDSN(store.Settings)), &gorm.Config{Logger: gormLogger})
	if err != nil {
		return dbError(err, "open_mysql", errors.PriorityCritical, "address", addr)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return dbError(err, "open_mysql", errors.PriorityCritical, "address", addr)
	}
	sqlDB.SetMaxIdleConns(mysqlMaxIdleConns)
	sqlDB.SetMaxOpenConns(mysqlMaxOpenConns)
	sqlDB.SetConnMaxLifetime(mysqlConnMaxLifetime)

	store.DB = db
	return performAutoMigration(db, store.log, "MySQL", addr)
}
