package datastore

import (
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"

	"github.com/tphakala/camrelay/internal/errors"
)

const componentName = "datastore"

// ErrCameraNotFound is wrapped by lookups of a camera id that has no row.
var ErrCameraNotFound = errors.NewStd("camera not found")

// MySQL server error numbers that map to a more specific category.
const (
	mysqlDuplicateEntry  = 1062
	mysqlLockWaitTimeout = 1205
	mysqlDeadlock        = 1213
)

// dbError creates a properly categorized database error with context
func dbError(err error, operation, priority string, context ...any) error {
	builder := errors.New(err).
		Component(componentName).
		Category(classify(err)).
		Context("operation", operation)

	if priority != "" {
		builder = builder.Priority(priority)
	}

	for i := 0; i < len(context)-1; i += 2 {
		if key, ok := context[i].(string); ok {
			builder = builder.Context(key, context[i+1])
		}
	}

	return builder.Build()
}

// notFoundError reports a missing camera row.
func notFoundError(operation, id string) error {
	return errors.New(fmt.Errorf("%w: %s", ErrCameraNotFound, id)).
		Component(componentName).
		Category(errors.CategoryNotFound).
		Priority(errors.PriorityLow).
		Context("operation", operation).
		Context("camera_id", id).
		Build()
}

// classify maps driver errors to categories. Busy and lock errors are state problems
// a retry may clear; constraint violations are conflicts.
func classify(err error) errors.ErrorCategory {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.CategoryNotFound
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code {
		case sqlite3.ErrBusy, sqlite3.ErrLocked:
			return errors.CategoryState
		case sqlite3.ErrConstraint:
			return errors.CategoryConflict
		}
		return errors.CategoryDatabase
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case mysqlDuplicateEntry:
			return errors.CategoryConflict
		case mysqlLockWaitTimeout, mysqlDeadlock:
			return errors.CategoryState
		}
	}

	return errors.CategoryDatabase
}
