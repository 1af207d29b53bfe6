package conf

import (
	"fmt"
	"os"
	"slices"
	"strings"
)

// Datastore types.
const (
	DatastoreSQLite = "sqlite"
	DatastoreMySQL  = "mysql"
)

var validLogLevels = []string{"trace", "debug", "info", "warn", "error"}

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// ValidateSettings validates the entire Settings struct and reports every problem at once.
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	ve.Errors = append(ve.Errors, validateLoggingSettings(&settings.Logging)...)
	ve.Errors = append(ve.Errors, validateHTTPSettings(&settings.HTTP)...)
	ve.Errors = append(ve.Errors, validateDatastoreSettings(&settings.Datastore)...)
	ve.Errors = append(ve.Errors, validateRelaySettings(&settings.Relay)...)
	ve.Errors = append(ve.Errors, validateAuthSettings(&settings.Auth)...)
	ve.Errors = append(ve.Errors, validateSentrySettings(&settings.Sentry)...)

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func isValidLogLevel(level string) bool {
	return slices.Contains(validLogLevels, strings.ToLower(level))
}

func isValidDatastoreType(t string) bool {
	return t == DatastoreSQLite || t == DatastoreMySQL
}

func validateLoggingSettings(s *LoggingSettings) []string {
	var errs []string
	if !isValidLogLevel(s.Level) {
		errs = append(errs, fmt.Sprintf("logging.level %q must be one of %s", s.Level, strings.Join(validLogLevels, ", ")))
	}
	if s.Format != "json" && s.Format != "text" {
		errs = append(errs, fmt.Sprintf("logging.format %q must be json or text", s.Format))
	}
	return errs
}

func validateHTTPSettings(s *HTTPSettings) []string {
	var errs []string
	if s.Port < 1 || s.Port > 65535 {
		errs = append(errs, fmt.Sprintf("http.port must be between 1 and 65535, got %d", s.Port))
	}
	if s.RateLimit.Enabled {
		if s.RateLimit.RequestsPerSecond <= 0 {
			errs = append(errs, "http.ratelimit.requestspersecond must be positive when rate limiting is enabled")
		}
		if s.RateLimit.Burst < 1 {
			errs = append(errs, "http.ratelimit.burst must be at least 1 when rate limiting is enabled")
		}
	}
	if s.Idempotency.TTL < 0 {
		errs = append(errs, "http.idempotency.ttl must not be negative")
	}
	return errs
}

func validateDatastoreSettings(s *DatastoreSettings) []string {
	var errs []string
	switch s.Type {
	case DatastoreSQLite:
		if strings.TrimSpace(s.SQLite.Path) == "" {
			errs = append(errs, "datastore.sqlite.path is required for the sqlite datastore")
		}
	case DatastoreMySQL:
		if s.MySQL.Host == "" || s.MySQL.Database == "" || s.MySQL.Username == "" {
			errs = append(errs, "datastore.mysql requires host, username and database")
		}
		if s.MySQL.Port != "" {
			if err := validateEnvPort(s.MySQL.Port); err != nil {
				errs = append(errs, fmt.Sprintf("datastore.mysql.port: %v", err))
			}
		}
	default:
		errs = append(errs, fmt.Sprintf("datastore.type %q must be %s or %s", s.Type, DatastoreSQLite, DatastoreMySQL))
	}
	return errs
}

func validateRelaySettings(s *RelaySettings) []string {
	var errs []string
	if err := validateEnvHTTPURL(s.Permanent.URL); err != nil {
		errs = append(errs, fmt.Sprintf("relay.permanent.url %q: %v", s.Permanent.URL, err))
	}
	if err := validateEnvHTTPURL(s.Temporary.URL); err != nil {
		errs = append(errs, fmt.Sprintf("relay.temporary.url %q: %v", s.Temporary.URL, err))
	}
	if s.Timeout < 0 {
		errs = append(errs, "relay.timeout must not be negative")
	}
	return errs
}

func validateAuthSettings(s *AuthSettings) []string {
	if !s.Enabled {
		return nil
	}
	var errs []string
	switch {
	case s.Secret != "":
		if len(s.Secret) < 32 {
			errs = append(errs, "auth.secret must be at least 32 characters")
		}
	case s.PublicKeyFile != "":
		if _, err := os.Stat(s.PublicKeyFile); err != nil {
			errs = append(errs, fmt.Sprintf("auth.publickeyfile: %v", err))
		}
	default:
		errs = append(errs, "auth requires auth.secret or auth.publickeyfile when enabled")
	}
	return errs
}

func validateSentrySettings(s *SentrySettings) []string {
	if s.Enabled && s.DSN == "" {
		return []string{"sentry.dsn is required when sentry is enabled"}
	}
	return nil
}
