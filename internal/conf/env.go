// env.go - environment variable bindings
package conf

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// envBinding holds metadata for environment variable bindings (internal use)
type envBinding struct {
	ConfigKey string             // Viper config key
	EnvVar    string             // Environment variable name
	Validate  func(string) error // Optional validation function
	Aliases   []string           // Older names still honoured, lower precedence
}

// getEnvBindings returns all environment variable bindings with validation
func getEnvBindings() []envBinding {
	return []envBinding{
		{ConfigKey: "debug", EnvVar: "CAMRELAY_DEBUG", Validate: validateEnvBool},
		{ConfigKey: "logging.level", EnvVar: "LOG_LEVEL", Validate: validateEnvLogLevel},

		// HTTP server
		{ConfigKey: "http.host", EnvVar: "HTTP_HOST"},
		{ConfigKey: "http.port", EnvVar: "HTTP_PORT", Validate: validateEnvPort},

		// Datastore
		{ConfigKey: "datastore.type", EnvVar: "DATASTORE_TYPE", Validate: validateEnvDatastoreType},
		{ConfigKey: "datastore.sqlite.path", EnvVar: "SQLITE_PATH"},
		{ConfigKey: "datastore.mysql.host", EnvVar: "MYSQL_HOST"},
		{ConfigKey: "datastore.mysql.port", EnvVar: "MYSQL_PORT", Validate: validateEnvPort},
		{ConfigKey: "datastore.mysql.username", EnvVar: "MYSQL_USERNAME"},
		{ConfigKey: "datastore.mysql.password", EnvVar: "MYSQL_PASSWORD"},
		{ConfigKey: "datastore.mysql.database", EnvVar: "MYSQL_DATABASE"},

		// Relays
		{ConfigKey: "relay.permanent.url", EnvVar: "PERMANENT_STREAM_SERVER_URL", Validate: validateEnvHTTPURL},
		{ConfigKey: "relay.temporary.url", EnvVar: "TEMPORARY_STREAM_SERVER_URL", Validate: validateEnvHTTPURL},

		// Auth
		{ConfigKey: "auth.enabled", EnvVar: "AUTH_ENABLED", Validate: validateEnvBool},
		{ConfigKey: "auth.issuer", EnvVar: "AUTH_ISSUER", Aliases: []string{"AUTH0_ISSUER"}},
		{ConfigKey: "auth.audience", EnvVar: "AUTH_AUDIENCE", Aliases: []string{"AUTH0_AUDIENCE"}},
		{ConfigKey: "auth.secret", EnvVar: "AUTH_SECRET"},

		// Telemetry
		{ConfigKey: "sentry.dsn", EnvVar: "SENTRY_DSN"},
	}
}

// bindEnvVars sets up environment variable bindings with validation (internal)
func bindEnvVars(v *viper.Viper) error {
	var warnings []string

	for _, binding := range getEnvBindings() {
		names := append([]string{binding.EnvVar}, binding.Aliases...)
		if err := v.BindEnv(append([]string{binding.ConfigKey}, names...)...); err != nil {
			warnings = append(warnings, fmt.Sprintf("Failed to bind %s: %v", binding.EnvVar, err))
			continue
		}

		if binding.Validate == nil {
			continue
		}
		for _, name := range names {
			if envValue := os.Getenv(name); envValue != "" {
				if err := binding.Validate(envValue); err != nil {
					warnings = append(warnings, fmt.Sprintf("Invalid %s value '%s': %v", name, envValue, err))
				}
			}
		}
	}

	if len(warnings) > 0 {
		return fmt.Errorf("environment variable issues:\n  - %s", strings.Join(warnings, "\n  - "))
	}

	return nil
}

// validateEnvBool validates boolean environment variables
func validateEnvBool(value string) error {
	if _, err := strconv.ParseBool(value); err != nil {
		return fmt.Errorf("invalid boolean value '%s': must be true/false, 1/0, t/f, TRUE/FALSE, T/F", value)
	}
	return nil
}

func validateEnvPort(value string) error {
	port, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid port: %w", err)
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}
	return nil
}

func validateEnvLogLevel(value string) error {
	if !isValidLogLevel(value) {
		return fmt.Errorf("must be one of: %s", strings.Join(validLogLevels, ", "))
	}
	return nil
}

func validateEnvDatastoreType(value string) error {
	if !isValidDatastoreType(value) {
		return fmt.Errorf("must be one of: %s, %s", DatastoreSQLite, DatastoreMySQL)
	}
	return nil
}

func validateEnvHTTPURL(value string) error {
	u, err := url.Parse(value)
	if err != nil {
		return err
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("must be an absolute http or https URL")
	}
	return nil
}
