// Package conf loads camrelay settings from defaults, an optional YAML file and
// environment variables, using viper.
package conf

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/tphakala/camrelay/internal/errors"
)

// Settings is the complete camrelay configuration.
type Settings struct {
	Debug bool // true to enable debug logging and GORM SQL tracing

	// Runtime values, not stored in config file
	Version    string `yaml:"-"`
	BuildDate  string `yaml:"-"`
	ConfigFile string `yaml:"-"` // config file viper read, empty when defaults only

	Logging   LoggingSettings
	HTTP      HTTPSettings
	Datastore DatastoreSettings
	Relay     RelaySettings
	Auth      AuthSettings
	Metrics   MetricsSettings
	Sentry    SentrySettings
}

// LoggingSettings controls the structured logger.
type LoggingSettings struct {
	Level  string // trace, debug, info, warn or error
	Format string // json or text
	File   string // log file path, empty logs to stdout
}

// HTTPSettings configures the API server.
type HTTPSettings struct {
	Host        string
	Port        int
	BodyLimit   string // echo body limit, e.g. "1M"
	CORS        CORSSettings
	RateLimit   RateLimitSettings
	Idempotency IdempotencySettings
}

// CORSSettings lists allowed origins; empty disables the CORS middleware.
type CORSSettings struct {
	AllowedOrigins []string
}

// RateLimitSettings configures the per client rate limiter.
type RateLimitSettings struct {
	Enabled           bool
	RequestsPerSecond float64
	Burst             int
}

// IdempotencySettings configures replay of POST /cameras responses.
type IdempotencySettings struct {
	TTL time.Duration
}

// DatastoreSettings selects and configures the metadata store.
type DatastoreSettings struct {
	Type               string // sqlite or mysql
	SlowQueryThreshold time.Duration
	SQLite             SQLiteSettings
	MySQL              MySQLSettings
}

// SQLiteSettings configures the SQLite store.
type SQLiteSettings struct {
	Path string
}

// MySQLSettings configures the MySQL store.
type MySQLSettings struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
}

// RelaySettings configures both relay clients.
type RelaySettings struct {
	Permanent RelayEndpoint
	Temporary RelayEndpoint
	Timeout   time.Duration
	UserAgent string
}

// RelayEndpoint is the base URL of one relay service.
type RelayEndpoint struct {
	URL string
}

// AuthSettings configures bearer token validation on camera routes.
type AuthSettings struct {
	Enabled       bool
	Issuer        string
	Audience      string
	Secret        string // HS256 shared secret
	PublicKeyFile string // RS256 PEM public key, used when Secret is empty
}

// MetricsSettings configures the Prometheus endpoint.
type MetricsSettings struct {
	Enabled bool
	Path    string
}

// SentrySettings configures error telemetry.
type SentrySettings struct {
	Enabled     bool
	DSN         string
	Environment string
}

// Load reads settings through the global viper instance, which the CLI has bound its flags to.
func Load() (*Settings, error) {
	return LoadWith(viper.GetViper())
}

// LoadWith reads settings through v: defaults, then the config file (if any), then
// environment variables. A missing config file is not an error.
func LoadWith(v *viper.Viper) (*Settings, error) {
	if err := initViper(v); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, errors.New(fmt.Errorf("error unmarshaling config into struct: %w", err)).
			Component("configuration").
			Category(errors.CategoryConfiguration).
			Build()
	}
	settings.ConfigFile = v.ConfigFileUsed()

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	return settings, nil
}

// initViper sets defaults, reads the config file and binds environment variables.
func initViper(v *viper.Viper) error {
	// --config names an exact file; otherwise search the default paths
	if explicit := v.GetString("config"); explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return errors.New(fmt.Errorf("config file %s: %w", explicit, err)).
				Component("configuration").
				Category(errors.CategoryConfiguration).
				Build()
		}
		v.SetConfigFile(explicit)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		for _, path := range GetDefaultConfigPaths() {
			v.AddConfigPath(path)
		}
	}

	setDefaultConfig(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !stderrors.As(err, &notFound) {
			return errors.New(fmt.Errorf("fatal error reading config file: %w", err)).
				Component("configuration").
				Category(errors.CategoryConfiguration).
				Context("config_file", v.ConfigFileUsed()).
				Build()
		}
	}

	return bindEnvVars(v)
}

// GetDefaultConfigPaths returns the directories searched for config.yaml, in order.
func GetDefaultConfigPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "camrelay"))
	}
	return append(paths, "/etc/camrelay")
}

// SaveYAMLConfig writes settings to configPath through a temporary file and rename.
func SaveYAMLConfig(configPath string, settings *Settings) error {
	yamlData, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("error marshaling settings to YAML: %w", err)
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return errors.New(fmt.Errorf("error creating config directory: %w", err)).
			Component("configuration").
			Category(errors.CategoryFileIO).
			Context("path", dir).
			Build()
	}

	tempFile, err := os.CreateTemp(dir, "config-*.yaml")
	if err != nil {
		return fmt.Errorf("error creating temporary file: %w", err)
	}
	tempFileName := tempFile.Name()
	defer func() { _ = os.Remove(tempFileName) }()

	if _, err := tempFile.Write(yamlData); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("error writing to temporary file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("error closing temporary file: %w", err)
	}
	if err := os.Chmod(tempFileName, 0o600); err != nil {
		return fmt.Errorf("error setting config file permissions: %w", err)
	}

	if err := os.Rename(tempFileName, configPath); err != nil {
		return errors.New(fmt.Errorf("error replacing config file: %w", err)).
			Component("configuration").
			Category(errors.CategoryFileIO).
			Context("path", configPath).
			Build()
	}

	return nil
}

// Addr returns host:port for the HTTP listener.
func (h HTTPSettings) Addr() string {
	return fmt.Sprintf("%s:%d", h.Host, h.Port)
}
