// Package api provides the HTTP server infrastructure for the camera relay service.
// The JSON endpoints live in the v2 subpackage.
package api

import (
	"time"

	"github.com/tphakala/camrelay/internal/conf"
)

// Default constants for the HTTP server.
const (
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
	DefaultBodyLimit       = "1M"
	DefaultMetricsPath     = "/metrics"
)

// Config holds the HTTP server configuration derived from the settings.
type Config struct {
	Address string

	AllowedOrigins []string
	BodyLimit      string

	RateLimitEnabled  bool
	RequestsPerSecond float64
	Burst             int

	MetricsEnabled bool
	MetricsPath    string

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// ConfigFromSettings builds a server Config, filling unset values with defaults.
func ConfigFromSettings(settings *conf.Settings) Config {
	cfg := Config{
		Address:           settings.HTTP.Addr(),
		AllowedOrigins:    settings.HTTP.CORS.AllowedOrigins,
		BodyLimit:         settings.HTTP.BodyLimit,
		RateLimitEnabled:  settings.HTTP.RateLimit.Enabled,
		RequestsPerSecond: settings.HTTP.RateLimit.RequestsPerSecond,
		Burst:             settings.HTTP.RateLimit.Burst,
		MetricsEnabled:    settings.Metrics.Enabled,
		MetricsPath:       settings.Metrics.Path,
		ReadTimeout:       DefaultReadTimeout,
		WriteTimeout:      DefaultWriteTimeout,
		IdleTimeout:       DefaultIdleTimeout,
		ShutdownTimeout:   DefaultShutdownTimeout,
	}
	if cfg.BodyLimit == "" {
		cfg.BodyLimit = DefaultBodyLimit
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = DefaultMetricsPath
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	return cfg
}
