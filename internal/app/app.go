// Package app assembles the camera service from settings: the metadata store, both
// relay clients and the optional metrics. The serve and cameras commands share it.
package app

import (
	"net/http"
	"os"
	"time"

	"github.com/tphakala/camrelay/internal/camera"
	"github.com/tphakala/camrelay/internal/conf"
	"github.com/tphakala/camrelay/internal/datastore"
	"github.com/tphakala/camrelay/internal/errors"
	"github.com/tphakala/camrelay/internal/logger"
	"github.com/tphakala/camrelay/internal/observability"
	"github.com/tphakala/camrelay/internal/relay"
)

// App holds the wired components. Close releases them in reverse order.
type App struct {
	Settings  *conf.Settings
	Store     datastore.Interface
	Permanent *relay.PermanentClient
	Temporary *relay.TemporaryClient
	Cameras   *camera.Service
	Metrics   *observability.Metrics

	log logger.Logger
}

type options struct {
	metrics   *observability.Metrics
	transport http.RoundTripper
}

// Option configures New.
type Option func(*options)

// WithMetrics feeds use case and relay observations into m.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithTransport replaces the HTTP transport of both relay clients.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) {
		o.transport = rt
	}
}

// New opens the configured metadata store and builds the relay clients and camera service.
// On error everything opened so far is closed again.
func New(settings *conf.Settings, log logger.Logger, opts ...Option) (*App, error) {
	if log == nil {
		log = logger.Global()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{Settings: settings, Metrics: o.metrics, log: log.Module("app")}

	store, err := datastore.New(settings, log)
	if err != nil {
		return nil, err
	}
	if err := store.Open(); err != nil {
		return nil, err
	}
	a.Store = store

	relayOpts := []relay.Option{relay.WithLogger(log)}
	if o.metrics != nil {
		relayOpts = append(relayOpts, relay.WithRecorder(o.metrics.Relay))
	}

	a.Permanent, err = relay.NewPermanentClient(relayConfig(settings, settings.Relay.Permanent.URL, o.transport), relayOpts...)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Temporary, err = relay.NewTemporaryClient(relayConfig(settings, settings.Relay.Temporary.URL, o.transport), relayOpts...)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	svcOpts := []camera.Option{camera.WithLogger(log)}
	if o.metrics != nil {
		svcOpts = append(svcOpts, camera.WithObserver(o.metrics.Camera))
	}
	a.Cameras = camera.New(a.Store, a.Permanent, a.Temporary, svcOpts...)

	a.log.Debug("components ready",
		logger.String("datastore", settings.Datastore.Type),
		logger.String("permanent_relay", a.Permanent.BaseURL()),
		logger.String("temporary_relay", a.Temporary.BaseURL()))
	return a, nil
}

func relayConfig(settings *conf.Settings, baseURL string, rt http.RoundTripper) relay.Config {
	return relay.Config{
		BaseURL:   baseURL,
		Timeout:   settings.Relay.Timeout,
		UserAgent: settings.Relay.UserAgent,
		Transport: rt,
	}
}

// Close closes the relay clients and the store. It is safe to call on a partly built App.
func (a *App) Close() error {
	if a.Temporary != nil {
		a.Temporary.Close()
	}
	if a.Permanent != nil {
		a.Permanent.Close()
	}
	if a.Store == nil {
		return nil
	}
	if err := a.Store.Close(); err != nil {
		return errors.New(err).
			Component("app").
			Category(errors.CategoryDatabase).
			Context("operation", "close_datastore").
			Build()
	}
	return nil
}

// NewLogger builds the root logger from the logging settings. Debug forces debug level
// unless a more verbose level is configured.
func NewLogger(settings conf.LoggingSettings, debug bool) (*logger.SlogLogger, error) {
	level, ok := logger.ParseLevel(settings.Level)
	if !ok {
		level = logger.LogLevelInfo
	}
	if debug && level != logger.LogLevelTrace {
		level = logger.LogLevelDebug
	}

	format := logger.FormatJSON
	if settings.Format == string(logger.FormatText) {
		format = logger.FormatText
	}

	if settings.File != "" {
		return logger.NewFileLogger(settings.File, level, format, time.Local)
	}
	if format == logger.FormatText {
		return logger.NewTextLogger(os.Stdout, level, time.Local), nil
	}
	return logger.NewSlogLogger(os.Stdout, level, time.Local), nil
}
