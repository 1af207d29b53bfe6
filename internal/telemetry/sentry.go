// Package telemetry wires Sentry error reporting into the enhanced error builder.
// Nothing is sent unless sentry.enabled is set and a DSN is configured.
package telemetry

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/tphakala/camrelay/internal/conf"
	"github.com/tphakala/camrelay/internal/errors"
	"github.com/tphakala/camrelay/internal/logger"
)

var sentryInitialized atomic.Bool

// quietCategories are caller or lifecycle outcomes, not faults worth an event.
var quietCategories = map[errors.ErrorCategory]bool{
	errors.CategoryValidation:   true,
	errors.CategorySanitization: true,
	errors.CategoryNotFound:     true,
	errors.CategoryCancellation: true,
}

// InitSentry initialises the Sentry SDK and registers it as the error reporter.
// It is a no-op when telemetry is disabled.
func InitSentry(settings *conf.Settings, log logger.Logger) error {
	return initSentry(settings, log, nil)
}

// initSentry lets tests inject a transport.
func initSentry(settings *conf.Settings, log logger.Logger, transport sentry.Transport) error {
	if log == nil {
		log = logger.Global()
	}
	log = log.Module("telemetry")

	if !settings.Sentry.Enabled {
		log.Debug("Sentry telemetry is disabled")
		return nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              settings.Sentry.DSN,
		Transport:        transport,
		SampleRate:       1.0,
		AttachStacktrace: false,
		Environment:      settings.Sentry.Environment,
		ServerName:       "",
		Release:          fmt.Sprintf("camrelay@%s", settings.Version),
		BeforeSend:       applyPrivacyFilters,
	})
	if err != nil {
		return errors.New(fmt.Errorf("sentry initialization failed: %w", err)).
			Component("telemetry").
			Category(errors.CategoryConfiguration).
			Build()
	}

	errors.SetTelemetryReporter(&filteringReporter{next: errors.NewSentryReporter(true)})
	sentryInitialized.Store(true)

	log.Info("Sentry telemetry enabled",
		logger.String("environment", settings.Sentry.Environment),
		logger.String("release", settings.Version))
	return nil
}

// applyPrivacyFilters strips host identifying data from every outgoing event.
func applyPrivacyFilters(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
	event.User = sentry.User{}
	event.ServerName = ""

	if event.Contexts != nil {
		delete(event.Contexts, "device")
		delete(event.Contexts, "os")
	}
	if event.Tags != nil {
		delete(event.Tags, "server_name")
		delete(event.Tags, "hostname")
	}
	if event.Request != nil {
		event.Request.Cookies = ""
		delete(event.Request.Headers, "Authorization")
	}
	return event
}

// filteringReporter drops categories that describe caller mistakes.
type filteringReporter struct {
	next errors.TelemetryReporter
}

func (r *filteringReporter) IsEnabled() bool {
	return r.next.IsEnabled()
}

func (r *filteringReporter) ReportError(ee *errors.EnhancedError) {
	if quietCategories[ee.Category] {
		return
	}
	r.next.ReportError(ee)
}

// Flush waits for queued events; call it before the process exits.
func Flush(timeout time.Duration) {
	if !sentryInitialized.Load() {
		return
	}
	sentry.Flush(timeout)
}

// Shutdown detaches the reporter and flushes pending events.
func Shutdown(timeout time.Duration) {
	errors.SetTelemetryReporter(nil)
	Flush(timeout)
	sentryInitialized.Store(false)
}
