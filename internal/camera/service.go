package camera

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tphakala/camrelay/internal/errors"
	"github.com/tphakala/camrelay/internal/logger"
	"github.com/tphakala/camrelay/internal/sanitize"
	"github.com/tphakala/camrelay/internal/validation"
)

// Operation names used in logs and metrics.
const (
	OpCreate        = "create"
	OpPut           = "put"
	OpDelete        = "delete"
	OpTempStreamURL = "temp_stream_url"
	OpList          = "list"
)

// Operation outcomes.
const (
	OutcomeSuccess       = "success"
	OutcomeBusinessError = "business_error"
	OutcomeInternalError = "internal_error"
)

// Observer receives per operation measurements.
type Observer interface {
	RecordOperation(operation, outcome string, duration time.Duration)
	RecordPartialFailure(operation string)
}

type noopObserver struct{}

func (noopObserver) RecordOperation(string, string, time.Duration) {}
func (noopObserver) RecordPartialFailure(string)                   {}

// Service runs the camera use cases. It holds no mutable state and is safe for concurrent use.
type Service struct {
	store      MetadataStore
	permanent  PermanentRelay
	temporary  TemporaryRelay
	log        logger.Logger
	observer   Observer
	newRelayID func() (string, error)
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger; the service logs under the "camera" module.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l.Module("camera")
		}
	}
}

// WithObserver sets the metrics observer.
func WithObserver(o Observer) Option {
	return func(s *Service) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithRelayIDGenerator replaces the UUIDv7 relay id generator.
func WithRelayIDGenerator(fn func() (string, error)) Option {
	return func(s *Service) {
		if fn != nil {
			s.newRelayID = fn
		}
	}
}

// New creates a Service over the given dependencies.
func New(store MetadataStore, permanent PermanentRelay, temporary TemporaryRelay, opts ...Option) *Service {
	s := &Service{
		store:      store,
		permanent:  permanent,
		temporary:  temporary,
		log:        logger.Global().Module("camera"),
		observer:   noopObserver{},
		newRelayID: newUUIDv7,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// newUUIDv7 returns a time ordered 128-bit id.
func newUUIDv7() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// track records the outcome of an operation started at start.
func (s *Service) track(op string, start time.Time, err error) {
	outcome := OutcomeSuccess
	switch {
	case err == nil:
	case IsBusinessError(err):
		outcome = OutcomeBusinessError
	default:
		outcome = OutcomeInternalError
	}
	s.observer.RecordOperation(op, outcome, time.Since(start))
}

// rejected converts a failed validation outcome into a BusinessError.
func (s *Service) rejected(ctx context.Context, op string, outcome validation.Outcome) error {
	s.log.WithContext(ctx).Debug("input rejected",
		logger.String("operation", op),
		logger.Any("feedback", outcome.Feedback))
	return &BusinessError{Message: outcome.Message, Feedback: outcome.Feedback}
}

// internal wraps a dependency failure. cause may be nil for invariant breaches, in
// which case detail is used as the debug detail.
func (s *Service) internal(ctx context.Context, op, message string, cause error, detail string, category errors.ErrorCategory) error {
	if detail == "" && cause != nil {
		detail = fmt.Sprintf("%+v", cause)
	}
	if cause == nil {
		cause = errors.NewStd(detail)
	}

	enhanced := errors.New(cause).
		Component("camera").
		Category(category).
		Context("operation", op).
		Context("message", message).
		Build()

	s.log.WithContext(ctx).Error(message,
		logger.String("operation", op),
		logger.String("debug_detail", detail),
		logger.String("category", string(enhanced.Category)))

	return &InternalDependencyError{Message: message, DebugDetail: detail, Err: enhanced}
}

// partial marks an operation that failed after its first write succeeded.
func (s *Service) partial(ctx context.Context, op, id string) {
	s.observer.RecordPartialFailure(op)
	s.log.WithContext(ctx).Warn("partial failure, metadata and relay are out of sync",
		logger.String("operation", op),
		logger.String("camera_id", id))
}

// sanitizeFields cleans each field in place, stopping at the first failing field.
func sanitizeFields(fields ...*string) error {
	for _, f := range fields {
		clean, err := sanitize.String(*f)
		if err != nil {
			return err
		}
		*f = clean
	}
	return nil
}
