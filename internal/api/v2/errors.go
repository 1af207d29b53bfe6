package api

import (
	"crypto/rand"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tphakala/camrelay/internal/camera"
	"github.com/tphakala/camrelay/internal/logger"
	"github.com/tphakala/camrelay/internal/validation"
)

// Response messages produced by the transport itself.
const (
	msgInvalidBody      = "invalid request body"
	msgInternal         = "internal server error"
	msgIdempotencyReuse = "idempotency key was already used for a different request"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Message       string              `json:"message"`
	Details       validation.Feedback `json:"details,omitempty"`
	CorrelationID string              `json:"correlation_id,omitempty"`
}

// generateCorrelationID creates a unique identifier for error tracking using cryptographic randomness
func generateCorrelationID() string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	const length = 8

	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "ERR-RAND"
	}

	for i := range b {
		b[i] = charset[int(b[i])%len(charset)]
	}
	return string(b)
}

// HandleError maps a use case error onto the wire. Business errors become 400 with the
// field feedback; everything else becomes an opaque 500 whose correlation id ties the
// response to the log line carrying the detail.
func (c *Controller) HandleError(ctx echo.Context, err error) error {
	var be *camera.BusinessError
	if errors.As(err, &be) {
		return ctx.JSON(http.StatusBadRequest, ErrorResponse{
			Message: be.Message,
			Details: be.Feedback,
		})
	}

	correlationID := generateCorrelationID()
	message := msgInternal
	fields := []logger.Field{
		logger.String("correlation_id", correlationID),
		logger.String("path", ctx.Request().URL.Path),
		logger.String("method", ctx.Request().Method),
		logger.String("ip", ctx.RealIP()),
		logger.Error(err),
	}

	var ie *camera.InternalDependencyError
	if errors.As(err, &ie) {
		message = ie.Message
		fields = append(fields, logger.String("debug_detail", ie.DebugDetail))
	}

	c.log.WithContext(ctx.Request().Context()).Error("API error", fields...)

	return ctx.JSON(http.StatusInternalServerError, ErrorResponse{
		Message:       message,
		CorrelationID: correlationID,
	})
}

// badBody reports a request body that could not be decoded.
func badBody(ctx echo.Context, err error) error {
	detail := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if msg, ok := he.Message.(string); ok {
			detail = msg
		}
	}
	return ctx.JSON(http.StatusBadRequest, ErrorResponse{
		Message: msgInvalidBody,
		Details: validation.Feedback{"body": {detail}},
	})
}

// HTTPErrorHandler renders errors that escape the handlers, such as unknown routes or
// rejected bodies, in the same shape as handler errors.
func HTTPErrorHandler(log logger.Logger) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		if ctx.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		message := msgInternal

		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if msg, ok := he.Message.(string); ok {
				message = msg
			} else {
				message = http.StatusText(code)
			}
		} else if log != nil {
			log.Error("unhandled API error", logger.Error(err), logger.String("path", ctx.Request().URL.Path))
		}

		var writeErr error
		if ctx.Request().Method == http.MethodHead {
			writeErr = ctx.NoContent(code)
		} else {
			writeErr = ctx.JSON(code, ErrorResponse{Message: message})
		}
		if writeErr != nil && log != nil {
			log.Warn("failed to write error response", logger.Error(writeErr))
		}
	}
}
