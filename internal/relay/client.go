// Package relay implements HTTP clients for the permanent and temporary stream
// relay services. The clients never retry; every failure is returned to the caller.
package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/k3a/html2text"

	"github.com/tphakala/camrelay/internal/errors"
	"github.com/tphakala/camrelay/internal/httpclient"
	"github.com/tphakala/camrelay/internal/logger"
)

// Service names used in logs and metrics.
const (
	ServicePermanent = "permanent"
	ServiceTemporary = "temporary"
)

const (
	// maxResponseBytes caps how much of a relay response is read
	maxResponseBytes = 1 << 20
	// maxErrorBodyBytes caps how much of an error body is kept for diagnostics
	maxErrorBodyBytes = 512
)

// Config configures a relay client.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	// Transport overrides the HTTP transport, mainly for tests
	Transport http.RoundTripper
}

// Recorder receives one observation per relay request.
type Recorder interface {
	RecordRelayRequest(service, method string, statusCode int, duration time.Duration)
}

// Option configures a relay client.
type Option func(*base)

// WithLogger sets the logger; clients log under the "relay" module.
func WithLogger(l logger.Logger) Option {
	return func(b *base) {
		if l != nil {
			b.log = l.Module("relay")
		}
	}
}

// WithRecorder attaches a request metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(b *base) {
		b.recorder = r
	}
}

// StatusError is returned when a relay answers with a non-2xx status.
type StatusError struct {
	Service    string
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s relay %s %s returned %d", e.Service, e.Method, e.Path, e.StatusCode)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// base holds what both relay clients share.
type base struct {
	service  string
	baseURL  string
	http     *httpclient.Client
	log      logger.Logger
	recorder Recorder
}

func newBase(service string, cfg Config, opts ...Option) (*base, error) {
	u, err := url.Parse(strings.TrimSpace(cfg.BaseURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, errors.Newf("invalid %s relay base url %q", service, cfg.BaseURL).
			Component("relay").
			Category(errors.CategoryConfiguration).
			Context("service", service).
			Build()
	}

	hc := httpclient.DefaultConfig()
	if cfg.Timeout > 0 {
		hc.DefaultTimeout = cfg.Timeout
	}
	if cfg.UserAgent != "" {
		hc.UserAgent = cfg.UserAgent
	}
	hc.Transport = cfg.Transport

	b := &base{
		service: service,
		baseURL: strings.TrimRight(u.String(), "/"),
		http:    httpclient.New(&hc),
		log:     logger.Global().Module("relay"),
	}
	for _, opt := range opts {
		opt(b)
	}

	b.http.SetAfterResponseHook(func(req *http.Request, resp *http.Response, err error, elapsed time.Duration) {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		if b.recorder != nil {
			b.recorder.RecordRelayRequest(b.service, req.Method, status, elapsed)
		}
		b.log.Trace("relay request",
			logger.String("service", b.service),
			logger.String("method", req.Method),
			logger.String("path", req.URL.Path),
			logger.Int("status", status),
			logger.Duration("elapsed", elapsed))
	})

	return b, nil
}

// call sends a request to path and decodes a 2xx JSON response into out when out is non-nil.
// A status listed in tolerated is not an error and leaves out untouched.
func (b *base) call(ctx context.Context, method, path string, body, out any, tolerated ...int) error {
	start := time.Now()
	endpoint := b.baseURL + path

	var (
		resp *http.Response
		err  error
	)
	switch method {
	case http.MethodGet:
		resp, err = b.http.Get(ctx, endpoint)
	case http.MethodDelete:
		resp, err = b.http.Delete(ctx, endpoint)
	default:
		resp, err = b.http.Send(ctx, method, endpoint, "", body)
	}
	if err != nil {
		return b.transportError(ctx, method, path, err, time.Since(start))
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			b.log.Debug("failed to close relay response body", logger.Error(cerr))
		}
	}()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return b.transportError(ctx, method, path, err, time.Since(start))
	}

	if slices.Contains(tolerated, resp.StatusCode) {
		b.log.WithContext(ctx).Debug("relay status tolerated",
			logger.String("service", b.service),
			logger.String("method", method),
			logger.String("path", path),
			logger.Int("status", resp.StatusCode))
		return nil
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := &StatusError{
			Service:    b.service,
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       errorBody(resp.Header.Get("Content-Type"), payload),
		}
		return errors.New(statusErr).
			Component("relay").
			Category(errors.CategoryRelay).
			HTTPContext(method, resp.StatusCode).
			Context("service", b.service).
			Timing(b.service+"_"+strings.ToLower(method), time.Since(start)).
			Build()
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return errors.New(fmt.Errorf("decode %s relay response: %w", b.service, err)).
			Component("relay").
			Category(errors.CategoryContract).
			HTTPContext(method, resp.StatusCode).
			Context("service", b.service).
			Build()
	}
	return nil
}

func (b *base) transportError(ctx context.Context, method, path string, err error, elapsed time.Duration) error {
	category := errors.CategoryNetwork
	switch {
	case errors.Is(err, context.Canceled):
		category = errors.CategoryCancellation
	case errors.Is(err, context.DeadlineExceeded):
		category = errors.CategoryTimeout
	}
	b.log.WithContext(ctx).Warn("relay request failed",
		logger.String("service", b.service),
		logger.String("method", method),
		logger.String("path", path),
		logger.Error(err))
	return errors.New(fmt.Errorf("%s relay %s %s: %w", b.service, method, path, err)).
		Component("relay").
		Category(category).
		NetworkContext(b.baseURL, 0).
		HTTPContext(method, 0).
		Timing(b.service+"_"+strings.ToLower(method), elapsed).
		Build()
}

// Close releases idle connections.
func (b *base) Close() {
	b.http.Close()
}

// BaseURL returns the normalized base URL.
func (b *base) BaseURL() string {
	return b.baseURL
}

// errorBody keeps the start of an error response for diagnostics. HTML pages, as
// served by proxies in front of the relays, are reduced to their text.
func errorBody(contentType string, payload []byte) string {
	text := string(payload)
	if strings.HasPrefix(strings.ToLower(contentType), "text/html") {
		text = html2text.HTML2Text(text)
	}
	return truncate(strings.TrimSpace(text), maxErrorBodyBytes)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
