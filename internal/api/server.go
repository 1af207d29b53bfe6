package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	mw "github.com/tphakala/camrelay/internal/api/middleware"
	v2 "github.com/tphakala/camrelay/internal/api/v2"
	"github.com/tphakala/camrelay/internal/conf"
	"github.com/tphakala/camrelay/internal/logger"
	"github.com/tphakala/camrelay/internal/observability"
)

// Server is the HTTP front of the service.
type Server struct {
	echo          *echo.Echo
	config        Config
	settings      *conf.Settings
	log           logger.Logger
	metrics       *observability.Metrics
	apiController *v2.Controller
}

// ServerOption is a functional option for configuring the Server.
type ServerOption func(*Server)

// WithMetrics sets the observability metrics for the server.
func WithMetrics(m *observability.Metrics) ServerOption {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithLogger sets the server logger.
func WithLogger(l logger.Logger) ServerOption {
	return func(s *Server) {
		s.log = l
	}
}

// New creates the HTTP server with its middleware and routes.
func New(settings *conf.Settings, svc v2.CameraService, health v2.HealthChecker, opts ...ServerOption) (*Server, error) {
	s := &Server{
		config:   ConfigFromSettings(settings),
		settings: settings,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Global()
	}
	s.log = s.log.Module("api")

	s.echo = echo.New()
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Logger = logger.NewEchoLoggerAdapter(s.log.Module("echo"))
	s.echo.HTTPErrorHandler = v2.HTTPErrorHandler(s.log)

	s.echo.Server.ReadTimeout = s.config.ReadTimeout
	s.echo.Server.WriteTimeout = s.config.WriteTimeout
	s.echo.Server.IdleTimeout = s.config.IdleTimeout

	s.setupMiddleware()

	if err := s.setupRoutes(svc, health); err != nil {
		return nil, err
	}

	s.log.Info("HTTP server initialized",
		logger.String("address", s.config.Address),
		logger.Bool("metrics", s.config.MetricsEnabled),
		logger.Bool("rate_limit", s.config.RateLimitEnabled),
		logger.Bool("auth", settings.Auth.Enabled))
	return s, nil
}

// setupMiddleware configures the Echo middleware stack.
func (s *Server) setupMiddleware() {
	// Recovery middleware - should be first
	s.echo.Use(echomw.Recover())

	var recorder mw.RequestRecorder
	if s.metrics != nil {
		recorder = s.metrics.HTTP
	}
	s.echo.Use(mw.NewRequestLoggerWithSkipper(s.log.Module("http"), recorder, func(c echo.Context) bool {
		return s.config.MetricsEnabled && c.Path() == s.config.MetricsPath
	}))

	if len(s.config.AllowedOrigins) > 0 {
		s.echo.Use(mw.NewCORS(s.config.AllowedOrigins))
	}
	s.echo.Use(mw.NewSecureHeaders())
	s.echo.Use(mw.NewBodyLimit(s.config.BodyLimit))

	if s.config.RateLimitEnabled {
		s.echo.Use(mw.NewRateLimiter(s.config.RequestsPerSecond, s.config.Burst))
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes(svc v2.CameraService, health v2.HealthChecker) error {
	var opts []v2.Option
	if s.metrics != nil {
		opts = append(opts, v2.WithAuthRecorder(s.metrics.HTTP))
	}

	controller, err := v2.New(s.echo, svc, health, s.settings, s.log, opts...)
	if err != nil {
		return fmt.Errorf("failed to initialize API v2: %w", err)
	}
	s.apiController = controller

	if s.config.MetricsEnabled && s.metrics != nil {
		s.echo.GET(s.config.MetricsPath, echo.WrapHandler(s.metrics.Handler(s.log.Module("metrics"))))
	}
	return nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Serve accepts connections on l until Shutdown is called.
func (s *Server) Serve(l net.Listener) error {
	s.echo.Listener = l
	s.log.Info("Starting HTTP server", logger.String("address", l.Addr().String()))

	if err := s.echo.Start(""); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Start listens on the configured address and serves until Shutdown is called.
func (s *Server) Start() error {
	l, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.config.Address, err)
	}
	return s.Serve(l)
}

// Shutdown gracefully stops the server, waiting at most the configured shutdown timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	if s.apiController != nil {
		s.apiController.Shutdown()
	}

	if err := s.echo.Shutdown(ctx); err != nil {
		s.log.Error("Error during server shutdown", logger.Error(err))
		return fmt.Errorf("shutdown error: %w", err)
	}

	s.log.Info("HTTP server stopped")
	return nil
}
