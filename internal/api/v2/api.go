// internal/api/v2/api.go
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tphakala/camrelay/internal/camera"
	"github.com/tphakala/camrelay/internal/conf"
	"github.com/tphakala/camrelay/internal/logger"
)

// CameraService is the set of camera use cases the API exposes.
type CameraService interface {
	Create(ctx context.Context, in camera.CreateInput) (camera.CameraView, error)
	Put(ctx context.Context, in camera.PutInput) (camera.CameraView, error)
	Delete(ctx context.Context, id string) error
	GetTempStreamURL(ctx context.Context, id string) (camera.StreamURLView, error)
	List(ctx context.Context) ([]camera.CameraSummary, error)
}

// HealthChecker reports whether the metadata store is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// AuthErrorRecorder counts rejected bearer tokens.
type AuthErrorRecorder interface {
	RecordAuthError(reason string)
}

// healthCheckTimeout bounds the store ping of the health endpoint.
const healthCheckTimeout = 2 * time.Second

// Controller manages the API routes and handlers
type Controller struct {
	Echo     *echo.Echo
	Group    *echo.Group
	Service  CameraService
	Health   HealthChecker
	Settings *conf.Settings

	log            logger.Logger
	authMiddleware echo.MiddlewareFunc
	authRecorder   AuthErrorRecorder
	idempotency    *idempotencyCache
	startTime      time.Time
}

// Option is a functional option for configuring the Controller.
type Option func(*Controller)

// WithAuthMiddleware overrides the bearer token middleware built from the auth settings.
func WithAuthMiddleware(mw echo.MiddlewareFunc) Option {
	return func(c *Controller) {
		c.authMiddleware = mw
	}
}

// WithAuthRecorder sets the metrics recorder for rejected tokens.
func WithAuthRecorder(r AuthErrorRecorder) Option {
	return func(c *Controller) {
		c.authRecorder = r
	}
}

// New creates the v2 API controller and registers its routes under /api/v2.
func New(e *echo.Echo, svc CameraService, health HealthChecker, settings *conf.Settings,
	log logger.Logger, opts ...Option) (*Controller, error) {
	if log == nil {
		log = logger.Global()
	}

	c := &Controller{
		Echo:      e,
		Group:     e.Group("/api/v2"),
		Service:   svc,
		Health:    health,
		Settings:  settings,
		log:       log.Module("api"),
		startTime: time.Now(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.authMiddleware == nil && settings.Auth.Enabled {
		mw, err := newAuthMiddleware(settings.Auth, c.authRecorder, c.log)
		if err != nil {
			return nil, err
		}
		c.authMiddleware = mw
	}

	c.idempotency = newIdempotencyCache(settings.HTTP.Idempotency.TTL)

	c.initRoutes()
	return c, nil
}

// initRoutes registers all API endpoints
func (c *Controller) initRoutes() {
	// Health check endpoint - publicly accessible
	c.Group.GET("/health", c.HealthCheck)

	var mws []echo.MiddlewareFunc
	if c.authMiddleware != nil {
		mws = append(mws, c.authMiddleware)
	}
	c.initCameraRoutes(c.Group.Group("/cameras", mws...))
}

// HealthCheck handles the API health check endpoint
func (c *Controller) HealthCheck(ctx echo.Context) error {
	response := map[string]any{
		"status":          "healthy",
		"version":         c.Settings.Version,
		"build_date":      c.Settings.BuildDate,
		"timestamp":       time.Now().Format(time.RFC3339),
		"uptime_seconds":  time.Since(c.startTime).Seconds(),
		"database_status": "connected",
	}

	pingCtx, cancel := context.WithTimeout(ctx.Request().Context(), healthCheckTimeout)
	defer cancel()

	if err := c.Health.Ping(pingCtx); err != nil {
		c.log.Warn("health check: datastore unreachable", logger.Error(err))
		response["status"] = "degraded"
		response["database_status"] = "disconnected"
	}

	return ctx.JSON(http.StatusOK, response)
}

// Shutdown releases controller resources
func (c *Controller) Shutdown() {
	// The go-cache janitor goroutine cannot be stopped; flushing at least drops the entries.
	c.idempotency.flush()
	c.log.Debug("API controller shut down")
}
