package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tphakala/camrelay/internal/api/middleware"
	"github.com/tphakala/camrelay/internal/camera"
)

// HeaderIdempotentReplayed marks a response served from the idempotency cache.
const HeaderIdempotentReplayed = "Idempotent-Replayed"

// cameraRequest is the body of POST /cameras and PUT /cameras/:id.
type cameraRequest struct {
	Name      string `json:"name"`
	SourceURL string `json:"source_url"`
}

// initCameraRoutes registers the camera lifecycle endpoints on g.
func (c *Controller) initCameraRoutes(g *echo.Group) {
	g.GET("", c.ListCameras)
	g.POST("", c.CreateCamera)
	g.PUT("/:id", c.PutCamera)
	g.DELETE("/:id", c.DeleteCamera)
	g.GET("/:id/temp-stream", c.GetTempStream)
}

// bindCamera decodes the JSON body only; path and query values never reach the request.
func bindCamera(ctx echo.Context) (cameraRequest, error) {
	var req cameraRequest
	err := (&echo.DefaultBinder{}).BindBody(ctx, &req)
	return req, err
}

// ListCameras handles GET /api/v2/cameras
func (c *Controller) ListCameras(ctx echo.Context) error {
	cams, err := c.Service.List(ctx.Request().Context())
	if err != nil {
		return c.HandleError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, cams)
}

// CreateCamera handles POST /api/v2/cameras. With an Idempotency-Key header a
// successful result is remembered and replayed for retries carrying the same key.
func (c *Controller) CreateCamera(ctx echo.Context) error {
	req, err := bindCamera(ctx)
	if err != nil {
		return badBody(ctx, err)
	}

	in := camera.CreateInput{Name: req.Name, SourceURL: req.SourceURL}
	reqCtx := ctx.Request().Context()

	key := ctx.Request().Header.Get(middleware.HeaderIdempotencyKey)
	if key == "" {
		view, err := c.Service.Create(reqCtx, in)
		if err != nil {
			return c.HandleError(ctx, err)
		}
		return ctx.JSON(http.StatusCreated, view)
	}

	view, replayed, err := c.idempotency.do(key, in, func() (camera.CameraView, error) {
		return c.Service.Create(reqCtx, in)
	})
	switch {
	case errors.Is(err, errIdempotencyMismatch):
		return ctx.JSON(http.StatusConflict, ErrorResponse{Message: msgIdempotencyReuse})
	case err != nil:
		return c.HandleError(ctx, err)
	}

	if replayed {
		ctx.Response().Header().Set(HeaderIdempotentReplayed, "true")
	}
	return ctx.JSON(http.StatusCreated, view)
}

// PutCamera handles PUT /api/v2/cameras/:id
func (c *Controller) PutCamera(ctx echo.Context) error {
	req, err := bindCamera(ctx)
	if err != nil {
		return badBody(ctx, err)
	}

	view, err := c.Service.Put(ctx.Request().Context(), camera.PutInput{
		ID:        ctx.Param("id"),
		Name:      req.Name,
		SourceURL: req.SourceURL,
	})
	if err != nil {
		return c.HandleError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, view)
}

// DeleteCamera handles DELETE /api/v2/cameras/:id
func (c *Controller) DeleteCamera(ctx echo.Context) error {
	if err := c.Service.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return c.HandleError(ctx, err)
	}
	return ctx.NoContent(http.StatusNoContent)
}

// GetTempStream handles GET /api/v2/cameras/:id/temp-stream
func (c *Controller) GetTempStream(ctx echo.Context) error {
	view, err := c.Service.GetTempStreamURL(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return c.HandleError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, view)
}
