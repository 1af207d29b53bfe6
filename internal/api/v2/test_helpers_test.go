package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/camrelay/internal/camera"
	"github.com/tphakala/camrelay/internal/conf"
	"github.com/tphakala/camrelay/internal/logger"
)

type mockCameraService struct {
	mock.Mock
}

func (m *mockCameraService) Create(ctx context.Context, in camera.CreateInput) (camera.CameraView, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(camera.CameraView), args.Error(1)
}

func (m *mockCameraService) Put(ctx context.Context, in camera.PutInput) (camera.CameraView, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(camera.CameraView), args.Error(1)
}

func (m *mockCameraService) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockCameraService) GetTempStreamURL(ctx context.Context, id string) (camera.StreamURLView, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(camera.StreamURLView), args.Error(1)
}

func (m *mockCameraService) List(ctx context.Context) ([]camera.CameraSummary, error) {
	args := m.Called(ctx)
	cams, _ := args.Get(0).([]camera.CameraSummary)
	return cams, args.Error(1)
}

type mockHealth struct {
	mock.Mock
}

func (m *mockHealth) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type recordingAuth struct {
	reasons []string
}

func (r *recordingAuth) RecordAuthError(reason string) {
	r.reasons = append(r.reasons, reason)
}

func testLogger() logger.Logger {
	return logger.NewSlogLogger(io.Discard, logger.LogLevelTrace, time.UTC)
}

type testEnv struct {
	e          *echo.Echo
	svc        *mockCameraService
	health     *mockHealth
	controller *Controller
}

// setupTestEnvironment builds a controller on a fresh echo instance. mutate adjusts
// the settings before the controller reads them.
func setupTestEnvironment(t *testing.T, mutate func(*conf.Settings), opts ...Option) *testEnv {
	t.Helper()

	settings := &conf.Settings{Version: "1.2.3", BuildDate: "2026-01-02"}
	if mutate != nil {
		mutate(settings)
	}

	e := echo.New()
	e.HTTPErrorHandler = HTTPErrorHandler(testLogger())

	svc := &mockCameraService{}
	health := &mockHealth{}

	controller, err := New(e, svc, health, settings, testLogger(), opts...)
	require.NoError(t, err)
	t.Cleanup(controller.Shutdown)

	return &testEnv{e: e, svc: svc, health: health, controller: controller}
}

// do serves one request through the full router.
func (env *testEnv) do(method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader = http.NoBody
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), "body: %s", rec.Body.String())
	return resp
}
