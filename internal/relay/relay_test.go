package relay

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/camrelay/internal/camera"
	"github.com/tphakala/camrelay/internal/errors"
	"github.com/tphakala/camrelay/internal/logger"
)

const (
	permanentBase = "http://permanent.relay:8080"
	temporaryBase = "http://temporary.relay:8081"
)

type recordedRequest struct {
	service string
	method  string
	status  int
}

type fakeRecorder struct {
	mu       sync.Mutex
	requests []recordedRequest
}

func (r *fakeRecorder) RecordRelayRequest(service, method string, statusCode int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, recordedRequest{service, method, statusCode})
}

func testLogger() logger.Logger {
	return logger.NewSlogLogger(io.Discard, logger.LogLevelTrace, time.UTC)
}

func newPermanent(t *testing.T, transport http.RoundTripper, opts ...Option) *PermanentClient {
	t.Helper()
	opts = append([]Option{WithLogger(testLogger())}, opts...)
	c, err := NewPermanentClient(Config{BaseURL: permanentBase + "/", Transport: transport}, opts...)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func newTemporary(t *testing.T, transport http.RoundTripper, opts ...Option) *TemporaryClient {
	t.Helper()
	opts = append([]Option{WithLogger(testLogger())}, opts...)
	c, err := NewTemporaryClient(Config{BaseURL: temporaryBase, Transport: transport}, opts...)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func decodeBody(t *testing.T, req *http.Request) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
	return body
}

func TestNewClient_RejectsBadBaseURL(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "permanent.relay", "ftp://relay", "http://", "::bad"} {
		_, err := NewPermanentClient(Config{BaseURL: raw})
		require.Error(t, err, "base url %q", raw)
		assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
	}
}

func TestPermanentClient_PutStream(t *testing.T) {
	t.Parallel()

	mt := httpmock.NewMockTransport()
	mt.RegisterResponder(http.MethodPut, permanentBase+"/streams/permanent/0190-relay",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
			assert.Equal(t, map[string]any{
				"id":         "0190-relay",
				"name":       "cam-1",
				"source_url": "rtsp://1.2.3.4/live",
				"down_scale": false,
				"expirable":  false,
			}, decodeBody(t, req))
			return httpmock.NewJsonResponse(http.StatusOK, map[string]string{
				"id":   "0190-relay",
				"name": "cam-1",
				"url":  "rtsp://permanent.relay:8554/0190-relay",
			})
		})

	rec := &fakeRecorder{}
	c := newPermanent(t, mt, WithRecorder(rec))

	got, err := c.PutStream(t.Context(), camera.PutStreamRequest{RelayID: "0190-relay", Name: "cam-1", URL: "rtsp://1.2.3.4/live"})
	require.NoError(t, err)
	assert.Equal(t, camera.PermanentStream{ID: "0190-relay", Name: "cam-1", URL: "rtsp://permanent.relay:8554/0190-relay"}, got)
	assert.Equal(t, 1, mt.GetTotalCallCount())
	assert.Equal(t, []recordedRequest{{ServicePermanent, http.MethodPut, http.StatusOK}}, rec.requests)
}

func TestPermanentClient_PutStreamNon2xx(t *testing.T) {
	t.Parallel()

	mt := httpmock.NewMockTransport()
	mt.RegisterResponder(http.MethodPut, `=~^http://permanent\.relay:8080/streams/permanent/`,
		httpmock.NewStringResponder(http.StatusServiceUnavailable, "ffmpeg pool exhausted"))

	c := newPermanent(t, mt)

	_, err := c.PutStream(t.Context(), camera.PutStreamRequest{RelayID: "r1", Name: "cam-1", URL: "rtsp://x"})
	require.Error(t, err)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	assert.Equal(t, "ffmpeg pool exhausted", statusErr.Body)
	assert.True(t, errors.IsCategory(err, errors.CategoryRelay))
	assert.Contains(t, err.Error(), "permanent relay PUT /streams/permanent/r1 returned 503")
	assert.Equal(t, 1, mt.GetTotalCallCount(), "no retries")
}

func TestPermanentClient_PutStreamMalformedResponse(t *testing.T) {
	t.Parallel()

	mt := httpmock.NewMockTransport()
	mt.RegisterResponder(http.MethodPut, `=~/streams/permanent/`,
		httpmock.NewStringResponder(http.StatusOK, "<html>proxy</html>"))

	c := newPermanent(t, mt)

	_, err := c.PutStream(t.Context(), camera.PutStreamRequest{RelayID: "r1", Name: "cam-1", URL: "rtsp://x"})
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryContract))
}

func TestPermanentClient_RemoveStream(t *testing.T) {
	t.Parallel()

	mt := httpmock.NewMockTransport()
	mt.RegisterResponder(http.MethodDelete, permanentBase+"/streams/cam-1",
		httpmock.NewStringResponder(http.StatusNoContent, ""))
	mt.RegisterResponder(http.MethodDelete, permanentBase+"/streams/gone",
		httpmock.NewStringResponder(http.StatusNotFound, `{"error":"stream not found"}`))
	mt.RegisterResponder(http.MethodDelete, permanentBase+"/streams/busy",
		httpmock.NewStringResponder(http.StatusServiceUnavailable, `{"error":"relay busy"}`))

	rec := &fakeRecorder{}
	c := newPermanent(t, mt, WithRecorder(rec))

	require.NoError(t, c.RemoveStream(t.Context(), "cam-1"))
	require.NoError(t, c.RemoveStream(t.Context(), "gone"), "nothing to remove counts as removed")

	err := c.RemoveStream(t.Context(), "busy")
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)

	require.Len(t, rec.requests, 3)
	assert.Equal(t, http.StatusNotFound, rec.requests[1].status)
}

func TestPermanentClient_RemoveStreamEscapesID(t *testing.T) {
	t.Parallel()

	mt := httpmock.NewMockTransport()
	mt.RegisterResponder(http.MethodDelete, permanentBase+"/streams/a%2Fb",
		httpmock.NewStringResponder(http.StatusOK, ""))

	c := newPermanent(t, mt)
	require.NoError(t, c.RemoveStream(t.Context(), "a/b"))
}

func TestPermanentClient_ListStreams(t *testing.T) {
	t.Parallel()

	mt := httpmock.NewMockTransport()
	mt.RegisterResponder(http.MethodGet, permanentBase+"/streams",
		httpmock.NewStringResponder(http.StatusOK, `[
			{"id":"r1","name":"cam-1","url":"rtsp://relay/r1","added_at":"2026-01-01T00:00:00Z","expirable":false},
			{"id":"r2","name":"cam-2","url":"rtsp://relay/r2","added_at":"2026-01-02T00:00:00Z","expirable":false}
		]`))
	mt.RegisterResponder(http.MethodGet, "http://empty.relay/streams",
		httpmock.NewStringResponder(http.StatusOK, `null`))

	c := newPermanent(t, mt)
	streams, err := c.ListStreams(t.Context())
	require.NoError(t, err)
	require.Len(t, streams, 2)
	assert.Equal(t, "cam-2", streams[1].Name)
	assert.Equal(t, "2026-01-01T00:00:00Z", streams[0].AddedAt)

	empty, err := NewPermanentClient(Config{BaseURL: "http://empty.relay", Transport: mt}, WithLogger(testLogger()))
	require.NoError(t, err)
	defer empty.Close()
	none, err := empty.ListStreams(t.Context())
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestPermanentClient_TransportError(t *testing.T) {
	t.Parallel()

	mt := httpmock.NewMockTransport()
	mt.RegisterResponder(http.MethodDelete, `=~/streams/`, httpmock.NewErrorResponder(io.ErrUnexpectedEOF))

	rec := &fakeRecorder{}
	c := newPermanent(t, mt, WithRecorder(rec))

	err := c.RemoveStream(t.Context(), "cam-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.True(t, errors.IsCategory(err, errors.CategoryNetwork))
	require.Len(t, rec.requests, 1)
	assert.Equal(t, 0, rec.requests[0].status, "no response means status 0")
}

func TestTemporaryClient_GetStream(t *testing.T) {
	t.Parallel()

	mt := httpmock.NewMockTransport()
	mt.RegisterResponder(http.MethodPost, temporaryBase+"/streams",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, map[string]any{
				"name":       "cam-1",
				"source_url": "rtsp://permanent.relay:8554/r1",
				"down_scale": true,
				"expirable":  true,
			}, decodeBody(t, req))
			return httpmock.NewStringResponse(http.StatusOK,
				`{"id":"t1","name":"cam-1","url":"rtsp://temporary.relay/t1","expiration_date":"2026-05-01T12:30:00+02:00"}`), nil
		})

	c := newTemporary(t, mt)

	got, err := c.GetStream(t.Context(), "cam-1", "rtsp://permanent.relay:8554/r1")
	require.NoError(t, err)
	assert.Equal(t, "t1", got.ID)
	assert.Equal(t, "rtsp://temporary.relay/t1", got.URL)
	require.NotNil(t, got.ExpirationDate)
	assert.True(t, got.ExpirationDate.Equal(time.Date(2026, 5, 1, 10, 30, 0, 0, time.UTC)))
}

func TestTemporaryClient_GetStreamWithoutExpiration(t *testing.T) {
	t.Parallel()

	for _, body := range []string{
		`{"id":"t1","name":"cam-1","url":"rtsp://temporary.relay/t1"}`,
		`{"id":"t1","name":"cam-1","url":"rtsp://temporary.relay/t1","expiration_date":null}`,
	} {
		mt := httpmock.NewMockTransport()
		mt.RegisterResponder(http.MethodPost, temporaryBase+"/streams", httpmock.NewStringResponder(http.StatusOK, body))

		c := newTemporary(t, mt)
		got, err := c.GetStream(t.Context(), "cam-1", "rtsp://p")
		require.NoError(t, err)
		assert.Nil(t, got.ExpirationDate)
	}
}

func TestTemporaryClient_GetStreamBadExpiration(t *testing.T) {
	t.Parallel()

	mt := httpmock.NewMockTransport()
	mt.RegisterResponder(http.MethodPost, temporaryBase+"/streams",
		httpmock.NewStringResponder(http.StatusOK, `{"id":"t1","expiration_date":"tomorrow"}`))

	c := newTemporary(t, mt)
	_, err := c.GetStream(t.Context(), "cam-1", "rtsp://p")
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryContract))
}

func TestTemporaryClient_Non2xx(t *testing.T) {
	t.Parallel()

	mt := httpmock.NewMockTransport()
	mt.RegisterResponder(http.MethodPost, temporaryBase+"/streams",
		httpmock.NewStringResponder(http.StatusBadGateway, "upstream camera offline"))

	rec := &fakeRecorder{}
	c := newTemporary(t, mt, WithRecorder(rec))
	_, err := c.GetStream(t.Context(), "cam-1", "rtsp://p")

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, ServiceTemporary, statusErr.Service)
	assert.Equal(t, []recordedRequest{{ServiceTemporary, http.MethodPost, http.StatusBadGateway}}, rec.requests)
}

func TestTransportErrorCategories(t *testing.T) {
	t.Parallel()

	c := newPermanent(t, httpmock.NewMockTransport())

	tests := []struct {
		cause error
		want  errors.ErrorCategory
	}{
		{context.Canceled, errors.CategoryCancellation},
		{context.DeadlineExceeded, errors.CategoryTimeout},
		{io.ErrUnexpectedEOF, errors.CategoryNetwork},
	}
	for _, tt := range tests {
		err := c.transportError(t.Context(), http.MethodGet, "/streams", tt.cause, time.Millisecond)
		assert.ErrorIs(t, err, tt.cause)
		assert.True(t, errors.IsCategory(err, tt.want), "cause %v", tt.cause)
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab...", truncate("abcdef", 2))
}

func TestErrorBody(t *testing.T) {
	t.Parallel()

	html := []byte(`<html><body><h1>502 Bad Gateway</h1><hr><center>nginx</center></body></html>`)
	got := errorBody("text/html; charset=utf-8", html)
	assert.NotContains(t, got, "<h1>")
	assert.Contains(t, got, "502 Bad Gateway")

	assert.Equal(t, `{"error":"busy"}`, errorBody("application/json", []byte(`  {"error":"busy"}`+"\n")))
}
