package serve

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/camrelay/internal/conf"
	"github.com/tphakala/camrelay/internal/logger"
)

func testSettings(t *testing.T) *conf.Settings {
	t.Helper()
	s := &conf.Settings{Version: "test"}
	s.Datastore.Type = conf.DatastoreSQLite
	s.Datastore.SQLite.Path = filepath.Join(t.TempDir(), "camrelay.db")
	s.Relay.Permanent.URL = "http://127.0.0.1:1"
	s.Relay.Temporary.URL = "http://127.0.0.1:2"
	s.Relay.Timeout = time.Second
	s.Metrics.Enabled = true
	s.Metrics.Path = "/metrics"
	return s
}

func TestRun_ServesUntilCancelled(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	base := "http://" + l.Addr().String()

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- run(ctx, testSettings(t), l, logger.NewSlogLogger(io.Discard, logger.LogLevelError, time.UTC))
	}()

	var health map[string]any
	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/api/v2/health")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return false
		}
		return json.NewDecoder(resp.Body).Decode(&health) == nil
	}, 5*time.Second, 20*time.Millisecond)

	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, "connected", health["database_status"])
	assert.Equal(t, "test", health["version"])

	resp, err := http.Get(base + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "http_requests_total")

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop after cancellation")
	}
}

func TestRun_BadDatastoreReleasesListener(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()

	settings := testSettings(t)
	settings.Datastore.Type = "postgres"

	err = run(t.Context(), settings, l, logger.NewSlogLogger(io.Discard, logger.LogLevelError, time.UTC))
	require.Error(t, err)

	// the port is free again
	l2, err := net.Listen("tcp", addr)
	require.NoError(t, err)
	_ = l2.Close()
}
