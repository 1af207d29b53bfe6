package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/camrelay/internal/conf"
)

func execute(t *testing.T, settings *conf.Settings, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := Command(settings)
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	err := cmd.Execute()
	return out.String(), err
}

func TestInit_WritesLoadableConfig(t *testing.T) {
	t.Parallel()

	settings := &conf.Settings{}
	settings.Logging.Level = "info"
	settings.Logging.Format = "json"
	settings.HTTP.Port = 9191
	settings.Datastore.Type = conf.DatastoreSQLite
	settings.Datastore.SQLite.Path = "cameras.db"
	settings.Relay.Permanent.URL = "http://relay-a:8090"
	settings.Relay.Temporary.URL = "http://relay-b:8091"

	path := filepath.Join(t.TempDir(), "config.yaml")
	out, err := execute(t, settings, "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	v := viper.New()
	v.Set("config", path)
	loaded, err := conf.LoadWith(v)
	require.NoError(t, err)
	assert.Equal(t, 9191, loaded.HTTP.Port)
	assert.Equal(t, "http://relay-a:8090", loaded.Relay.Permanent.URL)
}

func TestInit_RefusesOverwrite(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("debug: true\n"), 0o600))

	_, err := execute(t, &conf.Settings{}, "init", path)
	require.Error(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "debug: true\n", string(data))

	_, err = execute(t, &conf.Settings{}, "init", "--force", path)
	require.NoError(t, err)
}
