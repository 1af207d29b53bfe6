package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/camrelay/internal/conf"
)

func TestRootCommand_Subcommands(t *testing.T) {
	root := RootCommand(&conf.Settings{Version: "1.2.3"})

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"serve", "cameras", "config"})
	assert.Equal(t, "1.2.3", root.Version)

	for _, flag := range []string{"config", "debug", "log-level"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(flag), flag)
	}
}

func TestRootCommand_LoadsConfigBeforeSubcommand(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
logging:
  level: warn
datastore:
  sqlite:
    path: `+filepath.Join(dir, "cameras.db")+`
`), 0o600))

	settings := &conf.Settings{Version: "1.2.3", BuildDate: "2026-10-01"}
	root := RootCommand(settings)

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"--config", cfgPath, "config", "init", filepath.Join(dir, "effective.yaml")})
	require.NoError(t, root.Execute())

	assert.Equal(t, cfgPath, settings.ConfigFile)
	assert.Equal(t, "warn", settings.Logging.Level)
	assert.Equal(t, "1.2.3", settings.Version, "build metadata survives the reload")
	assert.Equal(t, "2026-10-01", settings.BuildDate)
	assert.FileExists(t, filepath.Join(dir, "effective.yaml"))
}
