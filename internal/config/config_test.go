package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "relver.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFull(t *testing.T) {
	path := writeConfig(t, `
workspace: /srv/mono
log:
  level: debug
  format: json
defaults:
  entry: src/index.js
  exclude: [node_modules, .git]
  pins_file: versions.pins
artifacts:
  - name: core
    path: packages/core
  - name: cli
    path: packages/cli
    entry: bin/main.js
    exclude: [fixtures]
scan:
  workers: 8
history:
  path: .relver/history.db
events:
  url: nats://localhost:4222
daemon:
  interval: 10m
  listen: ":9999"
  watch: true
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/mono", cfg.Workspace)
	assert.Equal(t, LogLevelDebug, cfg.Log.Level)
	assert.Equal(t, LogFormatJSON, cfg.Log.Format)
	assert.Equal(t, 8, cfg.Scan.Workers)
	assert.Equal(t, 10*time.Minute, cfg.Daemon.Interval)
	assert.Equal(t, "relver.decisions", cfg.Events.SubjectPrefix)

	core, ok := cfg.ArtifactByName("core")
	require.True(t, ok)
	assert.Equal(t, "/srv/mono/packages/core", core.Path)
	assert.Equal(t, "src/index.js", core.Entry)
	assert.Equal(t, "/srv/mono/versions.pins", core.PinsFile)
	assert.Equal(t, []string{"node_modules", ".git"}, core.Exclude)

	cli, ok := cfg.ArtifactByName("cli")
	require.True(t, ok)
	assert.Equal(t, "bin/main.js", cli.Entry, "explicit entry beats the default")
	assert.Equal(t, []string{"node_modules", ".git", "fixtures"}, cli.Exclude)
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "artifacts:\n  - name: core\n    path: core\n")
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, filepath.Dir(path), cfg.Workspace, "workspace defaults to the config directory")
	assert.Equal(t, LogLevelInfo, cfg.Log.Level)
	assert.Equal(t, DefaultExclusions, cfg.Defaults.Exclude)
	assert.Equal(t, 4, cfg.Scan.Workers)
	assert.Equal(t, 5*time.Minute, cfg.Daemon.Interval)
	assert.Nil(t, cfg.History)
	assert.Nil(t, cfg.Events)
}

func TestEntryNoneDisablesDefault(t *testing.T) {
	path := writeConfig(t, `
defaults:
  entry: src/index.js
artifacts:
  - name: assets
    path: assets
    entry: none
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assets, ok := cfg.ArtifactByName("assets")
	require.True(t, ok)
	assert.Empty(t, assets.Entry)
}

func TestEnvExpansion(t *testing.T) {
	t.Setenv("RELVER_TEST_WS", "/data/ws")
	path := writeConfig(t, "workspace: ${RELVER_TEST_WS}\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/ws", cfg.Workspace)
}

func TestValidation(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"missing artifact name", "artifacts:\n  - path: core\n"},
		{"missing artifact path", "artifacts:\n  - name: core\n"},
		{"duplicate artifact name", "artifacts:\n  - name: core\n    path: a\n  - name: core\n    path: b\n"},
		{"events without url", "events:\n  subject_prefix: x\n"},
		{"history without path", "history: {}\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestNormalizers(t *testing.T) {
	assert.Equal(t, LogLevelDebug, NormalizeLogLevel(" DEBUG "))
	assert.Equal(t, LogLevelInfo, NormalizeLogLevel("nonsense"))
	assert.Equal(t, LogFormatJSON, NormalizeLogFormat("JSON"))
	assert.Equal(t, LogFormatText, NormalizeLogFormat(""))
}
