package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromWritesTemplateOnFirstRun(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "home")

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)
	assert.Equal(t, defaultConfig().resolve(dir), cfg)

	data, err := os.ReadFile(filepath.Join(dir, fileName))
	require.NoError(t, err)
	assert.Equal(t, configTemplate, string(data))

	// The template itself decodes to the defaults.
	again, err := LoadFrom(dir)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoadFromPartialFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, fileName), []byte(`
storage:
  backend: sqlite
  dir: data
remote:
  base_url: ""
  timeout: 3s
log:
  level: debug
`), 0o600))

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.Equal(t, filepath.Join(dir, "data"), cfg.Storage.Dir)
	assert.Empty(t, cfg.Remote.BaseURL, "an explicit empty URL disables sync")
	assert.Equal(t, 3*time.Second, cfg.Remote.Timeout)
	assert.Equal(t, DefaultFlushInterval, cfg.Outbox.FlushInterval)
	assert.Equal(t, DefaultTickInterval, cfg.Tracker.TickInterval)
	assert.Equal(t, DefaultServerAddr, cfg.Server.Addr)
	assert.Equal(t, filepath.Join(dir, "server.db"), cfg.Server.DB)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel())
}

func TestLoadFromAbsolutePaths(t *testing.T) {
	dir := t.TempDir()
	data := filepath.Join(t.TempDir(), "elsewhere")
	require.NoError(t, os.WriteFile(filepath.Join(dir, fileName),
		[]byte("storage:\n  dir: "+data+"\nserver:\n  db: "+data+"/s.db\n"), 0o600))

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)
	assert.Equal(t, data, cfg.Storage.Dir)
	assert.Equal(t, filepath.Join(data, "s.db"), cfg.Server.DB)
}

func TestLoadFromInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"syntax", "storage: [\n"},
		{"backend", "storage:\n  backend: redis\n"},
		{"level", "log:\n  level: loud\n"},
		{"duration", "remote:\n  timeout: soon\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, fileName), []byte(tt.body), 0o600))

			cfg, err := LoadFrom(dir)
			require.Error(t, err)
			assert.Equal(t, defaultConfig().resolve(dir), cfg, "defaults are returned on error")
		})
	}
}

func TestHomeFromEnv(t *testing.T) {
	t.Setenv("GTRACK_HOME", "/tmp/gtrack-test")
	home, err := Home()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/gtrack-test", home)
}
