package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadYAMLOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
server:
  port: 9090
engine:
  tick_rate: 30
  broadcast_every: 2
log_level: debug
publish_stats: false
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 30, cfg.Engine.TickRate)
	assert.Equal(t, 2, cfg.Engine.BroadcastEvery)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.False(t, cfg.PublishStats)
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("PORT", "7000")
	t.Setenv("NATS_URL", "nats://queue:4222")
	t.Setenv("PUBLISH_STATS", "false")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "nats://queue:4222", cfg.NATS.URL)
	assert.False(t, cfg.PublishStats)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("PORT", "99999")
	_, err := Load("")
	assert.Error(t, err)
}

func TestLoadRejectsBadTickRate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("engine:\n  tick_rate: -5\n"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}
