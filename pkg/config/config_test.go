package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := LoadFrom(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.ListenAddr)
	assert.Equal(t, 10, cfg.Server.ShutdownTimeoutS)
	assert.Equal(t, 0, cfg.Broker.Workers)
	assert.Equal(t, 10000, cfg.Broker.QueueSize)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte(`
server:
  listen_addr: ":9999"
  shutdown_timeout_s: 3
broker:
  workers: 8
  queue_size: 512
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o644))

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.Server.ListenAddr)
	assert.Equal(t, 3, cfg.Server.ShutdownTimeoutS)
	assert.Equal(t, 8, cfg.Broker.Workers)
	assert.Equal(t, 512, cfg.Broker.QueueSize)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte("server:\n  listen_addr: \":7070\"\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o644))

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Server.ListenAddr)
	assert.Equal(t, 10, cfg.Server.ShutdownTimeoutS)
	assert.Equal(t, 10000, cfg.Broker.QueueSize)
}
