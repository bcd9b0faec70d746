package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
tcp:
  addr: ":9999"
logging:
  env: prod
  backend: zap
limits:
  idleTimeout: 90s
defaultRoom: plaza
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.TCP.Addr)
	assert.Equal(t, "prod", cfg.Logging.Env)
	assert.Equal(t, "zap", cfg.Logging.Backend)
	assert.Equal(t, "plaza", cfg.DefaultRoom)
	assert.Equal(t, 90*time.Second, cfg.IdleTimeout())

	// unset values still get defaults
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 1<<20, cfg.Limits.MaxFrameBytes)
	assert.Equal(t, 256, cfg.Limits.SendQueueSize)
	assert.Equal(t, "presence-server", cfg.Logging.Service)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "tcp: [not a map")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, ":7777", cfg.TCP.Addr)
	assert.Equal(t, "lobby", cfg.DefaultRoom)
	assert.Equal(t, "std", cfg.Logging.Backend)
	assert.Equal(t, time.Duration(0), cfg.IdleTimeout(), "liveness deadline is off by default")
}

func TestIdleTimeout_Malformed(t *testing.T) {
	cfg := Default()
	cfg.Limits.IdleTimeout = "ninety seconds"
	assert.Equal(t, time.Duration(0), cfg.IdleTimeout())
}
