package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "release", cfg.Mode)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, int64(65536), cfg.ReadLimit)
	assert.Equal(t, 30*time.Second, cfg.PingPeriod)
	assert.Equal(t, 64, cfg.SendBuffer)
	assert.Equal(t, "connectify.events", cfg.AMQPExchange)
	require.Len(t, cfg.ICEServers, 1)
	assert.Equal(t, []string{"stun:stun.l.google.com:19302"}, cfg.ICEServers[0].URLs)

	assert.Empty(t, cfg.AI.APIKey)
	assert.Equal(t, "gemini-2.5-flash", cfg.AI.PrimaryModel)
	assert.Equal(t, 2, cfg.AI.PrimaryAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.AI.BackoffBase)

	assert.Equal(t, []string{"hey connectify", "connectify"}, cfg.Assistant.WakePhrases)
	assert.Equal(t, 4, cfg.Assistant.QueueSize)
	assert.Equal(t, 30*time.Second, cfg.Assistant.TriggerWindow)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
mode: debug
port: 9090
ping_period: 10s
ice_servers:
  - urls: ["turn:turn.example.com:3478"]
    username: user
    credential: pass
ai:
  primary_model: gemini-test
assistant:
  queue_size: 8
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Mode)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 10*time.Second, cfg.PingPeriod)
	require.Len(t, cfg.ICEServers, 1)
	assert.Equal(t, "user", cfg.ICEServers[0].Username)
	assert.Equal(t, "gemini-test", cfg.AI.PrimaryModel)
	assert.Equal(t, "gemini-2.0-flash", cfg.AI.FallbackModel)
	assert.Equal(t, 8, cfg.Assistant.QueueSize)
	assert.Equal(t, 5, cfg.Assistant.TriggerLimit)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	t.Setenv("CONNECTIFY_AI_API_KEY", "from-env")
	t.Setenv("CONNECTIFY_PORT", "7070")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.AI.APIKey)
	assert.Equal(t, 7070, cfg.Port)
}
