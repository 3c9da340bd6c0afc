package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "/api", cfg.APIServer.Prefix)
	assert.Equal(t, 24*time.Hour, cfg.Auth.JWTExpiry)
	assert.Equal(t, RelayModeLocal, cfg.Relay.Mode)
	assert.Equal(t, 10, cfg.Search.Limit)
	assert.Equal(t, 2, cfg.Search.MinQueryLength)
	assert.Equal(t, "/ws", cfg.WebSocket.Path)
}

func TestLoadConfigFileOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("DATABASE:\n  TYPE: sqlite\n  PATH: test.db\nRELAY:\n  MODE: kafka\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, "test.db", cfg.Database.Path)
	assert.Equal(t, RelayModeKafka, cfg.Relay.Mode)
	// 未覆盖的键保持默认值
	assert.Equal(t, "4000", cfg.APIServer.Port)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("SEARCH_LIMIT", "25")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.Search.Limit)
}
