package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guidryheal-create/trader.exe-sub001/internal/infrastructure/config"
)

func TestLoadConfig_DefaultsWithoutFile(t *testing.T) {
	// Arrange
	t.Chdir(t.TempDir())

	// Act
	cfg, err := config.LoadConfig("")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, "localhost:6379", cfg.Redis.Address)
	assert.Equal(t, "https://gamma-api.polymarket.com", cfg.Gamma.BaseURL)
	assert.Equal(t, "/tmp/traderd.pid", cfg.Daemon.PIDFile)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadConfig_FromYAMLFile(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
database:
  type: postgres
  host: db.internal
redis:
  address: redis.internal:6379
daemon:
  wallet_address: "0xabc"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	// Act
	cfg, err := config.LoadConfig(path)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Database.Type)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "redis.internal:6379", cfg.Redis.Address)
	assert.Equal(t, "0xabc", cfg.Daemon.WalletAddress)
	// untouched fields still get defaults
	assert.Equal(t, 5432, cfg.Database.Port)
}

func TestLoadConfig_RedisURLOverridesAddress(t *testing.T) {
	// Arrange
	t.Chdir(t.TempDir())
	t.Setenv("REDIS_URL", "redis-env:6380")

	// Act
	cfg, err := config.LoadConfig("")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "redis-env:6380", cfg.Redis.Address)
}

func TestLoadConfig_RejectsUnknownDatabaseType(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database:\n  type: oracle\n"), 0o644))

	// Act
	_, err := config.LoadConfig(path)

	// Assert
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestLoadConfigOrDefault_FallsBackOnError(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database:\n  type: oracle\n"), 0o644))

	// Act
	cfg := config.LoadConfigOrDefault(path)

	// Assert
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, "localhost:6379", cfg.Redis.Address)
}
