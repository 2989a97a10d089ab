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
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o644))
	return dir
}

func TestLoadConfigDefaults(t *testing.T) {
	dir := writeConfig(t, `
server:
  mode: debug
database:
  driver: sqlite
storage:
  type: memory
`)

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 10000, cfg.AI.TokenBudget)
	assert.Equal(t, 4, cfg.AI.CharsPerToken)
	assert.Equal(t, time.Minute, cfg.AI.BudgetWindow())
	assert.Equal(t, "gpt-4o", cfg.AI.Model)
	assert.Equal(t, "gorm", cfg.AI.UsageStore)
	assert.Equal(t, 72*time.Hour, cfg.JWT.ExpireTime)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window())
	assert.Equal(t, "logs/app.log", cfg.Log.File)
	assert.Equal(t, 100, cfg.Log.MaxSizeMB)
	assert.Empty(t, cfg.Log.Level)
}

func TestLoadConfigOverrides(t *testing.T) {
	dir := writeConfig(t, `
database:
  driver: sqlite
storage:
  type: memory
ai:
  token_budget: 500
  budget_window_seconds: 30
  chars_per_token: 3
`)

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, 500, cfg.AI.TokenBudget)
	assert.Equal(t, 30*time.Second, cfg.AI.BudgetWindow())
	assert.Equal(t, 3, cfg.AI.CharsPerToken)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Server:   ServerConfig{Mode: "debug"},
			Database: DatabaseConfig{Driver: "sqlite"},
			AI:       AIConfig{TokenBudget: 10000, BudgetWindowSeconds: 60, CharsPerToken: 4, UsageStore: "gorm"},
		}
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, base().Validate())
	})

	t.Run("short secret in release", func(t *testing.T) {
		cfg := base()
		cfg.Server.Mode = "release"
		cfg.JWT.Secret = "short"
		assert.Error(t, cfg.Validate())
	})

	t.Run("unknown driver", func(t *testing.T) {
		cfg := base()
		cfg.Database.Driver = "oracle"
		assert.Error(t, cfg.Validate())
	})

	t.Run("zero budget", func(t *testing.T) {
		cfg := base()
		cfg.AI.TokenBudget = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("redis usage store without redis", func(t *testing.T) {
		cfg := base()
		cfg.AI.UsageStore = "redis"
		assert.Error(t, cfg.Validate())
	})
}
