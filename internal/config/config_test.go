package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "hourly", cfg.Schedule.Mode)
	assert.Equal(t, 60, cfg.Schedule.IntervalMinutes)
	assert.Equal(t, 30*time.Second, cfg.Markup.Timeout)
	assert.Equal(t, "BTC/USD", cfg.FearGreed.Instrument)
	assert.False(t, cfg.FearGreed.Disabled)
	assert.Equal(t, "file", cfg.Detector.Store)
	assert.Equal(t, "HIGH", cfg.Telegram.MinImportance)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.TelegramEnabled())
}

func TestLoad_YAMLAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
markup:
  url: https://example.com/outlook
  timeout: 5s
schedule:
  mode: interval
  interval_minutes: 15
telegram:
  bot_token: from-file
  chat_id: "42"
`), 0o644))

	t.Setenv("TELEGRAM_BOT_TOKEN", "from-env")
	t.Setenv("SCHEDULE_INTERVAL_MINUTES", "5")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "https://example.com/outlook", cfg.Markup.URL)
	assert.Equal(t, 5*time.Second, cfg.Markup.Timeout)
	assert.Equal(t, "interval", cfg.Schedule.Mode)
	assert.Equal(t, 5, cfg.Schedule.IntervalMinutes)
	assert.Equal(t, "from-env", cfg.Telegram.BotToken)
	assert.True(t, cfg.TelegramEnabled())
}

func TestValidate_RejectsBadValues(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	cfg.Schedule.Mode = "sometimes"
	assert.Error(t, cfg.Validate())

	cfg.Schedule.Mode = "hourly"
	cfg.Telegram.BotToken = "token-only"
	assert.Error(t, cfg.Validate())
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("markup: [unclosed"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}
