package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30, cfg.Server.DecideRPM)

	assert.Equal(t, 0.6, cfg.Coach.ActivationThreshold)
	assert.True(t, cfg.Coach.PersonalizedTips)
	assert.Equal(t, 100, cfg.Coach.VectorHistorySize)

	assert.Equal(t, 5, cfg.Scheduler.MaxPerDay)
	assert.Equal(t, 3600.0, cfg.Scheduler.MinIntervalSeconds)
	assert.Equal(t, 22, cfg.Scheduler.QuietStartHour)
	assert.Equal(t, 7, cfg.Scheduler.QuietEndHour)

	assert.Equal(t, 1500, cfg.Signals.TimeoutMillis)
	assert.Equal(t, 3, cfg.Signals.BreakerFailures)

	assert.False(t, cfg.Notify.Telegram.Enabled)

	assert.True(t, cfg.Cron.Enabled)
	assert.Equal(t, "*/15 * * * *", cfg.Cron.DecideSpec)
	assert.Equal(t, 90, cfg.Cron.PruneMaxAge)
}

func TestLoad_PathsDerivedFromDataDir(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load("", dir)
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.Storage.DataDir)
	assert.Equal(t, filepath.Join(dir, "quitcoach.db"), cfg.Storage.SQLitePath)
	assert.Equal(t, filepath.Join(dir, "badger"), cfg.Storage.BadgerPath)
}

func TestLoad_ConfigFileOverrides(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "quitcoach.yaml")
	content := []byte(`
scheduler:
  max_per_day: 2
  quiet_start_hour: 21
coach:
  activation_threshold: 0.75
`)
	require.NoError(t, os.WriteFile(configPath, content, 0644))

	cfg, err := Load(configPath, dir)
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Scheduler.MaxPerDay)
	assert.Equal(t, 21, cfg.Scheduler.QuietStartHour)
	assert.Equal(t, 0.75, cfg.Coach.ActivationThreshold)
	// Untouched keys keep their defaults.
	assert.Equal(t, 7, cfg.Scheduler.QuietEndHour)
}

func TestLoad_ValidationRejectsBadValues(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "quitcoach.yaml")

	cases := []struct {
		name    string
		content string
	}{
		{"negative cap", "scheduler:\n  max_per_day: -1\n"},
		{"quiet hour out of range", "scheduler:\n  quiet_start_hour: 24\n"},
		{"threshold above one", "coach:\n  activation_threshold: 1.5\n"},
		{"telegram without token", "notify:\n  telegram:\n    enabled: true\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.NoError(t, os.WriteFile(configPath, []byte(tc.content), 0644))
			_, err := Load(configPath, dir)
			assert.Error(t, err)
		})
	}
}

func TestLoad_TelegramTokenFromEnv(t *testing.T) {
	t.Setenv("QUITCOACH_TELEGRAM_BOT_TOKEN", "123:abc")

	cfg, err := Load("", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "123:abc", cfg.Notify.Telegram.BotToken)
}
