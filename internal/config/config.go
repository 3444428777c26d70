package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for quitcoach
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Coach     CoachConfig     `mapstructure:"coach"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Signals   SignalsConfig   `mapstructure:"signals"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	Cron      CronConfig      `mapstructure:"cron"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Address      string `mapstructure:"address"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
	DecideRPM    int    `mapstructure:"decide_rpm"` // rate limit on the decide endpoint
}

// StorageConfig holds database settings
type StorageConfig struct {
	DataDir    string `mapstructure:"data_dir"`
	SQLitePath string `mapstructure:"sqlite_path"`
	BadgerPath string `mapstructure:"badger_path"`
}

// CoachConfig holds decision pipeline settings
type CoachConfig struct {
	ActivationThreshold float64 `mapstructure:"activation_threshold"`
	PersonalizedTips    bool    `mapstructure:"personalized_tips"`
	VectorHistorySize   int     `mapstructure:"vector_history_size"`
}

// SchedulerConfig holds intervention rate-limit settings
type SchedulerConfig struct {
	MaxPerDay          int     `mapstructure:"max_per_day"`
	MinIntervalSeconds float64 `mapstructure:"min_interval_seconds"`
	QuietStartHour     int     `mapstructure:"quiet_start_hour"`
	QuietEndHour       int     `mapstructure:"quiet_end_hour"`
}

// SignalsConfig holds signal provider settings
type SignalsConfig struct {
	TimeoutMillis   int `mapstructure:"timeout_millis"`
	BreakerFailures int `mapstructure:"breaker_failures"` // consecutive failures before the breaker opens
	BreakerResetSec int `mapstructure:"breaker_reset_sec"`
}

// NotifyConfig holds notification delivery settings
type NotifyConfig struct {
	Telegram TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig holds Telegram delivery settings
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id"`
}

// CronConfig holds periodic job settings
type CronConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	DecideSpec  string `mapstructure:"decide_spec"`
	AnalyzeSpec string `mapstructure:"analyze_spec"`
	PruneSpec   string `mapstructure:"prune_spec"`
	PruneMaxAge int    `mapstructure:"prune_max_age_days"`
}

// Load loads configuration from file, env, and defaults
func Load(configPath, dataDir string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if dataDir == "" {
		dataDir = getDefaultDataDir()
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	v.Set("storage.data_dir", dataDir)
	v.Set("storage.sqlite_path", filepath.Join(dataDir, "quitcoach.db"))
	v.Set("storage.badger_path", filepath.Join(dataDir, "badger"))

	if configPath == "" {
		configPath = filepath.Join(dataDir, "quitcoach.yaml")
	}

	if _, err := os.Stat(configPath); err == nil {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// Environment variables (QUITCOACH_SCHEDULER_MAX_PER_DAY, etc.)
	v.SetEnvPrefix("QUITCOACH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	loadEnvOverrides(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.address", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30)
	v.SetDefault("server.write_timeout", 30)
	v.SetDefault("server.decide_rpm", 30)

	// Coach defaults
	v.SetDefault("coach.activation_threshold", 0.6)
	v.SetDefault("coach.personalized_tips", true)
	v.SetDefault("coach.vector_history_size", 100)

	// Scheduler defaults
	v.SetDefault("scheduler.max_per_day", 5)
	v.SetDefault("scheduler.min_interval_seconds", 3600.0)
	v.SetDefault("scheduler.quiet_start_hour", 22)
	v.SetDefault("scheduler.quiet_end_hour", 7)

	// Signal defaults
	v.SetDefault("signals.timeout_millis", 1500)
	v.SetDefault("signals.breaker_failures", 3)
	v.SetDefault("signals.breaker_reset_sec", 60)

	// Notify defaults
	v.SetDefault("notify.telegram.enabled", false)

	// Cron defaults
	v.SetDefault("cron.enabled", true)
	v.SetDefault("cron.decide_spec", "*/15 * * * *")
	v.SetDefault("cron.analyze_spec", "30 3 * * *")
	v.SetDefault("cron.prune_spec", "0 4 * * 0")
	v.SetDefault("cron.prune_max_age_days", 90)
}

func getDefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".quitcoach"
	}
	return filepath.Join(home, ".quitcoach")
}

func loadEnvOverrides(cfg *Config) {
	// Viper's AutomaticEnv does not reach into nested structs reliably
	cfg.Notify.Telegram.BotToken = getEnv("QUITCOACH_TELEGRAM_BOT_TOKEN", cfg.Notify.Telegram.BotToken)
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func validate(cfg *Config) error {
	if cfg.Scheduler.MaxPerDay < 0 {
		return fmt.Errorf("scheduler.max_per_day must not be negative")
	}
	if cfg.Scheduler.MinIntervalSeconds < 0 {
		return fmt.Errorf("scheduler.min_interval_seconds must not be negative")
	}
	if cfg.Scheduler.QuietStartHour < 0 || cfg.Scheduler.QuietStartHour > 23 {
		return fmt.Errorf("scheduler.quiet_start_hour must be in [0,23]")
	}
	if cfg.Scheduler.QuietEndHour < 0 || cfg.Scheduler.QuietEndHour > 23 {
		return fmt.Errorf("scheduler.quiet_end_hour must be in [0,23]")
	}
	if cfg.Coach.ActivationThreshold < 0 || cfg.Coach.ActivationThreshold > 1 {
		return fmt.Errorf("coach.activation_threshold must be in [0,1]")
	}
	if cfg.Notify.Telegram.Enabled && cfg.Notify.Telegram.BotToken == "" {
		return fmt.Errorf("notify.telegram.bot_token is required when telegram is enabled")
	}
	return nil
}
