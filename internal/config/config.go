package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"SentimentWatch/internal/logger"
)

// Config holds all application configuration.
type Config struct {
	Markup struct {
		URL                string        `yaml:"url" default:"https://www.myfxbook.com/community/outlook" validate:"required,url"`
		UserAgent          string        `yaml:"user_agent" default:"Mozilla/5.0 (compatible; SentimentWatch/1.0)"`
		Timeout            time.Duration `yaml:"timeout" default:"30s" validate:"gt=0"`
		PrimarySelector    string        `yaml:"primary_selector" default:"#outlookSymbolsTable tbody tr"`
		FallbackSelector   string        `yaml:"fallback_selector" default:"tr, li"`
		PlaceholderOnEmpty bool          `yaml:"placeholder_on_empty"`
	} `yaml:"markup"`
	FearGreed struct {
		Disabled   bool          `yaml:"disabled"`
		Endpoint   string        `yaml:"endpoint" default:"https://production.dataviz.cnn.io/index/fearandgreed/graphdata/" validate:"required,url"`
		Instrument string        `yaml:"instrument" default:"BTC/USD" validate:"required"`
		UserAgent  string        `yaml:"user_agent" default:"Mozilla/5.0 (compatible; SentimentWatch/1.0)"`
		Timeout    time.Duration `yaml:"timeout" default:"15s" validate:"gt=0"`
	} `yaml:"fear_greed"`
	Schedule struct {
		Mode            string        `yaml:"mode" default:"hourly" validate:"oneof=hourly immediate interval"`
		IntervalMinutes int           `yaml:"interval_minutes" default:"60" validate:"gte=1"`
		GracePeriod     time.Duration `yaml:"grace_period" default:"30s" validate:"gt=0"`
		HardWait        time.Duration `yaml:"hard_wait" default:"5s" validate:"gte=0"`
	} `yaml:"schedule"`
	Detector struct {
		Store     string `yaml:"store" default:"file" validate:"oneof=memory file redis"`
		StateFile string `yaml:"state_file" default:"data/detector_state.json"`
		Redis     struct {
			Addr     string `yaml:"addr" default:"localhost:6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Key      string `yaml:"key" default:"sentiment:last_state"`
		} `yaml:"redis"`
	} `yaml:"detector"`
	Recorder struct {
		CSVDir     string `yaml:"csv_dir" default:"data"`
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"recorder"`
	Telegram struct {
		BotToken      string `yaml:"bot_token"`
		ChatID        string `yaml:"chat_id"`
		MinImportance string `yaml:"min_importance" default:"HIGH" validate:"oneof=CRITICAL HIGH MEDIUM LOW"`
	} `yaml:"telegram"`
	Metrics struct {
		// Addr is empty to disable the endpoint.
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`
	Log   logger.Config `yaml:"log"`
	Proxy string        `yaml:"proxy"`
}

// Load reads config from a YAML file (a missing file is fine), applies
// environment variable overrides and fills defaults.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := &Config{}
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)

	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Recorder.SQLitePath = v
	}
	if v := os.Getenv("CSV_DIR"); v != "" {
		cfg.Recorder.CSVDir = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Detector.Redis.Addr = v
		cfg.Detector.Store = "redis"
	}
	if v := os.Getenv("SCHEDULE_MODE"); v != "" {
		cfg.Schedule.Mode = v
	}
	if v := os.Getenv("SCHEDULE_INTERVAL_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Schedule.IntervalMinutes = n
		}
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

// Validate checks field constraints and cross-field requirements.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

// TelegramEnabled reports whether alerts should be sent.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}
