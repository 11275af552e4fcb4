package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"PremiumScreener/internal/collector"
	"PremiumScreener/internal/model"
	"PremiumScreener/internal/strategy"
)

// EnvPrefix prefixes every generic environment override, e.g.
// SCREENER_REPORT_DIR or SCREENER_CRITERIA_RSI_MAX.
const EnvPrefix = "SCREENER"

// Config holds all application configuration.
type Config struct {
	Universe struct {
		SourceURL string   `yaml:"source_url" envconfig:"SOURCE_URL"`
		Fallback  []string `yaml:"fallback" envconfig:"FALLBACK"`
		Limit     int      `yaml:"limit" envconfig:"LIMIT"`
	} `yaml:"universe" envconfig:"UNIVERSE"`
	DataSource struct {
		Provider string        `yaml:"provider" envconfig:"PROVIDER"`
		BaseURL  string        `yaml:"base_url" envconfig:"BASE_URL"`
		APIKey   string        `yaml:"api_key" envconfig:"API_KEY"`
		Period   string        `yaml:"period" envconfig:"PERIOD"`
		Interval string        `yaml:"interval" envconfig:"INTERVAL"`
		Timeout  time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
	} `yaml:"data_source" envconfig:"DATA_SOURCE"`
	Screener struct {
		Workers int `yaml:"workers" envconfig:"WORKERS"`
	} `yaml:"screener" envconfig:"SCREENER"`
	Criteria strategy.Criteria `yaml:"criteria" envconfig:"CRITERIA"`
	Report   struct {
		Dir          string `yaml:"dir" envconfig:"DIR"`
		DashboardDir string `yaml:"dashboard_dir" envconfig:"DASHBOARD_DIR"`
		Preview      int    `yaml:"preview" envconfig:"PREVIEW"`
	} `yaml:"report" envconfig:"REPORT"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path" envconfig:"SQLITE_PATH"`
	} `yaml:"database" envconfig:"DATABASE"`
	Redis struct {
		Addr     string        `yaml:"addr" envconfig:"ADDR"`
		Password string        `yaml:"password" envconfig:"PASSWORD"`
		DB       int           `yaml:"db" envconfig:"DB"`
		TTL      time.Duration `yaml:"ttl" envconfig:"TTL"`
	} `yaml:"redis" envconfig:"REDIS"`
	Kafka struct {
		Brokers []string `yaml:"brokers" envconfig:"BROKERS"`
		Topic   string   `yaml:"topic" envconfig:"TOPIC"`
	} `yaml:"kafka" envconfig:"KAFKA"`
	Telegram struct {
		BotToken string `yaml:"bot_token" envconfig:"BOT_TOKEN"`
		ChatID   string `yaml:"chat_id" envconfig:"CHAT_ID"`
	} `yaml:"telegram" envconfig:"TELEGRAM"`
	Metrics struct {
		Textfile string `yaml:"textfile" envconfig:"TEXTFILE"`
	} `yaml:"metrics" envconfig:"METRICS"`
	Schedule struct {
		Cron       string `yaml:"cron" envconfig:"CRON"`
		RunOnStart bool   `yaml:"run_on_start" envconfig:"RUN_ON_START"`
	} `yaml:"schedule" envconfig:"SCHEDULE"`
	Log struct {
		Level  string `yaml:"level" envconfig:"LEVEL"`
		Format string `yaml:"format" envconfig:"FORMAT"`
	} `yaml:"log" envconfig:"LOG"`
	Proxy string `yaml:"proxy" envconfig:"PROXY"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
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

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("env config: %w", err)
	}

	// Unprefixed overrides shared with other tooling
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("VSTRADER_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("VSTRADER_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" && cfg.Proxy == "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.DataSource.Provider == "" {
		c.DataSource.Provider = "yahoo"
		if c.DataSource.BaseURL != "" {
			c.DataSource.Provider = "vstrader"
		}
	}
	c.DataSource.Provider = strings.ToLower(c.DataSource.Provider)
	if c.DataSource.Period == "" {
		c.DataSource.Period = "1y"
	}
	if c.DataSource.Interval == "" {
		c.DataSource.Interval = "1d"
	}
	if c.DataSource.Timeout == 0 {
		c.DataSource.Timeout = 15 * time.Second
	}
	if c.Screener.Workers < 1 {
		c.Screener.Workers = 1
	}

	def := strategy.DefaultCriteria()
	if c.Criteria.RSIMax == 0 {
		c.Criteria.RSIMax = def.RSIMax
	}
	if c.Criteria.BBPositionMax == 0 {
		c.Criteria.BBPositionMax = def.BBPositionMax
	}
	if c.Criteria.ATRPctMin == 0 {
		c.Criteria.ATRPctMin = def.ATRPctMin
	}
	if c.Criteria.VolSurgeMin == 0 {
		c.Criteria.VolSurgeMin = def.VolSurgeMin
	}

	if c.Report.Dir == "" {
		c.Report.Dir = "."
	}
	if c.Report.DashboardDir == "" {
		c.Report.DashboardDir = c.Report.Dir
	}
	if c.Report.Preview == 0 {
		c.Report.Preview = 5
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/screener.db"
	}
	if c.Redis.TTL == 0 {
		c.Redis.TTL = 6 * time.Hour
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "screener.signals"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "logfmt"
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.DataSource.Provider {
	case "yahoo", "mock":
	case "vstrader":
		if c.DataSource.BaseURL == "" {
			return fmt.Errorf("data_source.base_url is required for the vstrader provider")
		}
	default:
		return fmt.Errorf("data_source.provider %q is not one of yahoo, vstrader, mock", c.DataSource.Provider)
	}
	if c.DataSource.Interval != "1d" {
		return fmt.Errorf("data_source.interval must be 1d, got %q", c.DataSource.Interval)
	}
	days, err := collector.PeriodTradingDays(c.DataSource.Period)
	if err != nil {
		return fmt.Errorf("data_source.period: %w", err)
	}
	if days < model.MinBars {
		return fmt.Errorf("data_source.period %q covers %d trading days, need at least %d", c.DataSource.Period, days, model.MinBars)
	}
	if c.Criteria.RSIMax <= 0 || c.Criteria.RSIMax > 100 {
		return fmt.Errorf("criteria.rsi_max must be in (0, 100], got %v", c.Criteria.RSIMax)
	}
	if c.Criteria.ATRPctMin < 0 || c.Criteria.VolSurgeMin < 0 {
		return fmt.Errorf("criteria thresholds must not be negative")
	}
	if c.Universe.Limit < 0 {
		return fmt.Errorf("universe.limit must not be negative")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	switch strings.ToLower(c.Log.Format) {
	case "logfmt", "json":
	default:
		return fmt.Errorf("log.format %q is not one of logfmt, json", c.Log.Format)
	}
	return nil
}

// TelegramEnabled reports whether notifications can be sent.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}
