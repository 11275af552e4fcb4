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

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "yahoo", cfg.DataSource.Provider)
	assert.Equal(t, "1y", cfg.DataSource.Period)
	assert.Equal(t, "1d", cfg.DataSource.Interval)
	assert.Equal(t, 1, cfg.Screener.Workers)
	assert.Equal(t, 35.0, cfg.Criteria.RSIMax)
	assert.Equal(t, 0.30, cfg.Criteria.BBPositionMax)
	assert.Equal(t, 1.5, cfg.Criteria.ATRPctMin)
	assert.Equal(t, 1.2, cfg.Criteria.VolSurgeMin)
	assert.Equal(t, ".", cfg.Report.Dir)
	assert.Equal(t, ".", cfg.Report.DashboardDir)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "logfmt", cfg.Log.Format)
	assert.Equal(t, 6*time.Hour, cfg.Redis.TTL)
	assert.False(t, cfg.TelegramEnabled())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_YAML(t *testing.T) {
	path := writeConfig(t, `
universe:
  limit: 50
  fallback: [AAPL, MSFT]
data_source:
  period: 2y
  timeout: 30s
screener:
  workers: 8
criteria:
  rsi_max: 30
report:
  dir: out
  dashboard_dir: charts
redis:
  addr: localhost:6379
  ttl: 1h
kafka:
  brokers: [kafka-1:9092, kafka-2:9092]
schedule:
  cron: "0 30 21 * * 1-5"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.Universe.Limit)
	assert.Equal(t, []string{"AAPL", "MSFT"}, cfg.Universe.Fallback)
	assert.Equal(t, "2y", cfg.DataSource.Period)
	assert.Equal(t, 30*time.Second, cfg.DataSource.Timeout)
	assert.Equal(t, 8, cfg.Screener.Workers)
	assert.Equal(t, 30.0, cfg.Criteria.RSIMax)
	assert.Equal(t, 1.2, cfg.Criteria.VolSurgeMin, "unset thresholds keep defaults")
	assert.Equal(t, "out", cfg.Report.Dir)
	assert.Equal(t, "charts", cfg.Report.DashboardDir)
	assert.Equal(t, time.Hour, cfg.Redis.TTL)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "0 30 21 * * 1-5", cfg.Schedule.Cron)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "report:\n  dir: from-file\n")
	t.Setenv("SCREENER_REPORT_DIR", "from-env")
	t.Setenv("SCREENER_CRITERIA_RSI_MAX", "25")
	t.Setenv("SCREENER_SCREENER_WORKERS", "4")
	t.Setenv("SCREENER_KAFKA_BROKERS", "a:9092,b:9092")
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("TELEGRAM_CHAT_ID", "42")
	t.Setenv("SQLITE_PATH", "/tmp/runs.db")
	t.Setenv("HTTPS_PROXY", "http://proxy:3128")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Report.Dir)
	assert.Equal(t, 25.0, cfg.Criteria.RSIMax)
	assert.Equal(t, 4, cfg.Screener.Workers)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "/tmp/runs.db", cfg.Database.SQLitePath)
	assert.Equal(t, "http://proxy:3128", cfg.Proxy)
	assert.True(t, cfg.TelegramEnabled())
}

func TestLoad_VsTraderBaseURLSelectsProvider(t *testing.T) {
	t.Setenv("VSTRADER_BASE_URL", "https://vstrader.example")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "vstrader", cfg.DataSource.Provider)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "universe: [unclosed"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func(t *testing.T) *Config {
		cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		require.NoError(t, err)
		return cfg
	}

	t.Run("unknown provider", func(t *testing.T) {
		cfg := base(t)
		cfg.DataSource.Provider = "bloomberg"
		assert.Error(t, cfg.Validate())
	})
	t.Run("vstrader without base url", func(t *testing.T) {
		cfg := base(t)
		cfg.DataSource.Provider = "vstrader"
		assert.Error(t, cfg.Validate())
	})
	t.Run("rsi out of range", func(t *testing.T) {
		cfg := base(t)
		cfg.Criteria.RSIMax = 120
		assert.Error(t, cfg.Validate())
	})
	t.Run("half telegram config", func(t *testing.T) {
		cfg := base(t)
		cfg.Telegram.BotToken = "token"
		assert.Error(t, cfg.Validate())
	})
	t.Run("weekly interval", func(t *testing.T) {
		cfg := base(t)
		cfg.DataSource.Interval = "1wk"
		assert.ErrorContains(t, cfg.Validate(), "data_source.interval")
	})
	t.Run("period too short for sma200", func(t *testing.T) {
		cfg := base(t)
		cfg.DataSource.Period = "6mo"
		assert.ErrorContains(t, cfg.Validate(), "need at least 200")
	})
	t.Run("unknown period", func(t *testing.T) {
		cfg := base(t)
		cfg.DataSource.Period = "10y"
		assert.ErrorContains(t, cfg.Validate(), "data_source.period")
	})
	t.Run("longer period", func(t *testing.T) {
		cfg := base(t)
		cfg.DataSource.Period = "2y"
		assert.NoError(t, cfg.Validate())
	})
	t.Run("bad log format", func(t *testing.T) {
		cfg := base(t)
		cfg.Log.Format = "xml"
		assert.Error(t, cfg.Validate())
	})
}
