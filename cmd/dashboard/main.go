package main

import (
	"errors"
	"os"

	"github.com/go-kit/kit/log/level"

	"PremiumScreener/internal/config"
	"PremiumScreener/internal/dashboard"
	"PremiumScreener/internal/logging"
	"PremiumScreener/internal/report"
)

func main() {
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger := logging.New("info", "logfmt")
		_ = level.Error(logger).Log("msg", "load config", "path", cfgPath, "err", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log.Level, cfg.Log.Format)

	_, _, err = dashboard.Generate(cfg.Report.Dir, cfg.Report.DashboardDir, logger)
	switch {
	case errors.Is(err, report.ErrNoReport):
		_ = level.Error(logger).Log("msg", "no signal files found, run the screener first", "dir", cfg.Report.Dir)
		os.Exit(1)
	case errors.Is(err, dashboard.ErrEmptyReport):
		_ = level.Error(logger).Log("msg", "no signals found in the latest report", "err", err)
		os.Exit(1)
	case err != nil:
		_ = level.Error(logger).Log("msg", "dashboard failed", "err", err)
		os.Exit(1)
	}
}
