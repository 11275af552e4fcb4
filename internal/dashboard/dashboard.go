package dashboard

import (
	"fmt"
	"path/filepath"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"

	"PremiumScreener/internal/report"
)

// Generate renders the dashboard of the most recent report in reportDir into
// outDir and returns the image path.
func Generate(reportDir, outDir string, logger log.Logger) (string, Stats, error) {
	path, err := report.Latest(reportDir)
	if err != nil {
		return "", Stats{}, err
	}
	_ = level.Info(logger).Log("msg", "analyzing report", "path", path)

	records, err := report.Read(path)
	if err != nil {
		return "", Stats{}, err
	}
	stats, err := ComputeStats(records)
	if err != nil {
		return "", Stats{}, fmt.Errorf("%s: %w", path, err)
	}
	date, err := report.DateFromPath(path)
	if err != nil {
		return "", Stats{}, err
	}

	out := filepath.Join(outDir, FileName(date))
	title := "Options Premium Screener Analysis - " + date.Format("2006-01-02")
	if err := Render(records, title, out); err != nil {
		return "", Stats{}, fmt.Errorf("render dashboard: %w", err)
	}

	_ = level.Info(logger).Log("msg", "dashboard saved", "path", out,
		"signals", stats.Total,
		"avg_strength", fmt.Sprintf("%.1f", stats.AvgStrength),
		"best", fmt.Sprintf("%s (%d)", stats.Best.Ticker, stats.Best.SignalStrength),
		"most_oversold", fmt.Sprintf("%s (RSI %.1f)", stats.MostOversold.Ticker, stats.MostOversold.RSI))
	return out, stats, nil
}
