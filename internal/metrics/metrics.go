package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"PremiumScreener/internal/model"
)

// Metrics holds the Prometheus metrics of the screener.
type Metrics struct {
	Registry *prometheus.Registry

	TickersTotal     *prometheus.CounterVec // labels: status
	SignalStrength   prometheus.Histogram
	RunsTotal        prometheus.Counter
	LastRunSignals   prometheus.Gauge
	LastRunAnalyzed  prometheus.Gauge
	LastRunErrors    prometheus.Gauge
	LastRunDuration  prometheus.Gauge
	LastRunTimestamp prometheus.Gauge
	UniverseFallback prometheus.Gauge // 1 when the fixed ticker list was used
}

// NewMetrics registers and returns all metrics on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		TickersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "screener_tickers_total",
			Help: "Tickers processed, by outcome",
		}, []string{"status"}),
		SignalStrength: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "screener_signal_strength",
			Help:    "Composite strength of qualifying signals",
			Buckets: []float64{40, 50, 60, 70, 80, 90, 100},
		}),
		RunsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "screener_runs_total",
			Help: "Completed screening runs",
		}),
		LastRunSignals: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "screener_last_run_signals",
			Help: "Signals found by the most recent run",
		}),
		LastRunAnalyzed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "screener_last_run_analyzed",
			Help: "Tickers analyzed by the most recent run",
		}),
		LastRunErrors: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "screener_last_run_errors",
			Help: "Tickers that failed in the most recent run",
		}),
		LastRunDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "screener_last_run_duration_seconds",
			Help: "Wall time of the most recent run",
		}),
		LastRunTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "screener_last_run_timestamp_seconds",
			Help: "Unix time the most recent run finished",
		}),
		UniverseFallback: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "screener_universe_fallback",
			Help: "1 when the most recent run used the fallback ticker list",
		}),
	}

	m.Registry.MustRegister(
		m.TickersTotal, m.SignalStrength, m.RunsTotal,
		m.LastRunSignals, m.LastRunAnalyzed, m.LastRunErrors,
		m.LastRunDuration, m.LastRunTimestamp, m.UniverseFallback,
	)
	return m
}

// ObserveOutcome counts one processed ticker. Safe for concurrent use.
func (m *Metrics) ObserveOutcome(o model.Outcome) {
	m.TickersTotal.WithLabelValues(string(o.Status)).Inc()
	if o.Record != nil {
		m.SignalStrength.Observe(float64(o.Record.SignalStrength))
	}
}

// ObserveRun records the end-of-run summary.
func (m *Metrics) ObserveRun(sum model.RunSummary) {
	m.RunsTotal.Inc()
	m.LastRunSignals.Set(float64(sum.Signals))
	m.LastRunAnalyzed.Set(float64(sum.Analyzed))
	m.LastRunErrors.Set(float64(sum.Errored))
	m.LastRunDuration.Set(sum.Duration().Seconds())
	m.LastRunTimestamp.Set(float64(sum.FinishedAt.Unix()))
	if sum.UniverseFallback {
		m.UniverseFallback.Set(1)
	} else {
		m.UniverseFallback.Set(0)
	}
}

// WriteTextfile dumps the registry in the node-exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create metrics dir: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
