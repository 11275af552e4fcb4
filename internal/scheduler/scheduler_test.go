package scheduler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PremiumScreener/internal/collector"
	"PremiumScreener/internal/metrics"
	"PremiumScreener/internal/model"
	"PremiumScreener/internal/report"
	"PremiumScreener/internal/screener"
	"PremiumScreener/internal/strategy"
	"PremiumScreener/internal/universe"
)

var scanStart = time.Date(2025, 6, 2, 21, 15, 0, 0, time.UTC)

type fakeNotifier struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeNotifier) SendWithRetry(_ context.Context, text string, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, text)
	return nil
}

type fakeRecorder struct {
	runs    []model.RunSummary
	dates   []string
	signals []model.SignalRecord
	err     error
}

func (f *fakeRecorder) RecordRun(sum *model.RunSummary) error {
	f.runs = append(f.runs, *sum)
	return f.err
}

func (f *fakeRecorder) RecordSignals(scanDate string, records []model.SignalRecord) error {
	f.dates = append(f.dates, scanDate)
	f.signals = append(f.signals, records...)
	return f.err
}

func (f *fakeRecorder) Close() error { return nil }

type historyRecorder struct {
	fakeRecorder
	date    string
	history []model.SignalRecord
}

func (h *historyRecorder) LatestSignals() (string, []model.SignalRecord, error) {
	return h.date, h.history, nil
}

type fakePublisher struct {
	records []model.SignalRecord
	sums    []model.RunSummary
}

func (f *fakePublisher) PublishSignals(_ context.Context, records []model.SignalRecord, sum model.RunSummary) error {
	f.records = append(f.records, records...)
	f.sums = append(f.sums, sum)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

type failingSource struct{}

func (failingSource) Name() string { return "broken" }
func (failingSource) Tickers(context.Context) ([]string, error) {
	return nil, errors.New("403 forbidden")
}

type fixture struct {
	sched     *Scheduler
	dir       string
	notifier  *fakeNotifier
	recorder  *fakeRecorder
	publisher *fakePublisher
	metrics   *metrics.Metrics
}

func newFixture(t *testing.T, src universe.Source) *fixture {
	t.Helper()
	fetcher := &collector.MockFetcher{Bars: map[string][]model.OHLCV{
		"BOUNCE": collector.OversoldBounceBars(100, 260),
		"TREND":  collector.GenerateMockBars(100, 260),
	}}
	scr := screener.New(collector.NewCollector(fetcher, "1y", "1d"), strategy.DefaultCriteria(), 2, log.NewNopLogger())
	scr.Now = func() time.Time { return scanStart }

	f := &fixture{
		dir:       t.TempDir(),
		notifier:  &fakeNotifier{},
		recorder:  &fakeRecorder{},
		publisher: &fakePublisher{},
		metrics:   metrics.NewMetrics(),
	}
	f.sched = NewScheduler(context.Background(), Options{
		Source:          src,
		Fallback:        []string{"bounce"},
		Screener:        scr,
		ReportDir:       filepath.Join(f.dir, "reports"),
		Preview:         5,
		Recorder:        f.recorder,
		Publisher:       f.publisher,
		Notifier:        f.notifier,
		Metrics:         f.metrics,
		MetricsTextfile: filepath.Join(f.dir, "metrics", "screener.prom"),
	}, log.NewNopLogger())
	return f
}

func TestRunScan_FeedsEverySink(t *testing.T) {
	f := newFixture(t, universe.StaticSource{"trend", "bounce"})

	scan, err := f.sched.RunScan(context.Background())
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(f.dir, "reports", "signals_20250602.csv"), scan.ReportPath)
	records, err := report.Read(scan.ReportPath)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "BOUNCE", records[0].Ticker)
	assert.Equal(t, 100, records[0].SignalStrength)

	sum := scan.Result.Summary
	assert.Equal(t, 2, sum.Analyzed)
	assert.Equal(t, 1, sum.Signals)
	assert.False(t, sum.UniverseFallback)

	require.Len(t, f.recorder.runs, 1)
	assert.Equal(t, []string{"2025-06-02"}, f.recorder.dates)
	assert.Equal(t, records, f.recorder.signals)
	assert.Equal(t, records, f.publisher.records)

	require.Len(t, f.notifier.sent, 1)
	assert.Contains(t, f.notifier.sent[0], "<b>BOUNCE</b> 100")

	data, err := os.ReadFile(filepath.Join(f.dir, "metrics", "screener.prom"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `screener_tickers_total{status="signal"} 1`)
	assert.Contains(t, string(data), `screener_tickers_total{status="no_signal"} 1`)
	assert.Contains(t, string(data), "screener_last_run_signals 1")
}

func TestRunScan_NoSignalsWritesNoReport(t *testing.T) {
	f := newFixture(t, universe.StaticSource{"TREND"})

	scan, err := f.sched.RunScan(context.Background())
	require.NoError(t, err)
	assert.Empty(t, scan.ReportPath)

	_, err = report.Latest(filepath.Join(f.dir, "reports"))
	assert.ErrorIs(t, err, report.ErrNoReport)

	require.Len(t, f.notifier.sent, 1)
	assert.Contains(t, f.notifier.sent[0], "No ticker met every criterion")
	require.Len(t, f.publisher.sums, 1)
	assert.Equal(t, 0, f.publisher.sums[0].Signals)
}

func TestRunScan_EmptyRerunClearsTheDay(t *testing.T) {
	f := newFixture(t, universe.StaticSource{"BOUNCE"})
	ctx := context.Background()

	scan, err := f.sched.RunScan(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, scan.ReportPath)

	f.sched.opts.Source = universe.StaticSource{"TREND"}
	scan, err = f.sched.RunScan(ctx)
	require.NoError(t, err)
	assert.Empty(t, scan.ReportPath)

	_, err = report.Latest(filepath.Join(f.dir, "reports"))
	assert.ErrorIs(t, err, report.ErrNoReport)
	assert.Equal(t, []string{"2025-06-02", "2025-06-02"}, f.recorder.dates)
}

func TestRunScan_FallbackUniverse(t *testing.T) {
	f := newFixture(t, failingSource{})

	scan, err := f.sched.RunScan(context.Background())
	require.NoError(t, err)
	assert.True(t, scan.Result.Summary.UniverseFallback)
	require.Len(t, scan.Result.Outcomes, 1)
	assert.Equal(t, "BOUNCE", scan.Result.Outcomes[0].Ticker)
	assert.True(t, f.recorder.runs[0].UniverseFallback)
}

func TestRunScan_SinkFailureIsNotFatal(t *testing.T) {
	f := newFixture(t, universe.StaticSource{"BOUNCE"})
	f.recorder.err = errors.New("database is locked")

	scan, err := f.sched.RunScan(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, scan.ReportPath)
	assert.Len(t, f.notifier.sent, 1)
}

func TestRunScan_RejectsOverlap(t *testing.T) {
	f := newFixture(t, universe.StaticSource{"BOUNCE"})
	f.sched.running.Lock()
	defer f.sched.running.Unlock()

	_, err := f.sched.RunScan(context.Background())
	assert.ErrorIs(t, err, ErrScanInProgress)
	assert.Equal(t, "⏳ A scan is already running.", f.sched.HandleCommand(context.Background(), "/scan"))
}

func TestHandleCommand(t *testing.T) {
	f := newFixture(t, universe.StaticSource{"BOUNCE", "TREND"})
	ctx := context.Background()

	assert.Equal(t, "No report has been written yet.", f.sched.HandleCommand(ctx, "/latest"))

	assert.Empty(t, f.sched.HandleCommand(ctx, "/scan@PremiumScreenerBot"))
	require.Len(t, f.notifier.sent, 1)

	latest := f.sched.HandleCommand(ctx, "/latest")
	assert.Contains(t, latest, "Report 2025-06-02")
	assert.Contains(t, latest, "BOUNCE")

	assert.Contains(t, f.sched.HandleCommand(ctx, "/help"), "/scan")
	assert.Contains(t, f.sched.HandleCommand(ctx, "what?"), "/latest")
}

func TestRegister(t *testing.T) {
	f := newFixture(t, universe.StaticSource{"BOUNCE"})
	assert.Error(t, f.sched.Register("not a cron"))
	require.NoError(t, f.sched.Register("0 30 21 * * 1-5"))
	assert.Len(t, f.sched.Cron.Entries(), 1)

	f.sched.Start()
	f.sched.Stop()
}

func TestNewScheduler_Defaults(t *testing.T) {
	scr := screener.New(collector.NewCollector(&collector.MockFetcher{}, "1y", "1d"), strategy.DefaultCriteria(), 1, log.NewNopLogger())
	m := metrics.NewMetrics()
	s := NewScheduler(context.Background(), Options{Screener: scr, Metrics: m}, log.NewNopLogger())

	assert.Equal(t, universe.FallbackTickers, s.opts.Fallback)
	assert.NotNil(t, s.opts.Recorder)
	assert.NotNil(t, s.opts.Publisher)
	assert.Same(t, m, scr.Observer)
}

func TestHandleCommand_LatestFallsBackToHistory(t *testing.T) {
	f := newFixture(t, universe.StaticSource{"BOUNCE"})
	ctx := context.Background()

	hist := &historyRecorder{}
	f.sched.opts.Recorder = hist
	assert.Equal(t, "No report has been written yet.", f.sched.HandleCommand(ctx, "/latest"))

	hist.date = "2025-05-30"
	hist.history = []model.SignalRecord{{Ticker: "AMD", SignalStrength: 65, RSI: 31.2, Price: 118.4,
		ScanDate: "2025-05-30", ScanTime: "21:15:00"}}
	latest := f.sched.HandleCommand(ctx, "/latest")
	assert.Contains(t, latest, "Report 2025-05-30")
	assert.Contains(t, latest, "AMD")
}
