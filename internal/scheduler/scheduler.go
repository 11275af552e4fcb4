package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/robfig/cron/v3"

	"PremiumScreener/internal/metrics"
	"PremiumScreener/internal/notifier"
	"PremiumScreener/internal/publisher"
	"PremiumScreener/internal/recorder"
	"PremiumScreener/internal/report"
	"PremiumScreener/internal/screener"
	"PremiumScreener/internal/universe"
)

// ErrScanInProgress is returned when a scan is requested while one is running.
var ErrScanInProgress = errors.New("scan already in progress")

const noReport = "No report has been written yet."

// Notifier delivers run reports to a chat.
type Notifier interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Options wires the collaborators of a Scheduler. Recorder, Publisher,
// Notifier and Metrics are optional.
type Options struct {
	Source          universe.Source
	Fallback        []string
	Limit           int
	Screener        *screener.Screener
	ReportDir       string
	Preview         int
	Recorder        recorder.Recorder
	Publisher       publisher.Publisher
	Notifier        Notifier
	Metrics         *metrics.Metrics
	MetricsTextfile string
}

// Scan is the outcome of one full pipeline pass.
type Scan struct {
	Result     *screener.Result
	ReportPath string // empty when there were no signals
}

// Scheduler runs screening passes on demand or on a cron schedule.
type Scheduler struct {
	Cron *cron.Cron
	Ctx  context.Context
	opts Options

	running sync.Mutex
	logger  log.Logger
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, opts Options, logger log.Logger) *Scheduler {
	if opts.Recorder == nil {
		opts.Recorder = recorder.NewNoopRecorder()
	}
	if opts.Publisher == nil {
		opts.Publisher = publisher.NoopPublisher{}
	}
	if len(opts.Fallback) == 0 {
		opts.Fallback = universe.FallbackTickers
	}
	if opts.Metrics != nil && opts.Screener.Observer == nil {
		opts.Screener.Observer = opts.Metrics
	}
	return &Scheduler{
		Cron:   cron.New(cron.WithSeconds()),
		Ctx:    ctx,
		opts:   opts,
		logger: log.With(logger, "component", "scheduler"),
	}
}

// Register schedules the scan task. Expressions carry a seconds field.
func (s *Scheduler) Register(scanCron string) error {
	if _, err := s.Cron.AddFunc(scanCron, s.scanTask); err != nil {
		return fmt.Errorf("register scan task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	_ = level.Info(s.logger).Log("msg", "scheduler started", "entries", len(s.Cron.Entries()))
}

// Stop stops the cron scheduler and waits for a running scan to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	_ = level.Info(s.logger).Log("msg", "scheduler stopped")
}

// RunNow executes the scan task immediately (manual trigger / run_on_start).
func (s *Scheduler) RunNow() {
	s.scanTask()
}

func (s *Scheduler) scanTask() {
	if _, err := s.RunScan(s.Ctx); err != nil {
		_ = level.Error(s.logger).Log("msg", "scan failed", "err", err)
		if !errors.Is(err, ErrScanInProgress) {
			s.trySend(s.Ctx, notifier.FormatError("scan failed", err))
		}
	}
}

// RunScan executes one full pass: load the universe, screen it, write the
// report and feed every configured sink. Sink failures are logged only.
func (s *Scheduler) RunScan(ctx context.Context) (*Scan, error) {
	if !s.running.TryLock() {
		return nil, ErrScanInProgress
	}
	defer s.running.Unlock()

	tickers, fallback := universe.Load(ctx, s.opts.Source, s.opts.Fallback, s.opts.Limit, s.logger)
	res := s.opts.Screener.Run(ctx, tickers)
	res.Summary.UniverseFallback = fallback
	scan := &Scan{Result: res}

	path, err := report.Write(s.opts.ReportDir, res.Records, res.Summary.StartedAt)
	switch {
	case errors.Is(err, report.ErrNoSignals):
		_ = level.Info(s.logger).Log("msg", "no signals found, report not written")
		if err := report.Remove(s.opts.ReportDir, res.Summary.StartedAt); err != nil {
			_ = level.Warn(s.logger).Log("msg", "remove earlier report of the day", "err", err)
		}
	case err != nil:
		return scan, fmt.Errorf("write report: %w", err)
	default:
		scan.ReportPath = path
		_ = level.Info(s.logger).Log("msg", "report written", "path", path, "signals", len(res.Records))
		report.LogPreview(s.logger, res.Records, s.opts.Preview)
	}

	if err := s.opts.Recorder.RecordRun(&res.Summary); err != nil {
		_ = level.Error(s.logger).Log("msg", "record run", "err", err)
	}
	if err := s.opts.Recorder.RecordSignals(res.Summary.StartedAt.Format("2006-01-02"), res.Records); err != nil {
		_ = level.Error(s.logger).Log("msg", "record signals", "err", err)
	}
	if err := s.opts.Publisher.PublishSignals(ctx, res.Records, res.Summary); err != nil {
		_ = level.Error(s.logger).Log("msg", "publish signals", "err", err)
	}
	s.exportMetrics(res)
	s.trySend(ctx, notifier.FormatRunReport(res.Summary, res.Records, s.opts.Preview))

	return scan, nil
}

func (s *Scheduler) exportMetrics(res *screener.Result) {
	if s.opts.Metrics == nil {
		return
	}
	s.opts.Metrics.ObserveRun(res.Summary)
	if s.opts.MetricsTextfile == "" {
		return
	}
	if err := s.opts.Metrics.WriteTextfile(s.opts.MetricsTextfile); err != nil {
		_ = level.Error(s.logger).Log("msg", "export metrics", "err", err)
	}
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	if i := strings.Index(command, "@"); i > 0 {
		command = command[:i]
	}
	switch strings.ToLower(command) {
	case "/scan":
		if _, err := s.RunScan(ctx); err != nil {
			if errors.Is(err, ErrScanInProgress) {
				return "⏳ A scan is already running."
			}
			return notifier.FormatError("scan failed", err)
		}
		return ""
	case "/latest":
		return s.latest()
	default:
		return notifier.FormatHelp()
	}
}

func (s *Scheduler) latest() string {
	path, err := report.Latest(s.opts.ReportDir)
	if errors.Is(err, report.ErrNoReport) {
		return s.latestFromHistory()
	}
	if err != nil {
		return notifier.FormatError("latest report", err)
	}
	records, err := report.Read(path)
	if err != nil {
		return notifier.FormatError("latest report", err)
	}
	date, err := report.DateFromPath(path)
	if err != nil {
		return notifier.FormatError("latest report", err)
	}
	return notifier.FormatLatest(date, records, 10)
}

// latestFromHistory answers /latest from the recorder when the report
// directory is empty.
func (s *Scheduler) latestFromHistory() string {
	h, ok := s.opts.Recorder.(recorder.History)
	if !ok {
		return noReport
	}
	scanDate, records, err := h.LatestSignals()
	if err != nil {
		return notifier.FormatError("latest signals", err)
	}
	if scanDate == "" {
		return noReport
	}
	date, err := time.Parse("2006-01-02", scanDate)
	if err != nil {
		return notifier.FormatError("latest signals", err)
	}
	return notifier.FormatLatest(date, records, 10)
}

func (s *Scheduler) trySend(ctx context.Context, text string) {
	if s.opts.Notifier == nil {
		return
	}
	if err := s.opts.Notifier.SendWithRetry(ctx, text, 3); err != nil {
		_ = level.Error(s.logger).Log("msg", "send notification", "err", err)
	}
}
