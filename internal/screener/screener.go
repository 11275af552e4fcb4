package screener

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"golang.org/x/sync/errgroup"

	"PremiumScreener/internal/model"
	"PremiumScreener/internal/strategy"
)

// SnapshotCollector produces the indicator snapshot of one ticker.
type SnapshotCollector interface {
	Collect(ctx context.Context, symbol string) (*model.Snapshot, error)
}

// Observer receives each outcome as soon as its ticker completes.
type Observer interface {
	ObserveOutcome(o model.Outcome)
}

// Screener runs the collector and evaluator over a ticker universe.
type Screener struct {
	Collector SnapshotCollector
	Criteria  strategy.Criteria
	Workers   int
	Observer  Observer
	Now       func() time.Time
	logger    log.Logger
}

// New creates a Screener. workers below 1 means sequential processing.
func New(col SnapshotCollector, criteria strategy.Criteria, workers int, logger log.Logger) *Screener {
	if workers < 1 {
		workers = 1
	}
	return &Screener{
		Collector: col,
		Criteria:  criteria,
		Workers:   workers,
		Now:       time.Now,
		logger:    log.With(logger, "component", "screener"),
	}
}

// Result is the aggregate of one screening run.
type Result struct {
	Outcomes []model.Outcome      // ticker order
	Records  []model.SignalRecord // strongest first, ticker order on ties
	Summary  model.RunSummary
}

// Run screens every ticker. Per-ticker failures are recorded as outcomes and
// never abort the run. Output does not depend on the worker count.
func (s *Screener) Run(ctx context.Context, tickers []string) *Result {
	started := s.Now()
	scanTime := started

	_ = level.Info(s.logger).Log("msg", "starting scan", "tickers", len(tickers), "workers", s.Workers,
		"rsi_max", s.Criteria.RSIMax, "bb_position_max", s.Criteria.BBPositionMax,
		"atr_pct_min", s.Criteria.ATRPctMin, "vol_surge_min", s.Criteria.VolSurgeMin)

	outcomes := make([]model.Outcome, len(tickers))
	g := new(errgroup.Group)
	g.SetLimit(s.Workers)
	for i, ticker := range tickers {
		g.Go(func() error {
			outcomes[i] = s.screenTicker(ctx, ticker, scanTime)
			s.logOutcome(outcomes[i])
			if s.Observer != nil {
				s.Observer.ObserveOutcome(outcomes[i])
			}
			return nil
		})
	}
	_ = g.Wait()

	res := &Result{Outcomes: outcomes}
	for _, o := range outcomes {
		if o.Record != nil {
			res.Records = append(res.Records, *o.Record)
		}
	}
	model.SortByStrength(res.Records)

	res.Summary = Summarize(outcomes, res.Records)
	res.Summary.StartedAt = started
	res.Summary.FinishedAt = s.Now()
	s.logSummary(res.Summary)
	return res
}

// ScreenTicker processes a single ticker.
func (s *Screener) ScreenTicker(ctx context.Context, ticker string) model.Outcome {
	return s.screenTicker(ctx, ticker, s.Now())
}

func (s *Screener) screenTicker(ctx context.Context, ticker string, scanTime time.Time) model.Outcome {
	if err := ctx.Err(); err != nil {
		return model.Outcome{Ticker: ticker, Status: model.StatusError, Err: err}
	}

	snap, err := s.Collector.Collect(ctx, ticker)
	if err != nil {
		status := model.StatusError
		if errors.Is(err, model.ErrInsufficientData) {
			status = model.StatusInsufficientData
		}
		return model.Outcome{Ticker: ticker, Status: status, Err: err}
	}
	if snap == nil {
		return model.Outcome{Ticker: ticker, Status: model.StatusError,
			Err: fmt.Errorf("%s: %w: empty snapshot", ticker, model.ErrIndicatorComputation)}
	}

	rec, ok := strategy.Evaluate(snap, s.Criteria, scanTime)
	if !ok {
		return model.Outcome{Ticker: ticker, Status: model.StatusNoSignal, RSI: snap.RSI14,
			FailedFilters: strategy.Failed(snap, s.Criteria)}
	}
	return model.Outcome{Ticker: ticker, Status: model.StatusSignal, Record: rec, RSI: snap.RSI14}
}

// Summarize derives the run statistics from outcomes and qualifying records.
func Summarize(outcomes []model.Outcome, records []model.SignalRecord) model.RunSummary {
	sum := model.RunSummary{Analyzed: len(outcomes), Signals: len(records)}
	for _, o := range outcomes {
		switch {
		case o.Status == model.StatusInsufficientData:
			sum.Errored++
			sum.Insufficient++
		case o.Failed():
			sum.Errored++
		default:
			sum.Succeeded++
		}
	}
	if len(records) == 0 {
		return sum
	}

	var strength, rsi float64
	sum.MinPrice, sum.MaxPrice = records[0].Price, records[0].Price
	for _, r := range records {
		strength += float64(r.SignalStrength)
		rsi += r.RSI
		if r.Price < sum.MinPrice {
			sum.MinPrice = r.Price
		}
		if r.Price > sum.MaxPrice {
			sum.MaxPrice = r.Price
		}
	}
	sum.AvgStrength = strength / float64(len(records))
	sum.AvgRSI = rsi / float64(len(records))
	return sum
}

func (s *Screener) logOutcome(o model.Outcome) {
	switch o.Status {
	case model.StatusSignal:
		_ = level.Info(s.logger).Log("msg", "signal found", "ticker", o.Ticker,
			"strength", o.Record.SignalStrength, "rsi", o.Record.RSI, "price", o.Record.Price)
	case model.StatusNoSignal:
		_ = level.Info(s.logger).Log("msg", "did not meet all criteria", "ticker", o.Ticker,
			"rsi", fmt.Sprintf("%.2f", o.RSI), "failed", strings.Join(o.FailedFilters, ","))
	case model.StatusInsufficientData:
		_ = level.Warn(s.logger).Log("msg", "insufficient data, skipping", "ticker", o.Ticker, "err", o.Err)
	default:
		_ = level.Error(s.logger).Log("msg", "ticker failed", "ticker", o.Ticker, "err", o.Err)
	}
}

func (s *Screener) logSummary(sum model.RunSummary) {
	kv := []interface{}{"msg", "scan complete",
		"analyzed", sum.Analyzed, "succeeded", sum.Succeeded, "errors", sum.Errored,
		"insufficient", sum.Insufficient, "signals", sum.Signals, "elapsed", sum.Duration()}
	if sum.Signals > 0 {
		kv = append(kv,
			"avg_strength", fmt.Sprintf("%.1f", sum.AvgStrength),
			"avg_rsi", fmt.Sprintf("%.1f", sum.AvgRSI),
			"price_min", fmt.Sprintf("%.2f", sum.MinPrice),
			"price_max", fmt.Sprintf("%.2f", sum.MaxPrice))
	}
	_ = level.Info(s.logger).Log(kv...)
}
