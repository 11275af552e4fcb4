package strategy

import (
	"time"

	"github.com/shopspring/decimal"

	"PremiumScreener/internal/model"
)

// Criteria holds the filter thresholds. Every filter is a strict inequality.
type Criteria struct {
	RSIMax        float64 `yaml:"rsi_max" envconfig:"RSI_MAX"`
	BBPositionMax float64 `yaml:"bb_position_max" envconfig:"BB_POSITION_MAX"`
	ATRPctMin     float64 `yaml:"atr_pct_min" envconfig:"ATR_PCT_MIN"`
	VolSurgeMin   float64 `yaml:"vol_surge_min" envconfig:"VOL_SURGE_MIN"`
}

// DefaultCriteria returns the standard oversold-bounce thresholds.
func DefaultCriteria() Criteria {
	return Criteria{
		RSIMax:        35,
		BBPositionMax: 0.30,
		ATRPctMin:     1.5,
		VolSurgeMin:   1.2,
	}
}

// Filter names, in evaluation order.
const (
	FilterOversold  = "oversold"
	FilterUptrend   = "uptrend"
	FilterLiquidity = "liquidity"
	FilterLowerBand = "lower_band"
	FilterVolatile  = "volatility"
	FilterVolSurge  = "volume_surge"
)

// FilterResult is the outcome of a single filter predicate.
type FilterResult struct {
	Name   string
	Passed bool
}

// CheckFilters evaluates every filter against the snapshot. Values are
// compared at the precision they are reported with.
func CheckFilters(s *model.Snapshot, c Criteria) []FilterResult {
	r := reported(s)
	return []FilterResult{
		{FilterOversold, r.RSI14 < c.RSIMax},
		{FilterUptrend, r.Close > r.SMA200},
		{FilterLiquidity, r.Volume > r.AvgVol50},
		{FilterLowerBand, r.BBPosition < c.BBPositionMax},
		{FilterVolatile, r.ATRPct > c.ATRPctMin},
		{FilterVolSurge, r.VolSurge > c.VolSurgeMin},
	}
}

// Passes reports whether every filter holds.
func Passes(s *model.Snapshot, c Criteria) bool {
	for _, f := range CheckFilters(s, c) {
		if !f.Passed {
			return false
		}
	}
	return true
}

// Failed returns the names of the filters the snapshot did not meet.
func Failed(s *model.Snapshot, c Criteria) []string {
	var names []string
	for _, f := range CheckFilters(s, c) {
		if !f.Passed {
			names = append(names, f.Name)
		}
	}
	return names
}

// Evaluate returns a signal record when the snapshot passes every filter.
// The score is computed only for passing snapshots, from the rounded values
// the record carries.
func Evaluate(s *model.Snapshot, c Criteria, scanTime time.Time) (*model.SignalRecord, bool) {
	if !Passes(s, c) {
		return nil, false
	}
	r := reported(s)
	return &model.SignalRecord{
		Ticker:               r.Ticker,
		SignalStrength:       Score(r),
		RSI:                  r.RSI14,
		Price:                r.Close,
		SMA200:               r.SMA200,
		BBPosition:           r.BBPosition,
		BBLower:              round(r.BBLower, 2),
		BBUpper:              round(r.BBUpper, 2),
		ATRPct:               r.ATRPct,
		VolSurge:             r.VolSurge,
		Support:              round(r.Support, 2),
		DistanceToSupportPct: round(r.DistanceToSupportPct, 1),
		MACDHistogram:        round(r.MACDHist, 3),
		ScanDate:             scanTime.Format("2006-01-02"),
		ScanTime:             scanTime.Format("15:04:05"),
	}, true
}

// reported returns a copy of s with the filtered fields rounded to report
// precision.
func reported(s *model.Snapshot) *model.Snapshot {
	r := *s
	r.RSI14 = round(s.RSI14, 2)
	r.Close = round(s.Close, 2)
	r.SMA200 = round(s.SMA200, 2)
	r.BBPosition = round(s.BBPosition, 2)
	r.ATRPct = round(s.ATRPct, 1)
	r.VolSurge = round(s.VolSurge, 2)
	return &r
}

func round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
