package model

import (
	"sort"
	"time"
)

// SignalRecord is one qualifying ticker of a screening run.
type SignalRecord struct {
	Ticker               string  `json:"ticker"`
	SignalStrength       int     `json:"signal_strength"`
	RSI                  float64 `json:"rsi"`
	Price                float64 `json:"price"`
	SMA200               float64 `json:"sma_200"`
	BBPosition           float64 `json:"bb_position"`
	BBLower              float64 `json:"bb_lower"`
	BBUpper              float64 `json:"bb_upper"`
	ATRPct               float64 `json:"atr_pct"`
	VolSurge             float64 `json:"vol_surge"`
	Support              float64 `json:"support"`
	DistanceToSupportPct float64 `json:"distance_to_support_pct"`
	MACDHistogram        float64 `json:"macd_histogram"`
	ScanDate             string  `json:"scan_date"` // 2006-01-02
	ScanTime             string  `json:"scan_time"` // 15:04:05
}

// SortByStrength orders records strongest first. Equal strengths keep their
// existing order.
func SortByStrength(records []SignalRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].SignalStrength > records[j].SignalStrength
	})
}

// Status classifies how processing of a single ticker ended.
type Status string

const (
	StatusSignal           Status = "signal"
	StatusNoSignal         Status = "no_signal"
	StatusInsufficientData Status = "insufficient_data"
	StatusError            Status = "error"
)

// Outcome is the per-ticker result returned to the orchestrator.
type Outcome struct {
	Ticker        string
	Status        Status
	Record        *SignalRecord // set only for StatusSignal
	RSI           float64       // set for StatusSignal and StatusNoSignal
	FailedFilters []string      // set only for StatusNoSignal
	Err           error
}

// Failed reports whether the outcome counts as an error in the run summary.
func (o Outcome) Failed() bool {
	return o.Status == StatusError || o.Status == StatusInsufficientData
}

// RunSummary aggregates the outcomes of one screening run.
type RunSummary struct {
	Analyzed     int
	Succeeded    int
	Errored      int
	Insufficient int // subset of Errored
	Signals      int

	AvgStrength float64
	AvgRSI      float64
	MinPrice    float64
	MaxPrice    float64

	UniverseFallback bool
	StartedAt        time.Time
	FinishedAt       time.Time
}

// Duration returns the wall time of the run.
func (s RunSummary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}
