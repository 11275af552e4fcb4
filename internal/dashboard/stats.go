package dashboard

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"PremiumScreener/internal/model"
)

// ErrEmptyReport is returned when a report holds no records.
var ErrEmptyReport = errors.New("report has no signals")

// Stats summarises a signal report.
type Stats struct {
	Total       int
	ScanDate    string
	AvgStrength float64
	AvgRSI      float64
	AvgATRPct   float64
	AvgVolSurge float64
	MinPrice    float64
	MedianPrice float64
	MaxPrice    float64

	Best         model.SignalRecord // highest strength, earliest on ties
	MostOversold model.SignalRecord // lowest RSI, earliest on ties
}

// ComputeStats derives the summary block of the dashboard.
func ComputeStats(records []model.SignalRecord) (Stats, error) {
	if len(records) == 0 {
		return Stats{}, ErrEmptyReport
	}
	s := Stats{
		Total:        len(records),
		ScanDate:     records[0].ScanDate,
		Best:         records[0],
		MostOversold: records[0],
	}
	prices := make([]float64, len(records))
	for i, r := range records {
		s.AvgStrength += float64(r.SignalStrength)
		s.AvgRSI += r.RSI
		s.AvgATRPct += r.ATRPct
		s.AvgVolSurge += r.VolSurge
		prices[i] = r.Price
		if r.SignalStrength > s.Best.SignalStrength {
			s.Best = r
		}
		if r.RSI < s.MostOversold.RSI {
			s.MostOversold = r
		}
	}
	n := float64(len(records))
	s.AvgStrength /= n
	s.AvgRSI /= n
	s.AvgATRPct /= n
	s.AvgVolSurge /= n

	sort.Float64s(prices)
	s.MinPrice, s.MaxPrice = prices[0], prices[len(prices)-1]
	if mid := len(prices) / 2; len(prices)%2 == 1 {
		s.MedianPrice = prices[mid]
	} else {
		s.MedianPrice = (prices[mid-1] + prices[mid]) / 2
	}
	return s, nil
}

// Summary renders the stats as the dashboard text panel.
func (s Stats) Summary() string {
	rule := strings.Repeat("=", 25)
	var b strings.Builder
	fmt.Fprintf(&b, "SCREENING SUMMARY\n%s\n", rule)
	fmt.Fprintf(&b, "Total Signals: %d\n", s.Total)
	fmt.Fprintf(&b, "Scan Date: %s\n\n", s.ScanDate)
	fmt.Fprintf(&b, "QUALITY METRICS\n%s\n", rule)
	fmt.Fprintf(&b, "Avg Signal Strength: %.1f/100\n", s.AvgStrength)
	fmt.Fprintf(&b, "Avg RSI: %.1f\n", s.AvgRSI)
	fmt.Fprintf(&b, "Avg ATR: %.1f%%\n", s.AvgATRPct)
	fmt.Fprintf(&b, "Avg Vol Surge: %.1fx\n\n", s.AvgVolSurge)
	fmt.Fprintf(&b, "PRICE RANGE\n%s\n", rule)
	fmt.Fprintf(&b, "Min: $%.2f\n", s.MinPrice)
	fmt.Fprintf(&b, "Median: $%.2f\n", s.MedianPrice)
	fmt.Fprintf(&b, "Max: $%.2f\n", s.MaxPrice)
	return b.String()
}

// MostOversoldRanked returns the n records with the lowest RSI, ordered by
// ascending strength so the strongest bar is drawn on top.
func MostOversoldRanked(records []model.SignalRecord, n int) []model.SignalRecord {
	sorted := make([]model.SignalRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].RSI < sorted[j].RSI })
	if n < len(sorted) {
		sorted = sorted[:n]
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].SignalStrength < sorted[j].SignalStrength })
	return sorted
}
