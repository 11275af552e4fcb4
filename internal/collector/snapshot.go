package collector

import (
	"fmt"
	"math"

	"PremiumScreener/internal/calculator"
	"PremiumScreener/internal/model"
)

// Indicator parameters.
const (
	rsiPeriod       = 14
	bollingerPeriod = 20
	bollingerK      = 2.0
	atrPeriod       = 14
	macdFast        = 12
	macdSlow        = 26
	macdSignal      = 9
	supportLookback = 20
)

// BuildSnapshot computes every indicator at the latest bar of a normalised
// series. Series shorter than model.MinBars are rejected.
func BuildSnapshot(symbol string, bars []model.OHLCV) (*model.Snapshot, error) {
	if len(bars) < model.MinBars {
		return nil, fmt.Errorf("%s: %w: %d bars, need %d", symbol, model.ErrInsufficientData, len(bars), model.MinBars)
	}

	last := bars[len(bars)-1]
	if last.Close <= 0 {
		return nil, fmt.Errorf("%s: %w: non-positive close %v", symbol, model.ErrIndicatorComputation, last.Close)
	}
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}

	snap := &model.Snapshot{Ticker: symbol, Close: last.Close, Volume: last.Volume}
	var err error

	if snap.SMA200, err = calculator.CalculateMA200(bars); err != nil {
		return nil, fmt.Errorf("%s: sma200: %w", symbol, err)
	}
	if snap.AvgVol50, err = calculator.CalculateAvgVolume50(bars); err != nil {
		return nil, fmt.Errorf("%s: avg volume: %w", symbol, err)
	}
	if snap.AvgVol50 <= 0 {
		return nil, fmt.Errorf("%s: %w: zero average volume", symbol, model.ErrIndicatorComputation)
	}
	snap.VolSurge = last.Volume / snap.AvgVol50

	if snap.RSI14, err = calculator.CalculateRSI(bars, rsiPeriod); err != nil {
		return nil, fmt.Errorf("%s: rsi: %w", symbol, err)
	}

	bands, err := calculator.CalculateBollinger(closes, bollingerPeriod, bollingerK)
	if err != nil {
		return nil, fmt.Errorf("%s: bollinger: %w", symbol, err)
	}
	snap.BBMiddle, snap.BBUpper, snap.BBLower, snap.BBPosition = bands.Middle, bands.Upper, bands.Lower, bands.Position

	if snap.ATR14, err = calculator.CalculateATR(bars, atrPeriod); err != nil {
		return nil, fmt.Errorf("%s: atr: %w", symbol, err)
	}
	snap.ATRPct = snap.ATR14 / last.Close * 100

	macd, err := calculator.CalculateMACD(closes, macdFast, macdSlow, macdSignal)
	if err != nil {
		return nil, fmt.Errorf("%s: macd: %w", symbol, err)
	}
	snap.MACDHist = macd.Histogram

	if snap.Support, err = calculator.CalculateSupport(bars, supportLookback); err != nil {
		return nil, fmt.Errorf("%s: support: %w", symbol, err)
	}
	if snap.DistanceToSupportPct, err = calculator.DistancePct(last.Close, snap.Support); err != nil {
		return nil, fmt.Errorf("%s: support distance: %w", symbol, err)
	}

	if err := checkFinite(snap); err != nil {
		return nil, fmt.Errorf("%s: %w", symbol, err)
	}
	return snap, nil
}

func checkFinite(s *model.Snapshot) error {
	fields := map[string]float64{
		"sma200": s.SMA200, "avg_vol_50": s.AvgVol50, "rsi": s.RSI14,
		"bb_position": s.BBPosition, "atr_pct": s.ATRPct, "macd_hist": s.MACDHist,
		"support": s.Support, "vol_surge": s.VolSurge,
	}
	for name, v := range fields {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s is %v", model.ErrIndicatorComputation, name, v)
		}
	}
	return nil
}
