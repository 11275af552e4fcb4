package calculator

import (
	"errors"
	"fmt"
	"math"

	"PremiumScreener/internal/model"
)

var errPeriod = errors.New("period must be positive")

// CalculateSMA computes the simple moving average of the last period values.
func CalculateSMA(values []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errPeriod
	}
	if len(values) < period {
		return 0, fmt.Errorf("%w: SMA(%d) needs %d values, have %d", model.ErrInsufficientData, period, period, len(values))
	}
	sum := 0.0
	for i := len(values) - period; i < len(values); i++ {
		sum += values[i]
	}
	return sum / float64(period), nil
}

// CalculateMA200 returns the 200-day simple moving average of closes.
func CalculateMA200(dailyBars []model.OHLCV) (float64, error) {
	return CalculateSMA(extractCloses(dailyBars), 200)
}

// CalculateAvgVolume50 returns the 50-day simple moving average of volume.
// The current bar is part of the window.
func CalculateAvgVolume50(dailyBars []model.OHLCV) (float64, error) {
	return CalculateSMA(extractVolumes(dailyBars), 50)
}

// CalculateEMASeries returns an exponential moving average aligned with values.
// Leading NaN inputs are skipped; the first defined output is the SMA of the
// first period defined inputs and every earlier slot is NaN.
func CalculateEMASeries(values []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, errPeriod
	}
	start := 0
	for start < len(values) && math.IsNaN(values[start]) {
		start++
	}
	if len(values)-start < period {
		return nil, fmt.Errorf("%w: EMA(%d) needs %d values, have %d", model.ErrInsufficientData, period, period, len(values)-start)
	}

	out := make([]float64, len(values))
	for i := 0; i < start+period-1; i++ {
		out[i] = math.NaN()
	}
	seed := 0.0
	for i := start; i < start+period; i++ {
		seed += values[i]
	}
	prev := seed / float64(period)
	out[start+period-1] = prev

	k := 2.0 / float64(period+1)
	for i := start + period; i < len(values); i++ {
		prev = (values[i]-prev)*k + prev
		out[i] = prev
	}
	return out, nil
}

func extractCloses(bars []model.OHLCV) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}

func extractVolumes(bars []model.OHLCV) []float64 {
	vols := make([]float64, len(bars))
	for i, b := range bars {
		vols[i] = b.Volume
	}
	return vols
}
