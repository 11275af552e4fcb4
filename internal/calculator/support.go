package calculator

import (
	"errors"
	"fmt"
	"math"

	"PremiumScreener/internal/model"
)

// CalculateRange scans the most recent lookback bars, current bar included,
// and returns the highest high and lowest low.
func CalculateRange(dailyBars []model.OHLCV, lookback int) (high, low float64, err error) {
	if lookback <= 0 {
		return 0, 0, errPeriod
	}
	if len(dailyBars) == 0 {
		return 0, 0, errors.New("no daily bars provided")
	}
	n := len(dailyBars)
	start := n - lookback
	if start < 0 {
		start = 0
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for i := start; i < n; i++ {
		if dailyBars[i].High > high {
			high = dailyBars[i].High
		}
		if dailyBars[i].Low < low {
			low = dailyBars[i].Low
		}
	}
	return high, low, nil
}

// CalculateSupport returns the lowest low of the trailing lookback bars,
// current bar included.
func CalculateSupport(dailyBars []model.OHLCV, lookback int) (float64, error) {
	if len(dailyBars) < lookback {
		return 0, fmt.Errorf("%w: support(%d) needs %d bars, have %d", model.ErrInsufficientData, lookback, lookback, len(dailyBars))
	}
	_, low, err := CalculateRange(dailyBars, lookback)
	return low, err
}

// DistancePct returns how far price sits above level, as a percent of price.
func DistancePct(price, level float64) (float64, error) {
	if price <= 0 {
		return 0, fmt.Errorf("%w: price must be positive, got %v", model.ErrIndicatorComputation, price)
	}
	return (price - level) / price * 100, nil
}
