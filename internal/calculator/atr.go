package calculator

import (
	"fmt"
	"math"

	"PremiumScreener/internal/model"
)

// CalculateATR computes Wilder's average true range over the given period.
// True range starts at the second bar; the first ATR is the mean of the
// first period true ranges.
func CalculateATR(bars []model.OHLCV, period int) (float64, error) {
	if period <= 0 {
		return 0, errPeriod
	}
	if len(bars) < period+1 {
		return 0, fmt.Errorf("%w: ATR(%d) needs %d bars, have %d", model.ErrInsufficientData, period, period+1, len(bars))
	}

	var atr float64
	for i := 1; i <= period; i++ {
		atr += trueRange(bars[i], bars[i-1].Close)
	}
	atr /= float64(period)

	for i := period + 1; i < len(bars); i++ {
		atr = (atr*float64(period-1) + trueRange(bars[i], bars[i-1].Close)) / float64(period)
	}
	return atr, nil
}

func trueRange(bar model.OHLCV, prevClose float64) float64 {
	return math.Max(bar.High-bar.Low, math.Max(math.Abs(bar.High-prevClose), math.Abs(bar.Low-prevClose)))
}
