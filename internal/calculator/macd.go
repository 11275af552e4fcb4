package calculator

import (
	"fmt"
	"math"

	"PremiumScreener/internal/model"
)

// MACD holds the MACD line, signal line and histogram at the latest bar.
type MACD struct {
	Line      float64
	Signal    float64
	Histogram float64
}

// CalculateMACD computes MACD(fast, slow, signal) from closes.
func CalculateMACD(closes []float64, fast, slow, signal int) (MACD, error) {
	if fast >= slow {
		return MACD{}, fmt.Errorf("macd fast period %d must be below slow period %d", fast, slow)
	}
	if need := slow + signal - 1; len(closes) < need {
		return MACD{}, fmt.Errorf("%w: MACD(%d,%d,%d) needs %d closes, have %d",
			model.ErrInsufficientData, fast, slow, signal, need, len(closes))
	}

	fastEMA, err := CalculateEMASeries(closes, fast)
	if err != nil {
		return MACD{}, err
	}
	slowEMA, err := CalculateEMASeries(closes, slow)
	if err != nil {
		return MACD{}, err
	}

	line := make([]float64, len(closes))
	for i := range closes {
		line[i] = fastEMA[i] - slowEMA[i] // NaN until the slow EMA is defined
	}
	signalLine, err := CalculateEMASeries(line, signal)
	if err != nil {
		return MACD{}, err
	}

	last := len(closes) - 1
	m := MACD{Line: line[last], Signal: signalLine[last]}
	m.Histogram = m.Line - m.Signal
	if math.IsNaN(m.Histogram) {
		return m, fmt.Errorf("%w: macd histogram undefined", model.ErrIndicatorComputation)
	}
	return m, nil
}
