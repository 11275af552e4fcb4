package calculator

import (
	"fmt"
	"math"

	"PremiumScreener/internal/model"
)

// Bands holds Bollinger Band values at the latest bar.
type Bands struct {
	Middle   float64
	Upper    float64
	Lower    float64
	Position float64 // (close-lower)/(upper-lower), may leave [0,1] on gaps
}

// Width returns upper minus lower.
func (b Bands) Width() float64 { return b.Upper - b.Lower }

// CalculateBollinger computes Bollinger Bands over the last period closes
// using the sample standard deviation. A zero-width band is an error since
// the position is undefined.
func CalculateBollinger(closes []float64, period int, k float64) (Bands, error) {
	middle, err := CalculateSMA(closes, period)
	if err != nil {
		return Bands{}, err
	}
	if period < 2 {
		return Bands{}, fmt.Errorf("bollinger period must be at least 2, got %d", period)
	}

	var ss float64
	for i := len(closes) - period; i < len(closes); i++ {
		d := closes[i] - middle
		ss += d * d
	}
	std := math.Sqrt(ss / float64(period-1))

	b := Bands{
		Middle: middle,
		Upper:  middle + k*std,
		Lower:  middle - k*std,
	}
	if b.Width() <= 0 {
		return b, fmt.Errorf("%w: bollinger band width is zero", model.ErrIndicatorComputation)
	}
	b.Position = (closes[len(closes)-1] - b.Lower) / b.Width()
	return b, nil
}
