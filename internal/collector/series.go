package collector

import (
	"math"
	"sort"

	"PremiumScreener/internal/model"
)

// NormalizeBars sorts bars by time, keeps the last bar of any duplicated
// calendar date and drops bars with unusable prices or volume.
func NormalizeBars(bars []model.OHLCV) []model.OHLCV {
	out := make([]model.OHLCV, 0, len(bars))
	for _, b := range bars {
		if !validBar(b) {
			continue
		}
		out = append(out, b)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })

	deduped := out[:0]
	for _, b := range out {
		n := len(deduped)
		if n > 0 && sameDate(deduped[n-1], b) {
			deduped[n-1] = b
			continue
		}
		deduped = append(deduped, b)
	}
	return deduped
}

func validBar(b model.OHLCV) bool {
	for _, v := range []float64{b.Open, b.High, b.Low, b.Close, b.Volume} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return b.Close > 0 && b.Volume >= 0 && !b.Time.IsZero()
}

func sameDate(a, b model.OHLCV) bool {
	return a.Time.Format("2006-01-02") == b.Time.Format("2006-01-02")
}
