package collector

import (
	"context"
	"fmt"

	"PremiumScreener/internal/model"
)

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	// FetchBars returns time-ordered bars for symbol covering the trailing
	// period ("6mo", "1y", ...) at the given interval ("1d", "1wk").
	FetchBars(ctx context.Context, symbol, period, interval string) ([]model.OHLCV, error)
	Name() string
}

var periodDays = map[string]int{
	"1mo": 21,
	"3mo": 63,
	"6mo": 126,
	"1y":  252,
	"2y":  504,
	"5y":  1260,
}

// PeriodTradingDays converts a lookback period into an approximate number
// of daily bars.
func PeriodTradingDays(period string) (int, error) {
	if d, ok := periodDays[period]; ok {
		return d, nil
	}
	return 0, fmt.Errorf("unsupported period %q", period)
}
