package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"PremiumScreener/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
// Symbols found in Bars or Errs get that response; others get generated bars.
type MockFetcher struct {
	Price float64
	Count int
	Bars  map[string][]model.OHLCV
	Errs  map[string]error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchBars(ctx context.Context, symbol, period, _ string) ([]model.OHLCV, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err, ok := m.Errs[symbol]; ok {
		return nil, err
	}
	if bars, ok := m.Bars[symbol]; ok {
		return bars, nil
	}
	count := m.Count
	if count == 0 {
		days, err := PeriodTradingDays(period)
		if err != nil {
			return nil, err
		}
		count = days
	}
	price := m.Price
	if price == 0 {
		price = 100
	}
	return GenerateMockBars(price, count), nil
}

// GenerateMockBars returns a gently rising series ending yesterday.
func GenerateMockBars(basePrice float64, count int) []model.OHLCV {
	bars := make([]model.OHLCV, count)
	end := mockEndDate()
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.OHLCV{
			Time:   end.AddDate(0, 0, -(count - 1 - i)),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}

// OversoldBounceBars returns a steady uptrend that sells off 3% a day over
// its last six bars on a 2.5x volume spike. It passes every screening filter.
func OversoldBounceBars(basePrice float64, count int) []model.OHLCV {
	const selloff = 6
	bars := make([]model.OHLCV, count)
	end := mockEndDate()
	prev := basePrice
	for i := 0; i < count; i++ {
		c := basePrice * (1 + 0.01*float64(i))
		if i >= count-selloff {
			c = prev * 0.97
		}
		bars[i] = model.OHLCV{
			Time:   end.AddDate(0, 0, -(count - 1 - i)),
			Open:   prev,
			High:   c * 1.015,
			Low:    c * 0.985,
			Close:  c,
			Volume: 1000000,
		}
		prev = c
	}
	if count > 0 {
		bars[count-1].Volume = 2500000
	}
	return bars
}

// FlatBars returns a series with constant price and zero range.
func FlatBars(price float64, count int) []model.OHLCV {
	bars := make([]model.OHLCV, count)
	end := mockEndDate()
	for i := range bars {
		bars[i] = model.OHLCV{
			Time:   end.AddDate(0, 0, -(count - 1 - i)),
			Open:   price,
			High:   price,
			Low:    price,
			Close:  price,
			Volume: 1000000,
		}
	}
	return bars
}

func mockEndDate() time.Time {
	return time.Now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, -1)
}

// Collector fetches market data for a ticker and derives its indicators.
type Collector struct {
	Fetcher  Fetcher
	Period   string
	Interval string
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, period, interval string) *Collector {
	return &Collector{Fetcher: fetcher, Period: period, Interval: interval}
}

// Collect fetches bars for symbol and computes its indicator snapshot.
// Errors wrap model.ErrDataFetch, model.ErrInsufficientData or
// model.ErrIndicatorComputation.
func (c *Collector) Collect(ctx context.Context, symbol string) (*model.Snapshot, error) {
	bars, err := c.Fetcher.FetchBars(ctx, symbol, c.Period, c.Interval)
	if err != nil {
		if errors.Is(err, model.ErrInsufficientData) || errors.Is(err, model.ErrDataFetch) {
			return nil, fmt.Errorf("fetch %s: %w", symbol, err)
		}
		return nil, fmt.Errorf("fetch %s: %w: %w", symbol, model.ErrDataFetch, err)
	}
	return BuildSnapshot(symbol, NormalizeBars(bars))
}
