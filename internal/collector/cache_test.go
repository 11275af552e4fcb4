package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-kit/kit/log"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PremiumScreener/internal/model"
)

type countingFetcher struct {
	Fetcher
	calls int
}

func (c *countingFetcher) FetchBars(ctx context.Context, symbol, period, interval string) ([]model.OHLCV, error) {
	c.calls++
	return c.Fetcher.FetchBars(ctx, symbol, period, interval)
}

func newCache(t *testing.T, next Fetcher) (*CachedFetcher, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCachedFetcher(next, client, time.Hour, log.NewNopLogger()), mr
}

func TestCachedFetcher_ReadThrough(t *testing.T) {
	inner := &countingFetcher{Fetcher: &MockFetcher{Price: 100, Count: 210}}
	cache, mr := newCache(t, inner)
	ctx := context.Background()

	first, err := cache.FetchBars(ctx, "AAPL", "1y", "1d")
	require.NoError(t, err)
	second, err := cache.FetchBars(ctx, "AAPL", "1y", "1d")
	require.NoError(t, err)

	assert.Equal(t, 1, inner.calls)
	require.Len(t, second, len(first))
	assert.Equal(t, first[len(first)-1].Close, second[len(second)-1].Close)
	assert.True(t, first[0].Time.Equal(second[0].Time))
	assert.True(t, mr.Exists("screener:bars:AAPL:1y:1d"))

	mr.FastForward(2 * time.Hour)
	_, err = cache.FetchBars(ctx, "AAPL", "1y", "1d")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
	assert.Equal(t, "mock+redis", cache.Name())
}

func TestCachedFetcher_ErrorsNotCached(t *testing.T) {
	inner := &countingFetcher{Fetcher: &MockFetcher{Errs: map[string]error{"BAD": errors.New("boom")}}}
	cache, mr := newCache(t, inner)

	_, err := cache.FetchBars(context.Background(), "BAD", "1y", "1d")
	assert.Error(t, err)
	assert.False(t, mr.Exists("screener:bars:BAD:1y:1d"))
}

func TestCachedFetcher_RedisDownFallsThrough(t *testing.T) {
	inner := &countingFetcher{Fetcher: &MockFetcher{Price: 100, Count: 210}}
	cache, mr := newCache(t, inner)
	mr.Close()

	bars, err := cache.FetchBars(context.Background(), "AAPL", "1y", "1d")
	require.NoError(t, err)
	assert.Len(t, bars, 210)
	assert.Equal(t, 1, inner.calls)
}
