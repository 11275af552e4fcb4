package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/redis/go-redis/v9"

	"PremiumScreener/internal/model"
)

// CachedFetcher is a read-through Redis cache in front of another Fetcher.
// Redis failures are logged and the request falls through to Next.
type CachedFetcher struct {
	Next   Fetcher
	Client redis.Cmdable
	TTL    time.Duration
	Prefix string
	logger log.Logger
}

// NewCachedFetcher wraps next with a Redis cache whose entries live for ttl.
func NewCachedFetcher(next Fetcher, client redis.Cmdable, ttl time.Duration, logger log.Logger) *CachedFetcher {
	return &CachedFetcher{
		Next:   next,
		Client: client,
		TTL:    ttl,
		Prefix: "screener",
		logger: log.With(logger, "component", "bar_cache"),
	}
}

func (c *CachedFetcher) Name() string { return c.Next.Name() + "+redis" }

func (c *CachedFetcher) key(symbol, period, interval string) string {
	return fmt.Sprintf("%s:bars:%s:%s:%s", c.Prefix, symbol, period, interval)
}

func (c *CachedFetcher) FetchBars(ctx context.Context, symbol, period, interval string) ([]model.OHLCV, error) {
	key := c.key(symbol, period, interval)

	data, err := c.Client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var bars []model.OHLCV
		if err := json.Unmarshal(data, &bars); err == nil {
			return bars, nil
		}
		_ = level.Warn(c.logger).Log("msg", "discarding undecodable cache entry", "key", key)
	case !errors.Is(err, redis.Nil):
		_ = level.Warn(c.logger).Log("msg", "cache read failed", "key", key, "err", err)
	}

	bars, err := c.Next.FetchBars(ctx, symbol, period, interval)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(bars)
	if err != nil {
		return bars, nil
	}
	if err := c.Client.Set(ctx, key, payload, c.TTL).Err(); err != nil {
		_ = level.Warn(c.logger).Log("msg", "cache write failed", "key", key, "err", err)
	}
	return bars, nil
}
