package universe

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"

	"PremiumScreener/internal/model"
)

// FallbackTickers is used whenever the live ticker list cannot be fetched.
var FallbackTickers = []string{
	"AAPL", "MSFT", "GOOGL", "AMZN", "TSLA", "NVDA", "CLS", "VOO", "QQQM", "QLD",
	"IWM", "AMD", "STX", "MARA", "HIMS", "ANET", "ARM", "LRCX", "MP", "OKLO",
	"ORCL", "AMAT", "IONQ", "RGTI", "CRWD", "NFLX", "META", "AVGO", "MU", "PLTR",
}

// Source supplies the list of tickers to screen.
type Source interface {
	Tickers(ctx context.Context) ([]string, error)
	Name() string
}

// StaticSource returns a fixed list.
type StaticSource []string

func (s StaticSource) Name() string { return "static" }

func (s StaticSource) Tickers(_ context.Context) ([]string, error) {
	return Normalize(s), nil
}

// Load returns the tickers from src, or fallback when src fails or yields
// nothing. The boolean reports whether the fallback was used. A positive
// limit truncates the list.
func Load(ctx context.Context, src Source, fallback []string, limit int, logger log.Logger) ([]string, bool) {
	tickers, err := src.Tickers(ctx)
	if err == nil && len(tickers) == 0 {
		err = fmt.Errorf("%w: %s returned no tickers", model.ErrTickerSourceUnavailable, src.Name())
	}

	usedFallback := false
	if err != nil {
		_ = level.Warn(logger).Log("msg", "ticker source failed, using fallback list",
			"source", src.Name(), "fallback", len(fallback), "err", err)
		tickers = Normalize(fallback)
		usedFallback = true
	} else {
		_ = level.Info(logger).Log("msg", "loaded tickers", "source", src.Name(), "count", len(tickers))
	}

	if limit > 0 && len(tickers) > limit {
		tickers = tickers[:limit]
	}
	return tickers, usedFallback
}

// Normalize uppercases symbols, maps share-class dots to dashes
// (BRK.B -> BRK-B), drops blanks and removes duplicates keeping first
// occurrence.
func Normalize(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		s = strings.ReplaceAll(s, ".", "-")
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
