package universe

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-kit/kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PremiumScreener/internal/model"
)

const sp500Page = `<html><body>
<table class="wikitable sortable" id="constituents">
<tbody>
<tr><th>Symbol</th><th>Security</th><th>GICS Sector</th></tr>
<tr><td><a href="#">MMM</a></td><td>3M</td><td>Industrials</td></tr>
<tr><td><a href="#">BRK.B</a>
</td><td>Berkshire Hathaway</td><td>Financials</td></tr>
<tr><td>aapl</td><td>Apple Inc.</td><td>Information Technology</td></tr>
<tr><td>MMM</td><td>duplicate</td><td>Industrials</td></tr>
</tbody></table>
<table class="wikitable"><tr><th>Date</th></tr><tr><td>2024-01-01</td></tr></table>
</body></html>`

type failingSource struct{}

func (failingSource) Name() string { return "broken" }
func (failingSource) Tickers(context.Context) ([]string, error) {
	return nil, errors.New("unreachable")
}

func serve(t *testing.T, status int, body string) *WikipediaSource {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return NewWikipediaSource(srv.URL, "")
}

func TestWikipediaSource_Tickers(t *testing.T) {
	src := serve(t, http.StatusOK, sp500Page)
	got, err := src.Tickers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"MMM", "BRK-B", "AAPL"}, got)
}

func TestWikipediaSource_Failures(t *testing.T) {
	cases := map[string]struct {
		status int
		body   string
	}{
		"http error":     {http.StatusServiceUnavailable, ""},
		"no table":       {http.StatusOK, "<html><body><p>moved</p></body></html>"},
		"missing column": {http.StatusOK, `<table class="wikitable"><tr><th>Ticker</th></tr><tr><td>A</td></tr></table>`},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := serve(t, tc.status, tc.body).Tickers(context.Background())
			assert.ErrorIs(t, err, model.ErrTickerSourceUnavailable)
		})
	}
}

func TestLoad_FallsBack(t *testing.T) {
	got, fallback := Load(context.Background(), failingSource{}, FallbackTickers, 0, log.NewNopLogger())
	assert.True(t, fallback)
	assert.Equal(t, FallbackTickers, got)
	assert.Len(t, got, 30)
}

func TestLoad_EmptySourceFallsBack(t *testing.T) {
	got, fallback := Load(context.Background(), StaticSource{}, []string{"SPY"}, 0, log.NewNopLogger())
	assert.True(t, fallback)
	assert.Equal(t, []string{"SPY"}, got)
}

func TestLoad_Limit(t *testing.T) {
	got, fallback := Load(context.Background(), StaticSource{"a", "b", "c"}, nil, 2, log.NewNopLogger())
	assert.False(t, fallback)
	assert.Equal(t, []string{"A", "B"}, got)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, []string{"BF-B", "MSFT"}, Normalize([]string{" bf.b ", "MSFT", "", "msft"}))
}
