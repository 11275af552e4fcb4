package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PremiumScreener/internal/model"
)

const yahooBody = `{"chart":{"result":[{"timestamp":[1704412800,1704240000,1704326400],
"indicators":{"quote":[{
"open":[12,10,null],"high":[13,11,null],"low":[11,9,null],"close":[12.5,10.5,null],"volume":[300,100,null]}]}}],
"error":null}}`

func newYahooServer(t *testing.T, status int, body string) (*YahooFetcher, *http.Request) {
	t.Helper()
	var got http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = *r
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	f := NewYahooFetcher("")
	f.ChartURL = srv.URL
	return f, &got
}

func TestYahooFetcher_FetchBars(t *testing.T) {
	f, req := newYahooServer(t, http.StatusOK, yahooBody)

	bars, err := f.FetchBars(context.Background(), "BRK-B", "1y", "1d")
	require.NoError(t, err)

	assert.Equal(t, "/BRK-B", req.URL.Path)
	assert.Equal(t, "1d", req.URL.Query().Get("interval"))
	assert.Equal(t, "1y", req.URL.Query().Get("range"))
	assert.Equal(t, "Mozilla/5.0", req.Header.Get("User-Agent"))

	// null bar skipped, output sorted by time
	require.Len(t, bars, 2)
	assert.Equal(t, 10.5, bars[0].Close)
	assert.Equal(t, 12.5, bars[1].Close)
	assert.Equal(t, 300.0, bars[1].Volume)
	assert.True(t, bars[0].Time.Before(bars[1].Time))
}

func TestYahooFetcher_SymbolMap(t *testing.T) {
	f, req := newYahooServer(t, http.StatusOK, yahooBody)
	_, err := f.FetchBars(context.Background(), "SPX", "1y", "1d")
	require.NoError(t, err)
	assert.Equal(t, "/^GSPC", req.URL.Path)
}

func TestYahooFetcher_Errors(t *testing.T) {
	t.Run("http status", func(t *testing.T) {
		f, _ := newYahooServer(t, http.StatusNotFound, `{}`)
		_, err := f.FetchBars(context.Background(), "ZZZZ", "1y", "1d")
		assert.ErrorIs(t, err, model.ErrDataFetch)
	})

	t.Run("api error", func(t *testing.T) {
		f, _ := newYahooServer(t, http.StatusOK, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`)
		_, err := f.FetchBars(context.Background(), "ZZZZ", "1y", "1d")
		assert.ErrorIs(t, err, model.ErrDataFetch)
		assert.Contains(t, err.Error(), "No data found")
	})

	t.Run("malformed body", func(t *testing.T) {
		f, _ := newYahooServer(t, http.StatusOK, `<html>`)
		_, err := f.FetchBars(context.Background(), "ZZZZ", "1y", "1d")
		assert.ErrorIs(t, err, model.ErrDataFetch)
	})

	t.Run("no bars", func(t *testing.T) {
		f, _ := newYahooServer(t, http.StatusOK, `{"chart":{"result":[{"timestamp":[],"indicators":{"quote":[]}}],"error":null}}`)
		_, err := f.FetchBars(context.Background(), "ZZZZ", "1y", "1d")
		assert.ErrorIs(t, err, model.ErrInsufficientData)
	})
}
