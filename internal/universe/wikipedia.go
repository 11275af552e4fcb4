package universe

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"PremiumScreener/internal/model"
)

// SP500URL lists the S&P 500 constituents in its first wikitable.
const SP500URL = "https://en.wikipedia.org/wiki/List_of_S%26P_500_companies"

// WikipediaSource scrapes the "Symbol" column of the first wikitable on a page.
type WikipediaSource struct {
	URL    string
	Column string
	Client *http.Client
}

// NewWikipediaSource creates a scraper for pageURL with optional proxy support.
func NewWikipediaSource(pageURL, proxyURL string) *WikipediaSource {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if pageURL == "" {
		pageURL = SP500URL
	}
	return &WikipediaSource{
		URL:    pageURL,
		Column: "Symbol",
		Client: &http.Client{Timeout: 30 * time.Second, Transport: transport},
	}
}

func (w *WikipediaSource) Name() string { return "wikipedia" }

func (w *WikipediaSource) Tickers(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrTickerSourceUnavailable, err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := w.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrTickerSourceUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", model.ErrTickerSourceUnavailable, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: parse html: %v", model.ErrTickerSourceUnavailable, err)
	}

	table := doc.Find("table.wikitable").First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("%w: no wikitable found", model.ErrTickerSourceUnavailable)
	}

	col := -1
	table.Find("tr").First().Find("th").EachWithBreak(func(i int, th *goquery.Selection) bool {
		if strings.EqualFold(strings.TrimSpace(th.Text()), w.Column) {
			col = i
			return false
		}
		return true
	})
	if col < 0 {
		return nil, fmt.Errorf("%w: column %q not found", model.ErrTickerSourceUnavailable, w.Column)
	}

	var symbols []string
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		cell := tr.Find("td").Eq(col)
		if cell.Length() == 0 {
			return
		}
		symbols = append(symbols, cell.Text())
	})
	return Normalize(symbols), nil
}
