package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PremiumScreener/internal/model"
)

func newTestNotifier(url string) *TelegramNotifier {
	n := NewTelegramNotifier("TOKEN", "42", "", log.NewNopLogger())
	n.APIBase = url
	n.Backoff = time.Millisecond
	return n
}

func TestSend(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		fmt.Fprint(w, `{"ok":true}`)
	}))
	defer srv.Close()

	require.NoError(t, newTestNotifier(srv.URL).Send(context.Background(), "<b>hi</b>"))
	assert.Equal(t, "42", got["chat_id"])
	assert.Equal(t, "<b>hi</b>", got["text"])
	assert.Equal(t, "HTML", got["parse_mode"])
}

func TestSend_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"ok":false,"description":"chat not found"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	err := newTestNotifier(srv.URL).Send(context.Background(), "x")
	assert.ErrorContains(t, err, "status 400")
	assert.ErrorContains(t, err, "chat not found")
}

func TestSendWithRetry_RecoversAfterFailures(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"ok":true}`)
	}))
	defer srv.Close()

	require.NoError(t, newTestNotifier(srv.URL).SendWithRetry(context.Background(), "x", 3))
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestSendWithRetry_Exhausted(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := newTestNotifier(srv.URL).SendWithRetry(context.Background(), "x", 2)
	assert.ErrorContains(t, err, "all 3 retries exhausted")
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestStartPolling_DispatchesCommands(t *testing.T) {
	PollTimeout = 0
	defer func() { PollTimeout = 30 * time.Second }()

	var (
		mu      sync.Mutex
		replies []string
		polled  int32
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/getUpdates"):
			if atomic.AddInt32(&polled, 1) == 1 {
				assert.Equal(t, "0", r.URL.Query().Get("offset"))
				fmt.Fprint(w, `{"ok":true,"result":[
					{"update_id":7,"message":{"text":" /help "}},
					{"update_id":8,"message":{"text":""}},
					{"update_id":9,"message":{"text":"/unknown"}}]}`)
				return
			}
			assert.Equal(t, "10", r.URL.Query().Get("offset"))
			cancel()
			fmt.Fprint(w, `{"ok":true,"result":[]}`)
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			var payload map[string]string
			_ = json.NewDecoder(r.Body).Decode(&payload)
			mu.Lock()
			replies = append(replies, payload["text"])
			mu.Unlock()
			fmt.Fprint(w, `{"ok":true}`)
		}
	}))
	defer srv.Close()

	var commands []string
	handler := func(_ context.Context, cmd string) string {
		commands = append(commands, cmd)
		if cmd == "/help" {
			return FormatHelp()
		}
		return ""
	}

	done := make(chan struct{})
	go func() {
		newTestNotifier(srv.URL).StartPolling(ctx, handler)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("polling did not stop after cancel")
	}

	assert.Equal(t, []string{"/help", "/unknown"}, commands)
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0], "/latest")
}

func TestFormatRunReport(t *testing.T) {
	start := time.Date(2025, 6, 2, 21, 15, 0, 0, time.UTC)
	records := []model.SignalRecord{
		{Ticker: "NVDA", SignalStrength: 100, RSI: 15.47, Price: 294.04, BBPosition: -0.15, ATRPct: 4, VolSurge: 2.43},
		{Ticker: "AMD", SignalStrength: 65, RSI: 31.2, Price: 118.4, BBPosition: 0.21, ATRPct: 3.4, VolSurge: 1.45},
		{Ticker: "BRK-B", SignalStrength: 45, RSI: 33.9, Price: 410.5, BBPosition: 0.28, ATRPct: 1.6, VolSurge: 1.25},
	}
	sum := model.RunSummary{Analyzed: 30, Succeeded: 29, Errored: 1, Signals: 3,
		AvgStrength: 70, AvgRSI: 26.86, MinPrice: 118.4, MaxPrice: 410.5, StartedAt: start}

	msg := FormatRunReport(sum, records, 2)
	assert.Contains(t, msg, "2025-06-02 21:15")
	assert.Contains(t, msg, "Analyzed: 30 (ok 29, errors 1)")
	assert.Contains(t, msg, "Avg strength: 70.0 | Avg RSI: 26.9")
	assert.Contains(t, msg, "1. <b>NVDA</b> 100 | RSI 15.5 | $294.04")
	assert.Contains(t, msg, "2. <b>AMD</b> 65")
	assert.NotContains(t, msg, "BRK-B")
	assert.Contains(t, msg, "and 1 more")
}

func TestFormatRunReport_NoSignals(t *testing.T) {
	msg := FormatRunReport(model.RunSummary{Analyzed: 30, Succeeded: 30, UniverseFallback: true}, nil, 5)
	assert.Contains(t, msg, "No ticker met every criterion")
	assert.Contains(t, msg, "fallback")
	assert.NotContains(t, msg, "Avg strength")
}

func TestFormatLatestAndError(t *testing.T) {
	msg := FormatLatest(time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), []model.SignalRecord{{Ticker: "AMD", SignalStrength: 65}}, 10)
	assert.Contains(t, msg, "Report 2025-06-02")
	assert.Contains(t, msg, "(1 signals)")

	assert.Equal(t, "❌ <b>scan failed</b>\na &lt;b&gt; c", FormatError("scan failed", errors.New("a <b> c")))
}
