package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"PremiumScreener/internal/model"
)

// FormatRunReport formats the result of a screening run into a Telegram message.
// At most top records are listed.
func FormatRunReport(sum model.RunSummary, records []model.SignalRecord, top int) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>Premium Screener</b> | %s\n\n", sum.StartedAt.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("Analyzed: %d (ok %d, errors %d)\n", sum.Analyzed, sum.Succeeded, sum.Errored))
	if sum.UniverseFallback {
		b.WriteString("⚠️ ticker source unavailable, used fallback list\n")
	}
	b.WriteString(fmt.Sprintf("Signals: <b>%d</b>\n", sum.Signals))
	if sum.Signals == 0 {
		b.WriteString("\nNo ticker met every criterion.\n")
		return b.String()
	}
	b.WriteString(fmt.Sprintf("Avg strength: %.1f | Avg RSI: %.1f\n", sum.AvgStrength, sum.AvgRSI))
	b.WriteString(fmt.Sprintf("Price range: $%.2f - $%.2f\n\n", sum.MinPrice, sum.MaxPrice))
	b.WriteString(FormatSignals(records, top))
	return b.String()
}

// FormatSignals lists the strongest records, one line each.
func FormatSignals(records []model.SignalRecord, top int) string {
	if len(records) == 0 {
		return "No signals.\n"
	}
	if top <= 0 || top > len(records) {
		top = len(records)
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🎯 <b>Top %d</b>\n", top))
	for i, r := range records[:top] {
		b.WriteString(fmt.Sprintf("%d. <b>%s</b> %d | RSI %.1f | $%.2f | BB %.2f | ATR %.1f%% | Vol %.2fx\n",
			i+1, html.EscapeString(r.Ticker), r.SignalStrength, r.RSI, r.Price, r.BBPosition, r.ATRPct, r.VolSurge))
	}
	if top < len(records) {
		b.WriteString(fmt.Sprintf("… and %d more\n", len(records)-top))
	}
	return b.String()
}

// FormatLatest formats a stored report for the /latest command.
func FormatLatest(scanDate time.Time, records []model.SignalRecord, top int) string {
	return fmt.Sprintf("📄 <b>Report %s</b> (%d signals)\n\n%s",
		scanDate.Format("2006-01-02"), len(records), FormatSignals(records, top))
}

// FormatHelp lists the supported commands.
func FormatHelp() string {
	return "<b>Commands</b>\n" +
		"/scan - run a screening pass now\n" +
		"/latest - show the most recent report\n" +
		"/help - show this message\n"
}

// FormatError formats a failure notice.
func FormatError(what string, err error) string {
	return fmt.Sprintf("❌ <b>%s</b>\n%s", html.EscapeString(what), html.EscapeString(err.Error()))
}
