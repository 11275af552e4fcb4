package report

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/shopspring/decimal"

	"PremiumScreener/internal/model"
)

var (
	// ErrNoSignals is returned by Write when there is nothing to persist.
	ErrNoSignals = errors.New("no signals to write")
	// ErrNoReport is returned by Latest when the directory holds no report.
	ErrNoReport = errors.New("no signal report found")
)

const (
	filePrefix = "signals_"
	fileSuffix = ".csv"
	dateLayout = "20060102"
)

// Header is the fixed column order of a signal report.
var Header = []string{
	"Ticker", "Signal_Strength", "RSI", "Price", "SMA_200", "BB_Position",
	"BB_Lower", "BB_Upper", "ATR_%", "Vol_Surge", "Support",
	"Distance_to_Support_%", "MACD_Histogram", "Scan_Date", "Scan_Time",
}

// FileName returns the report name for a scan date.
func FileName(date time.Time) string {
	return filePrefix + date.Format(dateLayout) + fileSuffix
}

// DateFromPath extracts the scan date encoded in a report file name.
func DateFromPath(path string) (time.Time, error) {
	base := filepath.Base(path)
	if !strings.HasPrefix(base, filePrefix) || !strings.HasSuffix(base, fileSuffix) {
		return time.Time{}, fmt.Errorf("%s is not a signal report name", base)
	}
	return time.Parse(dateLayout, strings.TrimSuffix(strings.TrimPrefix(base, filePrefix), fileSuffix))
}

// Write stores records as dir/signals_YYYYMMDD.csv, strongest first, and
// returns the file path. A report for the same date is overwritten.
func Write(dir string, records []model.SignalRecord, date time.Time) (string, error) {
	if len(records) == 0 {
		return "", ErrNoSignals
	}
	sorted := make([]model.SignalRecord, len(records))
	copy(sorted, records)
	model.SortByStrength(sorted)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(Header); err != nil {
		return "", err
	}
	for _, r := range sorted {
		if err := w.Write(toRow(r)); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	path := filepath.Join(dir, FileName(date))
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

func toRow(r model.SignalRecord) []string {
	return []string{
		r.Ticker,
		strconv.Itoa(r.SignalStrength),
		fixed(r.RSI, 2),
		fixed(r.Price, 2),
		fixed(r.SMA200, 2),
		fixed(r.BBPosition, 2),
		fixed(r.BBLower, 2),
		fixed(r.BBUpper, 2),
		fixed(r.ATRPct, 1),
		fixed(r.VolSurge, 2),
		fixed(r.Support, 2),
		fixed(r.DistanceToSupportPct, 1),
		fixed(r.MACDHistogram, 3),
		r.ScanDate,
		r.ScanTime,
	}
}

func fixed(v float64, places int32) string {
	return decimal.NewFromFloat(v).StringFixed(places)
}

// Remove deletes the report of date from dir. A missing report is not an
// error.
func Remove(dir string, date time.Time) error {
	err := os.Remove(filepath.Join(dir, FileName(date)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Read loads a report written by Write.
func Read(path string) ([]model.SignalRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read report %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("read report %s: missing header", path)
	}
	if strings.Join(rows[0], ",") != strings.Join(Header, ",") {
		return nil, fmt.Errorf("read report %s: unexpected header %v", path, rows[0])
	}

	records := make([]model.SignalRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		r, err := fromRow(row)
		if err != nil {
			return nil, fmt.Errorf("read report %s: row %d: %w", path, i+2, err)
		}
		records = append(records, r)
	}
	return records, nil
}

func fromRow(row []string) (model.SignalRecord, error) {
	var (
		r   model.SignalRecord
		err error
	)
	r.Ticker = row[0]
	if r.SignalStrength, err = strconv.Atoi(row[1]); err != nil {
		return r, fmt.Errorf("Signal_Strength: %w", err)
	}
	floats := []*float64{
		&r.RSI, &r.Price, &r.SMA200, &r.BBPosition, &r.BBLower, &r.BBUpper,
		&r.ATRPct, &r.VolSurge, &r.Support, &r.DistanceToSupportPct, &r.MACDHistogram,
	}
	for i, dst := range floats {
		if *dst, err = strconv.ParseFloat(row[i+2], 64); err != nil {
			return r, fmt.Errorf("%s: %w", Header[i+2], err)
		}
	}
	r.ScanDate = row[13]
	r.ScanTime = row[14]
	return r, nil
}

// Latest returns the most recent report in dir, judged by file name.
func Latest(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, filePrefix+"*"+fileSuffix))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("%s: %w", dir, ErrNoReport)
	}
	sort.Strings(matches)
	return matches[len(matches)-1], nil
}

// LogPreview logs the first n records of a report.
func LogPreview(logger log.Logger, records []model.SignalRecord, n int) {
	if n <= 0 {
		return
	}
	if n > len(records) {
		n = len(records)
	}
	for i, r := range records[:n] {
		_ = level.Info(logger).Log("msg", "top signal", "rank", i+1, "ticker", r.Ticker,
			"strength", r.SignalStrength, "rsi", fixed(r.RSI, 2), "price", fixed(r.Price, 2),
			"bb_position", fixed(r.BBPosition, 2), "vol_surge", fixed(r.VolSurge, 2))
	}
}
