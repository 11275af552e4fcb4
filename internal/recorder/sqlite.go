package recorder

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	_ "modernc.org/sqlite"

	"PremiumScreener/internal/model"
)

// SQLiteRecorder persists run history to a SQLite database.
type SQLiteRecorder struct {
	db     *sql.DB
	mu     sync.Mutex
	logger log.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger log.Logger) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets dashboards read while a scan writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, logger: log.With(logger, "component", "recorder")}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	_ = level.Info(r.logger).Log("msg", "sqlite recorder opened", "path", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS scan_runs (
			id                INTEGER PRIMARY KEY AUTOINCREMENT,
			started_at        INTEGER NOT NULL,
			finished_at       INTEGER NOT NULL,
			analyzed          INTEGER,
			succeeded         INTEGER,
			errored           INTEGER,
			insufficient      INTEGER,
			signals           INTEGER,
			avg_strength      REAL,
			avg_rsi           REAL,
			min_price         REAL,
			max_price         REAL,
			universe_fallback INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON scan_runs(started_at)`,

		`CREATE TABLE IF NOT EXISTS signals (
			scan_date       TEXT NOT NULL,
			ticker          TEXT NOT NULL,
			scan_time       TEXT,
			signal_strength INTEGER,
			rsi             REAL,
			price           REAL,
			sma_200         REAL,
			bb_position     REAL,
			bb_lower        REAL,
			bb_upper        REAL,
			atr_pct         REAL,
			vol_surge       REAL,
			support         REAL,
			distance_to_support_pct REAL,
			macd_histogram  REAL,
			PRIMARY KEY (scan_date, ticker)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_signals_ticker ON signals(ticker)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordRun appends the summary of a finished run.
func (r *SQLiteRecorder) RecordRun(sum *model.RunSummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO scan_runs
		(started_at, finished_at, analyzed, succeeded, errored, insufficient, signals,
		 avg_strength, avg_rsi, min_price, max_price, universe_fallback)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		sum.StartedAt.Unix(), sum.FinishedAt.Unix(),
		sum.Analyzed, sum.Succeeded, sum.Errored, sum.Insufficient, sum.Signals,
		sum.AvgStrength, sum.AvgRSI, sum.MinPrice, sum.MaxPrice, sum.UniverseFallback,
	)
	return err
}

// RecordSignals replaces the stored records of scanDate with records. A
// rerun on the same date, including one with no signals, leaves only its own
// rows for that date.
func (r *SQLiteRecorder) RecordSignals(scanDate string, records []model.SignalRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM signals WHERE scan_date = ?`, scanDate); err != nil {
		tx.Rollback()
		return fmt.Errorf("clear signals of %s: %w", scanDate, err)
	}
	if len(records) == 0 {
		return tx.Commit()
	}

	stmt, err := tx.Prepare(`INSERT INTO signals
		(scan_date, ticker, scan_time, signal_strength, rsi, price, sma_200,
		 bb_position, bb_lower, bb_upper, atr_pct, vol_surge, support,
		 distance_to_support_pct, macd_histogram)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, s := range records {
		if _, err := stmt.Exec(scanDate, s.Ticker, s.ScanTime, s.SignalStrength,
			s.RSI, s.Price, s.SMA200, s.BBPosition, s.BBLower, s.BBUpper,
			s.ATRPct, s.VolSurge, s.Support, s.DistanceToSupportPct, s.MACDHistogram); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert signal %s: %w", s.Ticker, err)
		}
	}
	return tx.Commit()
}

// LatestSignals returns the most recent scan date that has stored signals
// and its records. An empty date means nothing has been stored.
func (r *SQLiteRecorder) LatestSignals() (string, []model.SignalRecord, error) {
	var date sql.NullString
	if err := r.db.QueryRow(`SELECT MAX(scan_date) FROM signals`).Scan(&date); err != nil {
		return "", nil, err
	}
	if !date.Valid {
		return "", nil, nil
	}
	records, err := r.Signals(date.String)
	return date.String, records, err
}

// Signals returns the stored records of one scan date, strongest first.
func (r *SQLiteRecorder) Signals(scanDate string) ([]model.SignalRecord, error) {
	rows, err := r.db.Query(`SELECT scan_date, ticker, scan_time, signal_strength,
		rsi, price, sma_200, bb_position, bb_lower, bb_upper, atr_pct, vol_surge,
		support, distance_to_support_pct, macd_histogram
		FROM signals WHERE scan_date = ? ORDER BY signal_strength DESC, ticker`, scanDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.SignalRecord
	for rows.Next() {
		var s model.SignalRecord
		if err := rows.Scan(&s.ScanDate, &s.Ticker, &s.ScanTime, &s.SignalStrength,
			&s.RSI, &s.Price, &s.SMA200, &s.BBPosition, &s.BBLower, &s.BBUpper,
			&s.ATRPct, &s.VolSurge, &s.Support, &s.DistanceToSupportPct, &s.MACDHistogram); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// RunCount returns the number of recorded runs.
func (r *SQLiteRecorder) RunCount() (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM scan_runs`).Scan(&n)
	return n, err
}

func (r *SQLiteRecorder) Close() error {
	_ = level.Info(r.logger).Log("msg", "closing sqlite recorder")
	return r.db.Close()
}
