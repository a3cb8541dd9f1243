package recorder

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"SentimentWatch/internal/model"
)

// SQLiteRecorder persists historical data to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL so dashboards can read while cycles write.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logrus.WithField("path", dbPath).Info("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sentiment_records (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp       INTEGER NOT NULL,
			instrument      TEXT NOT NULL,
			buy_percentage  REAL,
			sell_percentage REAL,
			signal          TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sentiment_inst_ts ON sentiment_records(instrument, timestamp)`,

		`CREATE TABLE IF NOT EXISTS signal_changes (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			change_time INTEGER NOT NULL,
			instrument  TEXT NOT NULL,
			from_signal TEXT,
			to_signal   TEXT,
			from_buy    REAL,
			to_buy      REAL,
			importance  TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_changes_ts ON signal_changes(change_time)`,

		`CREATE TABLE IF NOT EXISTS fetch_runs (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id      TEXT NOT NULL,
			started_at  INTEGER NOT NULL,
			finished_at INTEGER NOT NULL,
			source      TEXT NOT NULL,
			status      TEXT NOT NULL,
			confidence  TEXT,
			records     INTEGER,
			note        TEXT,
			run_error   TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON fetch_runs(started_at)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordSentiment(records []model.CurrencyPairData) error {
	if len(records) == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	for _, rec := range records {
		if _, err := tx.Exec(`INSERT INTO sentiment_records
			(timestamp, instrument, buy_percentage, sell_percentage, signal)
			VALUES (?,?,?,?,?)`,
			rec.Timestamp.Unix(), rec.Instrument, rec.BuyPercentage, rec.SellPercentage, string(rec.Signal),
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert sentiment %s: %w", rec.Instrument, err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) RecordChanges(events []model.SignalChangeEvent) error {
	if len(events) == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	for _, ev := range events {
		if _, err := tx.Exec(`INSERT INTO signal_changes
			(change_time, instrument, from_signal, to_signal, from_buy, to_buy, importance)
			VALUES (?,?,?,?,?,?,?)`,
			ev.ChangeTime.Unix(), ev.Instrument, string(ev.FromSignal), string(ev.ToSignal),
			ev.FromBuyPercentage, ev.ToBuyPercentage, string(ev.Importance),
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert change %s: %w", ev.Instrument, err)
		}
	}
	return tx.Commit()
}

// RecordRun stores one row per source so degraded and failed sources stay
// visible next to successful ones.
func (r *SQLiteRecorder) RecordRun(report *RunReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	for _, src := range report.Sources {
		if _, err := tx.Exec(`INSERT INTO fetch_runs
			(run_id, started_at, finished_at, source, status, confidence, records, note, run_error)
			VALUES (?,?,?,?,?,?,?,?,?)`,
			report.RunID, report.StartedAt.Unix(), report.FinishedAt.Unix(),
			src.Source, src.Status, src.Confidence, src.Records, src.Note, report.Error,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert run %s/%s: %w", report.RunID, src.Source, err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) Close() error {
	logrus.Info("closing sqlite recorder")
	return r.db.Close()
}
