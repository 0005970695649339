package paper

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"impulsebot-go/internal/candle"
	"impulsebot-go/internal/strategy"
)

// SQLiteRecorder persists decision events and closed trades to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the database and runs migrations.
func NewSQLiteRecorder(path string) (*SQLiteRecorder, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS events (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			kind        TEXT NOT NULL,
			position_id TEXT NOT NULL,
			price       REAL,
			avg_price   REAL,
			stage       INTEGER,
			multiplier  REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_ts ON events(timestamp)`,

		`CREATE TABLE IF NOT EXISTS trades (
			position_id TEXT PRIMARY KEY,
			entry_time  INTEGER NOT NULL,
			exit_time   INTEGER NOT NULL,
			entry_price REAL,
			avg_price   REAL,
			exit_price  REAL,
			stage       INTEGER,
			pnl         REAL,
			roi         REAL,
			reason      TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_exit ON trades(exit_time)`,
	}
	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Record inserts the event, and the closed trade for EXIT events.
func (r *SQLiteRecorder) Record(event strategy.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	pos := event.Position
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO events (timestamp, kind, position_id, price, avg_price, stage, multiplier) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		event.Time.UnixMilli(), string(event.Kind), pos.ID, event.Price, pos.AvgPrice, pos.Stage, event.Multiplier,
	); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}

	if event.Kind == candle.SignalExit && pos.Exit != nil {
		if _, err := tx.Exec(
			`INSERT OR REPLACE INTO trades (position_id, entry_time, exit_time, entry_price, avg_price, exit_price, stage, pnl, roi, reason)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			pos.ID, pos.EntryTime.UnixMilli(), pos.Exit.Time.UnixMilli(), pos.InitialEntryPrice, pos.AvgPrice,
			pos.Exit.Price, pos.Stage, pos.Exit.PnL, pos.Exit.ROI, string(pos.Exit.Reason),
		); err != nil {
			return fmt.Errorf("insert trade: %w", err)
		}
	}
	return tx.Commit()
}

// TradeSummary aggregates persisted trades, including those from earlier sessions.
type TradeSummary struct {
	Trades   int
	Wins     int
	TotalPnL float64
}

// Summary reads aggregate trade statistics from the database.
func (r *SQLiteRecorder) Summary() (TradeSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var s TradeSummary
	err := r.db.QueryRow(
		`SELECT COUNT(*), COALESCE(SUM(CASE WHEN pnl > 0 THEN 1 ELSE 0 END), 0), COALESCE(SUM(pnl), 0) FROM trades`,
	).Scan(&s.Trades, &s.Wins, &s.TotalPnL)
	if err != nil {
		return TradeSummary{}, fmt.Errorf("query trades: %w", err)
	}
	return s, nil
}

// Close closes the database.
func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}
