package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"FractalSentinel/internal/model"
)

// SQLiteRecorder persists signals, trades and backtest summaries to a
// SQLite database.
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

	// WAL mode for better concurrent read performance (dashboards read while
	// the bot writes).
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS signals (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			code        TEXT NOT NULL,
			name        TEXT,
			signal_date INTEGER NOT NULL,
			kind        TEXT NOT NULL,
			price       REAL,
			extreme     REAL,
			volume      REAL,
			score       REAL,
			reasons     TEXT,
			notified    INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_signals_code ON signals(code, signal_date)`,

		`CREATE TABLE IF NOT EXISTS trades (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			code        TEXT NOT NULL,
			entry_date  INTEGER NOT NULL,
			entry_price REAL,
			exit_date   INTEGER NOT NULL,
			exit_price  REAL,
			exit_reason TEXT,
			profit_pct  REAL,
			hold_days   INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_code ON trades(code, entry_date)`,

		`CREATE TABLE IF NOT EXISTS backtests (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp        INTEGER NOT NULL,
			code             TEXT NOT NULL,
			start_date       INTEGER NOT NULL,
			end_date         INTEGER NOT NULL,
			total_trades     INTEGER,
			win_rate         REAL,
			avg_profit_pct   REAL,
			total_profit_pct REAL,
			max_profit_pct   REAL,
			max_loss_pct     REAL,
			avg_hold_days    REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_backtests_code ON backtests(code, timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordSignal(evt *SignalEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	notified := 0
	if evt.Notified {
		notified = 1
	}
	_, err := r.db.Exec(`INSERT INTO signals
		(timestamp, code, name, signal_date, kind, price, extreme, volume, score, reasons, notified)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), evt.Code, evt.Name, evt.Event.Date.Unix(),
		string(evt.Event.Kind), evt.Event.Price, evt.Event.Extreme,
		evt.Event.Volume, evt.Event.Score, strings.Join(evt.Event.Reasons, ","),
		notified,
	)
	return err
}

func (r *SQLiteRecorder) RecordTrade(code string, trade model.TradeRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO trades
		(timestamp, code, entry_date, entry_price, exit_date, exit_price, exit_reason, profit_pct, hold_days)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), code, trade.EntryDate.Unix(), trade.EntryPrice,
		trade.ExitDate.Unix(), trade.ExitPrice, trade.ExitReason,
		trade.ProfitPct, trade.HoldDays,
	)
	return err
}

func (r *SQLiteRecorder) RecordBacktest(summary *BacktestSummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO backtests
		(timestamp, code, start_date, end_date, total_trades, win_rate,
		 avg_profit_pct, total_profit_pct, max_profit_pct, max_loss_pct, avg_hold_days)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), summary.Code, summary.Start.Unix(), summary.End.Unix(),
		summary.TotalTrades, summary.WinRate, summary.AvgProfitPct,
		summary.TotalProfitPct, summary.MaxProfitPct, summary.MaxLossPct,
		summary.AvgHoldDays,
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
