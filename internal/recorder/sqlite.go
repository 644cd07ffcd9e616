package recorder

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists mints and fills to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// WAL lets the dashboard read while the agent writes.
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
		`CREATE TABLE IF NOT EXISTS mints (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			strategy  TEXT NOT NULL,
			slot      INTEGER NOT NULL,
			balance   TEXT,
			threshold TEXT,
			amount    TEXT,
			mode      TEXT,
			tx_hash   TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_mints_ts ON mints(timestamp)`,

		`CREATE TABLE IF NOT EXISTS fills (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			agent     TEXT,
			symbol    TEXT NOT NULL,
			side      TEXT NOT NULL,
			qty       REAL,
			price     REAL,
			mode      TEXT,
			order_id  TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_fills_ts ON fills(timestamp)`,
	}
	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:32], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordMint(m Mint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := r.db.Exec(`INSERT INTO mints
		(timestamp, strategy, slot, balance, threshold, amount, mode, tx_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		unixOrNow(m.Time), m.Strategy, int64(m.Slot), m.Balance, m.Threshold, m.Amount, m.Mode, m.TxHash,
	)
	if err != nil {
		return fmt.Errorf("insert mint: %w", err)
	}
	return nil
}

func (r *SQLiteRecorder) RecordFill(f Fill) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := r.db.Exec(`INSERT INTO fills
		(timestamp, agent, symbol, side, qty, price, mode, order_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		unixOrNow(f.Time), f.Agent, f.Symbol, f.Side, f.Qty, f.Price, f.Mode, f.OrderID,
	)
	if err != nil {
		return fmt.Errorf("insert fill: %w", err)
	}
	return nil
}

// RecentMints returns up to limit mints, newest first.
func (r *SQLiteRecorder) RecentMints(limit int) ([]Mint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rows, err := r.db.Query(`SELECT timestamp, strategy, slot, balance, threshold, amount, mode, tx_hash
		FROM mints ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query mints: %w", err)
	}
	defer rows.Close()

	var out []Mint
	for rows.Next() {
		var (
			m    Mint
			ts   int64
			slot int64
		)
		if err := rows.Scan(&ts, &m.Strategy, &slot, &m.Balance, &m.Threshold, &m.Amount, &m.Mode, &m.TxHash); err != nil {
			return nil, fmt.Errorf("scan mint: %w", err)
		}
		m.Time = time.Unix(ts, 0).UTC()
		m.Slot = uint64(slot)
		out = append(out, m)
	}
	return out, rows.Err()
}

// FillCount returns the number of fills recorded for symbol.
func (r *SQLiteRecorder) FillCount(symbol string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM fills WHERE symbol = ?`, symbol).Scan(&n); err != nil {
		return 0, fmt.Errorf("count fills: %w", err)
	}
	return n, nil
}

func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}

func unixOrNow(t time.Time) int64 {
	if t.IsZero() {
		return time.Now().Unix()
	}
	return t.Unix()
}
