// Package store provides data persistence implementations.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"angel-options/internal/models"
)

// SQLiteStore journals refresh cycles to SQLite so mispricing flags and
// chain history survive restarts.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-backed cycle journal.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	-- One row per completed refresh cycle
	CREATE TABLE IF NOT EXISTS cycles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		underlying TEXT NOT NULL,
		expiry TEXT NOT NULL,
		spot REAL NOT NULL,
		generated_at DATETIME NOT NULL,
		failed_chunks INTEGER NOT NULL DEFAULT 0,
		flagged TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Priced rows for each cycle
	CREATE TABLE IF NOT EXISTS cycle_rows (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		cycle_id INTEGER NOT NULL,
		strike REAL NOT NULL,
		call_ltp REAL, call_fair REAL, call_delta REAL, call_iv REAL,
		put_ltp REAL, put_fair REAL, put_delta REAL, put_iv REAL,
		discounted INTEGER NOT NULL DEFAULT 0,
		FOREIGN KEY (cycle_id) REFERENCES cycles(id)
	);

	CREATE INDEX IF NOT EXISTS idx_cycles_underlying_time
		ON cycles(underlying, generated_at DESC);
	CREATE INDEX IF NOT EXISTS idx_cycle_rows_cycle
		ON cycle_rows(cycle_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveCycle records one completed refresh cycle.
func (s *SQLiteStore) SaveCycle(ctx context.Context, res *models.ChainResult) error {
	flagged, err := json.Marshal(res.Flagged)
	if err != nil {
		return fmt.Errorf("encoding flagged strikes: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO cycles (underlying, expiry, spot, generated_at, failed_chunks, flagged)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		res.Underlying, res.Expiry, res.Spot, res.GeneratedAt, res.FailedChunks, string(flagged))
	if err != nil {
		return fmt.Errorf("inserting cycle: %w", err)
	}
	cycleID, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading cycle id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO cycle_rows (cycle_id, strike,
		   call_ltp, call_fair, call_delta, call_iv,
		   put_ltp, put_fair, put_delta, put_iv, discounted)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing row insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range res.Strikes {
		var cLTP, cFair, cDelta, cIV sql.NullFloat64
		if row.Call != nil {
			cLTP = nf(row.Call.LTP)
			cFair = nf(row.Call.Fair)
			cDelta = nf(row.Call.Delta)
			cIV = nf(row.Call.IV)
		}
		var pLTP, pFair, pDelta, pIV sql.NullFloat64
		if row.Put != nil {
			pLTP = nf(row.Put.LTP)
			pFair = nf(row.Put.Fair)
			pDelta = nf(row.Put.Delta)
			pIV = nf(row.Put.IV)
		}
		if _, err := stmt.ExecContext(ctx, cycleID, row.Strike,
			cLTP, cFair, cDelta, cIV, pLTP, pFair, pDelta, pIV, row.Discounted); err != nil {
			return fmt.Errorf("inserting cycle row: %w", err)
		}
	}

	return tx.Commit()
}

// CycleSummary is one journaled cycle without its per-strike rows.
type CycleSummary struct {
	ID           int64
	Underlying   string
	Expiry       string
	Spot         float64
	GeneratedAt  time.Time
	FailedChunks int
	Flagged      []float64
}

// RecentCycles returns the most recent journaled cycles for an underlying,
// newest first.
func (s *SQLiteStore) RecentCycles(ctx context.Context, underlying string, limit int) ([]CycleSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, underlying, expiry, spot, generated_at, failed_chunks, flagged
		 FROM cycles WHERE underlying = ?
		 ORDER BY generated_at DESC LIMIT ?`, underlying, limit)
	if err != nil {
		return nil, fmt.Errorf("querying cycles: %w", err)
	}
	defer rows.Close()

	var out []CycleSummary
	for rows.Next() {
		var c CycleSummary
		var flagged sql.NullString
		if err := rows.Scan(&c.ID, &c.Underlying, &c.Expiry, &c.Spot, &c.GeneratedAt, &c.FailedChunks, &flagged); err != nil {
			return nil, fmt.Errorf("scanning cycle: %w", err)
		}
		if flagged.Valid && flagged.String != "" && flagged.String != "null" {
			if err := json.Unmarshal([]byte(flagged.String), &c.Flagged); err != nil {
				return nil, fmt.Errorf("decoding flagged strikes: %w", err)
			}
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CycleRows returns the priced strikes journaled for one cycle, ascending by
// strike.
func (s *SQLiteStore) CycleRows(ctx context.Context, cycleID int64) ([]models.PricedStrike, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT strike, call_ltp, call_fair, call_delta, call_iv,
		        put_ltp, put_fair, put_delta, put_iv, discounted
		 FROM cycle_rows WHERE cycle_id = ? ORDER BY strike ASC`, cycleID)
	if err != nil {
		return nil, fmt.Errorf("querying cycle rows: %w", err)
	}
	defer rows.Close()

	var out []models.PricedStrike
	for rows.Next() {
		var ps models.PricedStrike
		var cLTP, cFair, cDelta, cIV sql.NullFloat64
		var pLTP, pFair, pDelta, pIV sql.NullFloat64
		if err := rows.Scan(&ps.Strike, &cLTP, &cFair, &cDelta, &cIV,
			&pLTP, &pFair, &pDelta, &pIV, &ps.Discounted); err != nil {
			return nil, fmt.Errorf("scanning cycle row: %w", err)
		}
		if cLTP.Valid {
			ps.Call = &models.PricedLeg{LTP: cLTP.Float64, Fair: cFair.Float64, Delta: cDelta.Float64, IV: cIV.Float64}
		}
		if pLTP.Valid {
			ps.Put = &models.PricedLeg{LTP: pLTP.Float64, Fair: pFair.Float64, Delta: pDelta.Float64, IV: pIV.Float64}
		}
		out = append(out, ps)
	}
	return out, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func nf(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: true}
}
