// Package sqlite archives fetched price series to a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"stockchart/internal/model"

	_ "modernc.org/sqlite"
)

// PriceArchive persists price points to a SQLite database.
type PriceArchive struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (or creates) the database at dbPath and runs migrations.
func Open(dbPath string) (*PriceArchive, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL so readers do not block the archive writer.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	a := &PriceArchive{db: db}
	if err := a.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return a, nil
}

func (a *PriceArchive) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS price_points (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			symbol      TEXT    NOT NULL,
			resolution  TEXT    NOT NULL,
			timestamp   INTEGER NOT NULL,
			close       REAL    NOT NULL,
			period      TEXT,
			recorded_at INTEGER NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_price_symbol_res_ts
			ON price_points(symbol, resolution, timestamp)`,
	}

	for _, s := range stmts {
		if _, err := a.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordSeries archives points fetched for req in one transaction. Points
// already stored for the same symbol, resolution and time are skipped.
func (a *PriceArchive) RecordSeries(ctx context.Context, req model.SeriesRequest, points []model.PricePoint) error {
	if len(points) == 0 {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO price_points
		(symbol, resolution, timestamp, close, period, recorded_at)
		VALUES (?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for _, p := range points {
		if _, err := stmt.ExecContext(ctx,
			req.Symbol, req.Window.Resolution, p.Time.Unix(), p.Close, req.Window.Label, now,
		); err != nil {
			return fmt.Errorf("insert %s@%d: %w", req.Symbol, p.Time.Unix(), err)
		}
	}
	return tx.Commit()
}

// PruneBefore deletes archived points stamped before the cutoff and returns
// how many were removed.
func (a *PriceArchive) PruneBefore(ctx context.Context, before time.Time) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	res, err := a.db.ExecContext(ctx, `DELETE FROM price_points WHERE timestamp < ?`, before.Unix())
	if err != nil {
		return 0, fmt.Errorf("prune: %w", err)
	}
	return res.RowsAffected()
}

// Healthy reports whether the database file is still usable.
func (a *PriceArchive) Healthy(ctx context.Context) bool {
	return a.db.PingContext(ctx) == nil
}

func (a *PriceArchive) Close() error {
	return a.db.Close()
}
