// Copyright (c) 2025 cli-gpt contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package stats

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrLedgerDisabled = errors.New("usage ledger disabled")
	ErrLedgerClosed   = errors.New("usage ledger closed")
)

// =============================================================================
// SCHEMA
// =============================================================================

// SchemaVersion tracks the ledger schema for future migrations.
const SchemaVersion = 1

// Schema holds usage rows only; no conversation text ever lands here.
const Schema = `
CREATE TABLE IF NOT EXISTS usage (
    id TEXT PRIMARY KEY,             -- uuid
    model TEXT NOT NULL,
    prompt_tokens INTEGER NOT NULL,
    completion_tokens INTEGER NOT NULL,
    duration_ms INTEGER NOT NULL,
    ttft_ms INTEGER NOT NULL,
    recorded_at INTEGER NOT NULL     -- Unix timestamp
);

CREATE INDEX IF NOT EXISTS idx_usage_model ON usage(model);
CREATE INDEX IF NOT EXISTS idx_usage_recorded_at ON usage(recorded_at);
`

// =============================================================================
// LEDGER
// =============================================================================

// Usage describes one completed request.
type Usage struct {
	Model            string
	PromptTokens     int
	CompletionTokens int
	Duration         time.Duration
	TTFT             time.Duration
	Timestamp        time.Time
}

// Totals aggregates the whole ledger.
type Totals struct {
	Requests         int
	PromptTokens     int64
	CompletionTokens int64
	TotalDuration    time.Duration
	AvgTTFT          time.Duration
}

// ModelTotals aggregates one model's rows.
type ModelTotals struct {
	Model            string
	Requests         int
	CompletionTokens int64
}

// Ledger is the usage database. A nil *Ledger is valid and inert, so
// callers need no enabled-or-not branching.
type Ledger struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens or creates the ledger database at path.
func Open(path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create ledger directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize ledger schema: %w", err)
	}

	return &Ledger{db: db}, nil
}

// Close closes the database. Safe on a nil ledger.
func (l *Ledger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.db == nil {
		return nil
	}
	err := l.db.Close()
	l.db = nil
	return err
}

// Record inserts one usage row. On a nil ledger it is a no-op.
func (l *Ledger) Record(ctx context.Context, u Usage) error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.db == nil {
		return ErrLedgerClosed
	}

	ts := u.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	_, err := l.db.ExecContext(ctx,
		`INSERT INTO usage (id, model, prompt_tokens, completion_tokens, duration_ms, ttft_ms, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(),
		u.Model,
		u.PromptTokens,
		u.CompletionTokens,
		u.Duration.Milliseconds(),
		u.TTFT.Milliseconds(),
		ts.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to record usage: %w", err)
	}
	return nil
}

// Totals returns whole-ledger aggregates. A nil ledger reports
// ErrLedgerDisabled so /stats can say tracking is off.
func (l *Ledger) Totals(ctx context.Context) (Totals, error) {
	if l == nil {
		return Totals{}, ErrLedgerDisabled
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.db == nil {
		return Totals{}, ErrLedgerClosed
	}

	row := l.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(prompt_tokens), 0),
		        COALESCE(SUM(completion_tokens), 0),
		        COALESCE(SUM(duration_ms), 0),
		        COALESCE(AVG(ttft_ms), 0)
		 FROM usage`)

	var t Totals
	var durationMs int64
	var avgTTFTMs float64
	if err := row.Scan(&t.Requests, &t.PromptTokens, &t.CompletionTokens, &durationMs, &avgTTFTMs); err != nil {
		return Totals{}, fmt.Errorf("failed to read usage totals: %w", err)
	}
	t.TotalDuration = time.Duration(durationMs) * time.Millisecond
	t.AvgTTFT = time.Duration(avgTTFTMs * float64(time.Millisecond))
	return t, nil
}

// ByModel returns per-model aggregates, most-used first.
func (l *Ledger) ByModel(ctx context.Context) ([]ModelTotals, error) {
	if l == nil {
		return nil, ErrLedgerDisabled
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.db == nil {
		return nil, ErrLedgerClosed
	}

	rows, err := l.db.QueryContext(ctx,
		`SELECT model, COUNT(*), COALESCE(SUM(completion_tokens), 0)
		 FROM usage
		 GROUP BY model
		 ORDER BY COUNT(*) DESC, model ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to read per-model usage: %w", err)
	}
	defer rows.Close()

	var out []ModelTotals
	for rows.Next() {
		var mt ModelTotals
		if err := rows.Scan(&mt.Model, &mt.Requests, &mt.CompletionTokens); err != nil {
			return nil, fmt.Errorf("failed to scan per-model usage: %w", err)
		}
		out = append(out, mt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read per-model usage: %w", err)
	}
	return out, nil
}
