// Copyright (c) 2025 cli-gpt contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package stats

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// openTestLedger creates a ledger in a temp directory.
func openTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "usage.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func TestOpen_CreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "usage.db")
	l, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer l.Close()

	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		t.Errorf("Parent directory should exist: %v", err)
	}
}

func TestRecordAndTotals(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	usages := []Usage{
		{Model: "a:free", PromptTokens: 10, CompletionTokens: 100, Duration: 2 * time.Second, TTFT: 200 * time.Millisecond},
		{Model: "a:free", PromptTokens: 20, CompletionTokens: 200, Duration: 3 * time.Second, TTFT: 400 * time.Millisecond},
		{Model: "b:free", PromptTokens: 5, CompletionTokens: 50, Duration: time.Second, TTFT: 300 * time.Millisecond},
	}
	for _, u := range usages {
		if err := l.Record(ctx, u); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	totals, err := l.Totals(ctx)
	if err != nil {
		t.Fatalf("Totals() error = %v", err)
	}

	if totals.Requests != 3 {
		t.Errorf("Requests = %d, want 3", totals.Requests)
	}
	if totals.PromptTokens != 35 {
		t.Errorf("PromptTokens = %d, want 35", totals.PromptTokens)
	}
	if totals.CompletionTokens != 350 {
		t.Errorf("CompletionTokens = %d, want 350", totals.CompletionTokens)
	}
	if totals.TotalDuration != 6*time.Second {
		t.Errorf("TotalDuration = %v, want 6s", totals.TotalDuration)
	}
	if totals.AvgTTFT != 300*time.Millisecond {
		t.Errorf("AvgTTFT = %v, want 300ms", totals.AvgTTFT)
	}
}

func TestTotals_Empty(t *testing.T) {
	l := openTestLedger(t)

	totals, err := l.Totals(context.Background())
	if err != nil {
		t.Fatalf("Totals() error = %v", err)
	}
	if totals.Requests != 0 || totals.CompletionTokens != 0 {
		t.Errorf("Empty ledger totals = %+v, want zeros", totals)
	}
}

func TestByModel(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		l.Record(ctx, Usage{Model: "popular:free", CompletionTokens: 10})
	}
	l.Record(ctx, Usage{Model: "rare:free", CompletionTokens: 99})

	byModel, err := l.ByModel(ctx)
	if err != nil {
		t.Fatalf("ByModel() error = %v", err)
	}

	if len(byModel) != 2 {
		t.Fatalf("len(byModel) = %d, want 2", len(byModel))
	}
	if byModel[0].Model != "popular:free" || byModel[0].Requests != 3 {
		t.Errorf("byModel[0] = %+v, want popular:free with 3 requests", byModel[0])
	}
	if byModel[1].Model != "rare:free" || byModel[1].CompletionTokens != 99 {
		t.Errorf("byModel[1] = %+v, want rare:free with 99 tokens", byModel[1])
	}
}

func TestRecord_DefaultsTimestamp(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	before := time.Now().Unix()
	if err := l.Record(ctx, Usage{Model: "a:free"}); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	var recorded int64
	row := l.db.QueryRow("SELECT recorded_at FROM usage")
	if err := row.Scan(&recorded); err != nil {
		t.Fatalf("Scan error = %v", err)
	}
	if recorded < before || recorded > time.Now().Unix() {
		t.Errorf("recorded_at = %d, want roughly now", recorded)
	}
}

// =============================================================================
// DEGRADED MODE TESTS
// =============================================================================

func TestNilLedger(t *testing.T) {
	var l *Ledger

	if err := l.Record(context.Background(), Usage{Model: "a"}); err != nil {
		t.Errorf("nil Record() error = %v, want nil", err)
	}
	if err := l.Close(); err != nil {
		t.Errorf("nil Close() error = %v, want nil", err)
	}
	if _, err := l.Totals(context.Background()); !errors.Is(err, ErrLedgerDisabled) {
		t.Errorf("nil Totals() error = %v, want ErrLedgerDisabled", err)
	}
	if _, err := l.ByModel(context.Background()); !errors.Is(err, ErrLedgerDisabled) {
		t.Errorf("nil ByModel() error = %v, want ErrLedgerDisabled", err)
	}
}

func TestClosedLedger(t *testing.T) {
	l := openTestLedger(t)
	if err := l.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if err := l.Record(context.Background(), Usage{Model: "a"}); !errors.Is(err, ErrLedgerClosed) {
		t.Errorf("Record() after close error = %v, want ErrLedgerClosed", err)
	}
	if _, err := l.Totals(context.Background()); !errors.Is(err, ErrLedgerClosed) {
		t.Errorf("Totals() after close error = %v, want ErrLedgerClosed", err)
	}

	// Double close is fine.
	if err := l.Close(); err != nil {
		t.Errorf("Second Close() error = %v, want nil", err)
	}
}
