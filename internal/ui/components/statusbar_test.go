// Copyright (c) 2025 cli-gpt contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides UI components for the cli-gpt TUI.
package components

import (
	"strings"
	"testing"

	"github.com/aoyn1xw/cli-gpt/internal/ui/styles"
)

// =============================================================================
// STATUS TESTS
// =============================================================================

func TestStatusString(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusReady, "Ready"},
		{StatusThinking, "Thinking..."},
		{StatusStreaming, "Streaming..."},
		{StatusError, "Error"},
		{StatusIdle, "Idle"},
		{Status(99), "Unknown"},
	}

	for _, tc := range tests {
		if got := tc.status.String(); got != tc.want {
			t.Errorf("Status(%d).String() = %q, want %q", tc.status, got, tc.want)
		}
	}
}

func TestStatusIcon(t *testing.T) {
	statuses := []Status{StatusReady, StatusThinking, StatusStreaming, StatusError, StatusIdle}

	for _, s := range statuses {
		if s.Icon() == "" {
			t.Errorf("Status(%d).Icon() should not be empty", s)
		}
	}
}

// =============================================================================
// STATUS BAR TESTS
// =============================================================================

func TestNewStatusBar(t *testing.T) {
	bar := NewStatusBar(styles.NewTheme())

	if bar.Status != StatusReady {
		t.Errorf("NewStatusBar() status = %v, want StatusReady", bar.Status)
	}
	if bar.Width != 80 {
		t.Errorf("NewStatusBar() width = %d, want 80", bar.Width)
	}
	if !bar.ShowShortcuts {
		t.Error("NewStatusBar() should show shortcuts by default")
	}
}

func TestStatusBarSetters(t *testing.T) {
	bar := NewStatusBar(styles.NewTheme())

	bar.SetWidth(120)
	if bar.Width != 120 {
		t.Errorf("SetWidth() = %d, want 120", bar.Width)
	}

	bar.SetModel("Qwen3 235B")
	if bar.ModelName != "Qwen3 235B" {
		t.Errorf("SetModel() = %q, want %q", bar.ModelName, "Qwen3 235B")
	}

	bar.SetTokenUsage(2048, 4096)
	if bar.TokenCount != 2048 || bar.MaxTokens != 4096 {
		t.Errorf("SetTokenUsage() = %d/%d, want 2048/4096", bar.TokenCount, bar.MaxTokens)
	}

	bar.SetStatus(StatusStreaming)
	if bar.Status != StatusStreaming {
		t.Errorf("SetStatus() = %v, want StatusStreaming", bar.Status)
	}
}

func TestStatusBarViewLayouts(t *testing.T) {
	bar := NewStatusBar(styles.NewTheme())
	bar.SetModel("Qwen3 235B")
	bar.SetTokenUsage(1024, 131072)

	widths := []int{40, 80, 120}
	for _, w := range widths {
		bar.SetWidth(w)
		if view := bar.View(); view == "" {
			t.Errorf("View() at width %d should not be empty", w)
		}
	}
}

func TestStatusBarMediumShowsStatus(t *testing.T) {
	bar := NewStatusBar(styles.NewTheme())
	bar.SetWidth(80)
	bar.SetModel("Qwen3 235B")
	bar.SetStatus(StatusReady)

	view := bar.View()
	if !strings.Contains(view, "Ready") {
		t.Errorf("medium view should contain status text, got %q", view)
	}
	if !strings.Contains(view, "Ctx:") {
		t.Errorf("medium view should contain context label, got %q", view)
	}
}

func TestStatusBarWideShowsTokens(t *testing.T) {
	bar := NewStatusBar(styles.NewTheme())
	bar.SetWidth(140)
	bar.SetModel("Qwen3 235B")
	bar.SetTokenUsage(1234, 131072)

	view := bar.View()
	if !strings.Contains(view, "1,234") {
		t.Errorf("wide view should contain formatted token count, got %q", view)
	}
	if !strings.Contains(view, "131,072") {
		t.Errorf("wide view should contain formatted max tokens, got %q", view)
	}
}

// =============================================================================
// CONTEXT GAUGE TESTS
// =============================================================================

func TestRenderContextBar(t *testing.T) {
	bar := NewStatusBar(styles.NewTheme())

	tests := []struct {
		name   string
		used   int
		max    int
		filled int
	}{
		{"empty", 0, 4096, 0},
		{"half", 2048, 4096, 5},
		{"full", 4096, 4096, 10},
		{"over", 8192, 4096, 10},
		{"zero max", 100, 0, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			bar.SetTokenUsage(tc.used, tc.max)
			gauge := bar.renderContextBar()

			if got := strings.Count(gauge, "#"); got != tc.filled {
				t.Errorf("renderContextBar() filled = %d, want %d (gauge %q)", got, tc.filled, gauge)
			}
			if got := strings.Count(gauge, "-"); got != 10-tc.filled {
				t.Errorf("renderContextBar() empty = %d, want %d (gauge %q)", got, 10-tc.filled, gauge)
			}
		})
	}
}

func TestContextColorThresholds(t *testing.T) {
	bar := NewStatusBar(styles.NewTheme())

	tests := []struct {
		percent float64
		want    string
	}{
		{10, styles.Cyan.Dark},
		{55, styles.Emerald.Dark},
		{80, styles.Amber.Dark},
		{95, styles.Rose.Dark},
	}

	for _, tc := range tests {
		if got := bar.contextColor(tc.percent); got.Dark != tc.want {
			t.Errorf("contextColor(%v).Dark = %q, want %q", tc.percent, got.Dark, tc.want)
		}
	}
}
