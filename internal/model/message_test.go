// Copyright (c) 2025 cli-gpt contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for sessions and messages.
package model

import (
	"strings"
	"testing"
	"time"
)

// =============================================================================
// ROLE TESTS
// =============================================================================

func TestRole_DisplayName(t *testing.T) {
	tests := []struct {
		role Role
		want string
	}{
		{RoleUser, "You"},
		{RoleAssistant, "Assistant"},
		{RoleSystem, "System"},
		{Role("other"), "other"},
	}

	for _, tc := range tests {
		if got := tc.role.DisplayName(); got != tc.want {
			t.Errorf("DisplayName(%q) = %q, want %q", tc.role, got, tc.want)
		}
	}
}

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestNewMessage(t *testing.T) {
	msg := NewUserMessage("hello")

	if !strings.HasPrefix(msg.ID, "msg_") {
		t.Errorf("Message ID = %q, want msg_ prefix", msg.ID)
	}
	if msg.Role != RoleUser {
		t.Errorf("Role = %q, want %q", msg.Role, RoleUser)
	}
	if msg.Content != "hello" {
		t.Errorf("Content = %q, want %q", msg.Content, "hello")
	}
	if msg.Timestamp.IsZero() {
		t.Error("Timestamp should be set")
	}
	if msg.IsStreaming {
		t.Error("User message should not be streaming")
	}
}

func TestNewMessage_UniqueIDs(t *testing.T) {
	a := NewUserMessage("a")
	b := NewUserMessage("b")
	if a.ID == b.ID {
		t.Errorf("Message IDs should be unique, both were %q", a.ID)
	}
}

func TestMessage_Streaming(t *testing.T) {
	msg := NewAssistantMessage()

	if !msg.IsStreaming {
		t.Fatal("New assistant message should be streaming")
	}
	if !msg.IsEmpty() {
		t.Error("New assistant message should be empty")
	}

	msg.AppendToken("Hello")
	msg.AppendToken(", world")

	if got := msg.GetDisplayContent(); got != "Hello, world" {
		t.Errorf("GetDisplayContent() = %q, want %q", got, "Hello, world")
	}
	if msg.Content != "" {
		t.Errorf("Content should stay empty until finalized, got %q", msg.Content)
	}

	stats := &Statistics{
		TTFT:             150 * time.Millisecond,
		TotalDuration:    2 * time.Second,
		CompletionTokens: 2,
		TokensPerSecond:  1.0,
	}
	msg.FinalizeStream(stats)

	if msg.IsStreaming {
		t.Error("Message should not be streaming after finalize")
	}
	if msg.Content != "Hello, world" {
		t.Errorf("Content = %q, want %q", msg.Content, "Hello, world")
	}
	if msg.TokenCount != 2 {
		t.Errorf("TokenCount = %d, want 2", msg.TokenCount)
	}

	// Tokens after finalize are ignored.
	msg.AppendToken("!!!")
	if msg.GetDisplayContent() != "Hello, world" {
		t.Error("AppendToken after finalize should be a no-op")
	}
}

func TestMessage_FinalizeIdempotent(t *testing.T) {
	msg := NewAssistantMessage()
	msg.AppendToken("once")
	msg.FinalizeStream(nil)
	msg.FinalizeStream(&Statistics{CompletionTokens: 99})

	if msg.Content != "once" {
		t.Errorf("Content = %q, want %q", msg.Content, "once")
	}
	if msg.TokenCount != 0 {
		t.Errorf("Second finalize should not apply stats, TokenCount = %d", msg.TokenCount)
	}
}

func TestMessage_Preview(t *testing.T) {
	msg := NewUserMessage("short")
	if got := msg.Preview(10); got != "short" {
		t.Errorf("Preview() = %q, want %q", got, "short")
	}

	long := NewUserMessage(strings.Repeat("a", 50))
	got := long.Preview(10)
	if len([]rune(got)) != 10 {
		t.Errorf("Preview() length = %d, want 10", len([]rune(got)))
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("Preview() = %q, want ... suffix", got)
	}
}

func TestMessage_EstimateTokens(t *testing.T) {
	tests := []struct {
		content string
		want    int
	}{
		{"", 0},
		{"a", 1},
		{"abcd", 1},
		{"abcde", 2},
		{strings.Repeat("x", 40), 10},
	}

	for _, tc := range tests {
		msg := NewUserMessage(tc.content)
		if got := msg.EstimateTokens(); got != tc.want {
			t.Errorf("EstimateTokens(%d chars) = %d, want %d", len(tc.content), got, tc.want)
		}
	}
}

func TestMessage_FormatStats(t *testing.T) {
	user := NewUserMessage("hi")
	if got := user.FormatStats(); got != "" {
		t.Errorf("FormatStats() for user message = %q, want empty", got)
	}

	msg := NewAssistantMessage()
	msg.AppendToken("answer")
	msg.FinalizeStream(&Statistics{
		TTFT:             234 * time.Millisecond,
		TotalDuration:    2500 * time.Millisecond,
		CompletionTokens: 128,
		TokensPerSecond:  51.2,
	})

	got := msg.FormatStats()
	for _, want := range []string{"2.5s", "128 tokens", "51.2 tok/s", "TTFT 234ms"} {
		if !strings.Contains(got, want) {
			t.Errorf("FormatStats() = %q, want to contain %q", got, want)
		}
	}
}

// =============================================================================
// STATISTICS TESTS
// =============================================================================

func TestStatistics_RecordFirstToken(t *testing.T) {
	stats := NewStatistics()
	if stats.StartTime.IsZero() {
		t.Fatal("StartTime should be set")
	}

	stats.RecordFirstToken()
	first := stats.FirstTokenTime
	if first.IsZero() {
		t.Fatal("FirstTokenTime should be set")
	}

	// Only the first call records.
	time.Sleep(time.Millisecond)
	stats.RecordFirstToken()
	if !stats.FirstTokenTime.Equal(first) {
		t.Error("RecordFirstToken should only record once")
	}
}

func TestStatistics_Finalize(t *testing.T) {
	stats := NewStatistics()
	stats.StartTime = time.Now().Add(-2 * time.Second)
	stats.Finalize(100)

	if stats.CompletionTokens != 100 {
		t.Errorf("CompletionTokens = %d, want 100", stats.CompletionTokens)
	}
	if stats.TotalDuration < time.Second {
		t.Errorf("TotalDuration = %v, want at least 1s", stats.TotalDuration)
	}
	if stats.TokensPerSecond <= 0 {
		t.Errorf("TokensPerSecond = %f, want positive", stats.TokensPerSecond)
	}
}

func TestStatistics_Format(t *testing.T) {
	stats := &Statistics{
		TTFT:             100 * time.Millisecond,
		TotalDuration:    500 * time.Millisecond,
		CompletionTokens: 10,
		TokensPerSecond:  20.0,
	}

	got := stats.Format()
	for _, want := range []string{"500ms", "10 tokens", "20.0 tok/s", "TTFT 100ms"} {
		if !strings.Contains(got, want) {
			t.Errorf("Format() = %q, want to contain %q", got, want)
		}
	}
}
