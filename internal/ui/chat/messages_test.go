// Copyright (c) 2025 cli-gpt contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
package chat

import (
	"strings"
	"testing"
)

// =============================================================================
// ERROR MESSAGE TESTS
// =============================================================================

func TestNewErrorMsg(t *testing.T) {
	msg := NewErrorMsg("Title", "something broke")

	if msg.Title != "Title" {
		t.Errorf("Title = %q", msg.Title)
	}
	if msg.Message != "something broke" {
		t.Errorf("Message = %q", msg.Message)
	}
	if !msg.Dismissible {
		t.Error("Errors should be dismissible by default")
	}
	if msg.Suggestions != nil {
		t.Error("Plain constructor should not attach suggestions")
	}
}

func TestSmartErrorSuggestions(t *testing.T) {
	tests := []struct {
		name     string
		errMsg   string
		wantHint string
	}{
		{
			name:     "401 unauthorized",
			errMsg:   "API error 401: unauthorized",
			wantHint: "OPENROUTER_API_KEY",
		},
		{
			name:     "missing api key",
			errMsg:   "no API key configured",
			wantHint: "openrouter.ai/keys",
		},
		{
			name:     "402 credits",
			errMsg:   "402: insufficient credits for this request",
			wantHint: "/switch",
		},
		{
			name:     "rate limited",
			errMsg:   "429 too many requests",
			wantHint: "retry",
		},
		{
			name:     "rate limit wording",
			errMsg:   "rate limit exceeded, slow down",
			wantHint: "request budget",
		},
		{
			name:     "model gone",
			errMsg:   "API error 404: model not found",
			wantHint: "/list",
		},
		{
			name:     "timeout",
			errMsg:   "request timed out after 120s",
			wantHint: "--timeout",
		},
		{
			name:     "deadline",
			errMsg:   "context deadline exceeded",
			wantHint: "--timeout",
		},
		{
			name:     "connection refused",
			errMsg:   "dial tcp 104.18.2.115:443: connection refused",
			wantHint: "network",
		},
		{
			name:     "dns failure",
			errMsg:   "lookup openrouter.ai: no such host",
			wantHint: "network",
		},
		{
			name:     "context window",
			errMsg:   "prompt context length exceeded",
			wantHint: "/new",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := SmartErrorMsg("Request Failed", tt.errMsg)

			if len(msg.Suggestions) == 0 {
				t.Fatalf("No suggestions for %q", tt.errMsg)
			}

			found := false
			for _, s := range msg.Suggestions {
				if strings.Contains(strings.ToLower(s), strings.ToLower(tt.wantHint)) {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("Suggestions %v missing hint %q", msg.Suggestions, tt.wantHint)
			}
		})
	}
}

func TestSmartErrorNoMatchNoSuggestions(t *testing.T) {
	msg := SmartErrorMsg("Request Failed", "some inscrutable failure")

	if msg.Suggestions != nil {
		t.Errorf("Unrecognized error should have no suggestions, got %v", msg.Suggestions)
	}
	if !msg.Dismissible {
		t.Error("Smart errors should be dismissible")
	}
}

func TestStreamMessageConstructors(t *testing.T) {
	start := NewStreamStartMsg("msg_1")
	if start.MessageID != "msg_1" {
		t.Errorf("MessageID = %q", start.MessageID)
	}
	if start.StartTime.IsZero() {
		t.Error("StartTime should be stamped")
	}

	tok := NewStreamTokenMsg("msg_1", "hello", true)
	if tok.Token != "hello" || !tok.IsFirst {
		t.Error("Token constructor dropped fields")
	}

	done := NewStreamCompleteMsg("msg_1", nil)
	if done.MessageID != "msg_1" {
		t.Errorf("MessageID = %q", done.MessageID)
	}
	if done.Stats != nil {
		t.Error("Nil stats should stay nil")
	}
}
