// Copyright (c) 2025 cli-gpt contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// This file defines the typed message catalog for the chat interface.
// Every cross-goroutine event in the UI travels as one of these
// messages: the stream runner sends stream lifecycle messages from its
// goroutine, command handlers emit their results as messages, and the
// Update loop is the only code that acts on them.
package chat

import (
	"strings"
	"time"

	"github.com/aoyn1xw/cli-gpt/internal/catalog"
	"github.com/aoyn1xw/cli-gpt/internal/config"
	"github.com/aoyn1xw/cli-gpt/internal/model"
)

// =============================================================================
// STREAM LIFECYCLE MESSAGES
// =============================================================================

// StreamStartMsg signals that a completion stream has been opened.
type StreamStartMsg struct {
	MessageID string
	StartTime time.Time
}

// StreamTokenMsg delivers one content chunk from the stream.
type StreamTokenMsg struct {
	MessageID string
	Token     string
	IsFirst   bool
}

// StreamTickMsg is sent at 30fps during streaming to batch render
// buffered tokens. Without it every token would force a redraw, which
// flickers and burns CPU on fast models.
type StreamTickMsg struct {
	Time time.Time
}

// StreamCompleteMsg signals that the stream finished cleanly.
type StreamCompleteMsg struct {
	MessageID string
	Stats     *model.Statistics
}

// StreamErrorMsg signals that the stream terminated with an error.
// Partial content already delivered stays in the transcript.
type StreamErrorMsg struct {
	MessageID string
	Err       error
}

// NewStreamStartMsg creates a StreamStartMsg stamped with the current time.
func NewStreamStartMsg(messageID string) StreamStartMsg {
	return StreamStartMsg{
		MessageID: messageID,
		StartTime: time.Now(),
	}
}

// NewStreamTokenMsg creates a StreamTokenMsg for delivering streaming content.
func NewStreamTokenMsg(messageID, token string, isFirst bool) StreamTokenMsg {
	return StreamTokenMsg{
		MessageID: messageID,
		Token:     token,
		IsFirst:   isFirst,
	}
}

// NewStreamCompleteMsg creates a StreamCompleteMsg with final statistics.
func NewStreamCompleteMsg(messageID string, stats *model.Statistics) StreamCompleteMsg {
	return StreamCompleteMsg{
		MessageID: messageID,
		Stats:     stats,
	}
}

// NewStreamTickMsg creates a streaming tick message.
func NewStreamTickMsg() StreamTickMsg {
	return StreamTickMsg{Time: time.Now()}
}

// =============================================================================
// CATALOGUE MESSAGES
// =============================================================================

// CatalogResultMsg carries the outcome of a catalogue refresh. Err is
// non-nil when the remote fetch failed and Models is the bundled
// fallback list; the refresh itself never fails outright.
type CatalogResultMsg struct {
	Models []catalog.ModelDescriptor
	Source string
	Err    error
}

// =============================================================================
// CONFIG MESSAGES
// =============================================================================

// ConfigReloadedMsg is sent by the config file watcher when the file
// changes on disk. Display toggles apply live; the session's model is
// never switched mid-run.
type ConfigReloadedMsg struct {
	Config *config.Config
}

// =============================================================================
// ERROR MESSAGES
// =============================================================================

// ErrorMsg displays a blocking error to the user.
type ErrorMsg struct {
	Title       string
	Message     string
	Suggestions []string
	Dismissible bool
}

// ErrorDismissMsg dismisses the current error.
type ErrorDismissMsg struct{}

// NewErrorMsg creates a new dismissible error message.
func NewErrorMsg(title, message string) ErrorMsg {
	return ErrorMsg{
		Title:       title,
		Message:     message,
		Dismissible: true,
	}
}

// SmartErrorMsg creates an error message with suggestions detected
// from common failure patterns. Use this as the default error
// constructor so users get actionable guidance where we have any.
func SmartErrorMsg(title, message string) ErrorMsg {
	return ErrorMsg{
		Title:       title,
		Message:     message,
		Suggestions: detectErrorSuggestions(message),
		Dismissible: true,
	}
}

// detectErrorSuggestions analyzes an error message and returns
// relevant next steps. Patterns cover the OpenRouter error taxonomy
// plus generic transport failures.
func detectErrorSuggestions(errMsg string) []string {
	errLower := strings.ToLower(errMsg)

	// Authentication
	if strings.Contains(errLower, "401") ||
		strings.Contains(errLower, "unauthorized") ||
		strings.Contains(errLower, "authentication failed") ||
		strings.Contains(errLower, "api key") {
		return []string{
			"Set OPENROUTER_API_KEY in your environment",
			"Create a key at https://openrouter.ai/keys",
			"Pass a key directly with --api-key",
		}
	}

	// Credits exhausted
	if strings.Contains(errLower, "402") ||
		strings.Contains(errLower, "credits") ||
		strings.Contains(errLower, "payment") {
		return []string{
			"Switch to a free model: /list then /switch <name>",
			"Check your balance at https://openrouter.ai/credits",
		}
	}

	// Rate limit
	if strings.Contains(errLower, "rate limit") ||
		strings.Contains(errLower, "too many requests") ||
		strings.Contains(errLower, "429") {
		return []string{
			"Wait a moment and retry",
			"Free-tier models share a request budget; try a different one",
		}
	}

	// Model not found
	if strings.Contains(errLower, "model not found") ||
		strings.Contains(errLower, "404") {
		return []string{
			"List available models: /list",
			"Switch models: /switch <name>",
			"The free-tier catalogue changes; the model may have been removed",
		}
	}

	// Timeout
	if strings.Contains(errLower, "timeout") ||
		strings.Contains(errLower, "timed out") ||
		strings.Contains(errLower, "deadline exceeded") {
		return []string{
			"Try again",
			"Raise the request timeout with --timeout <seconds>",
			"Free models queue under load; a smaller model may respond faster",
		}
	}

	// Network/Connection errors
	if strings.Contains(errLower, "connection refused") ||
		strings.Contains(errLower, "dial tcp") ||
		strings.Contains(errLower, "no such host") {
		return []string{
			"Check your network connection",
			"Verify https://openrouter.ai is reachable",
		}
	}

	// Context exceeded
	if strings.Contains(errLower, "context") &&
		(strings.Contains(errLower, "exceeded") || strings.Contains(errLower, "too long")) {
		return []string{
			"Start a new conversation: /new",
			"Use shorter messages",
		}
	}

	// No suggestions found
	return nil
}
