// Copyright (c) 2025 cli-gpt contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for sessions and messages.
package model

import (
	"time"

	"github.com/aoyn1xw/cli-gpt/internal/openrouter"
)

// SystemPrompt is the instruction pinned at the start of every
// session, verbatim.
const SystemPrompt = "you are a General purpose AI assistant. Answer as concisely as possible. BUT DO MAKE UP FALSE FACTS IF YOU DONT KNOW THE ANSWER SAY YOU DONT KNOW IT"

// MaxMessages is the maximum number of non-system messages to keep in
// the session history. When exceeded, old messages are pruned to
// prevent unbounded memory growth.
const MaxMessages = 1000

// defaultContextWindow is assumed when the selected model reports no
// context length.
const defaultContextWindow = 128000

// =============================================================================
// SESSION TYPE
// =============================================================================

// Session holds one chat run: the pinned system prompt, the ordered
// message history, and the selected model. The system prompt is always
// Messages[0] and survives Clear. A session lives and dies with the
// process.
type Session struct {
	// Identity
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Messages, system prompt first
	Messages []*Message `json:"messages"`

	// Model configuration
	Model   string        `json:"model"`
	Timeout time.Duration `json:"-"`

	// Context tracking
	TokensUsed     int     `json:"tokens_used"`
	MaxTokens      int     `json:"max_tokens"`
	ContextPercent float64 `json:"-"` // Computed, not persisted
}

// NewSession creates a session for the given model with the system
// prompt pinned at index zero.
func NewSession(modelID string) *Session {
	return &Session{
		ID:        generateID("sess"),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
		Messages:  []*Message{NewSystemMessage(SystemPrompt)},
		Model:     modelID,
		MaxTokens: defaultContextWindow,
	}
}

// SetModel records a model switch. History is unaffected.
func (s *Session) SetModel(modelID string) {
	s.Model = modelID
	s.UpdatedAt = time.Now()
}

// =============================================================================
// MESSAGE MANAGEMENT
// =============================================================================

// AddMessage appends a message to the session.
func (s *Session) AddMessage(msg *Message) {
	s.Messages = append(s.Messages, msg)
	s.UpdatedAt = time.Now()
	s.updateTokenEstimate()
	s.pruneOldMessages()
}

// AddUserMessage creates and appends a user message.
func (s *Session) AddUserMessage(content string) *Message {
	msg := NewUserMessage(content)
	s.AddMessage(msg)
	return msg
}

// AddAssistantMessage creates and appends a streaming assistant
// message.
func (s *Session) AddAssistantMessage() *Message {
	msg := NewAssistantMessage()
	s.AddMessage(msg)
	return msg
}

// GetLastMessage returns the most recent message, or nil if only the
// system prompt is present.
func (s *Session) GetLastMessage() *Message {
	if len(s.Messages) <= 1 {
		return nil
	}
	return s.Messages[len(s.Messages)-1]
}

// GetLastAssistantMessage returns the most recent assistant message.
func (s *Session) GetLastAssistantMessage() *Message {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleAssistant {
			return s.Messages[i]
		}
	}
	return nil
}

// GetLastUserMessage returns the most recent user message.
func (s *Session) GetLastUserMessage() *Message {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleUser {
			return s.Messages[i]
		}
	}
	return nil
}

// AppendToLast appends a token to the last (streaming) message.
func (s *Session) AppendToLast(token string) {
	last := s.GetLastMessage()
	if last != nil && last.IsStreaming {
		last.AppendToken(token)
	}
}

// FinalizeLast finalizes the last streaming message with statistics.
func (s *Session) FinalizeLast(stats *Statistics) {
	last := s.GetLastMessage()
	if last != nil && last.IsStreaming {
		last.FinalizeStream(stats)
		s.updateTokenEstimate()
	}
}

// Clear removes all messages except the pinned system prompt.
func (s *Session) Clear() {
	s.Messages = []*Message{NewSystemMessage(SystemPrompt)}
	s.UpdatedAt = time.Now()
	s.updateTokenEstimate()
}

// History returns the message history, system prompt included.
func (s *Session) History() []*Message {
	return s.Messages
}

// GetMessageByID returns a message by its ID.
func (s *Session) GetMessageByID(id string) *Message {
	for _, msg := range s.Messages {
		if msg.ID == id {
			return msg
		}
	}
	return nil
}

// MessageCount returns the number of messages excluding the system
// prompt.
func (s *Session) MessageCount() int {
	return len(s.Messages) - 1
}

// IsEmpty returns true if no messages beyond the system prompt exist.
func (s *Session) IsEmpty() bool {
	return len(s.Messages) <= 1
}

// =============================================================================
// REQUEST CONVERSION
// =============================================================================

// ToChatMessages converts the session history to the wire format.
// Messages with no content yet, such as a streaming placeholder, are
// skipped.
func (s *Session) ToChatMessages() []openrouter.ChatMessage {
	messages := make([]openrouter.ChatMessage, 0, len(s.Messages))
	for _, msg := range s.Messages {
		content := msg.GetDisplayContent()
		if content == "" {
			continue
		}
		messages = append(messages, openrouter.ChatMessage{
			Role:    msg.Role.String(),
			Content: content,
		})
	}
	return messages
}

// =============================================================================
// TOKEN TRACKING
// =============================================================================

// EstimateTokens estimates the total token count of the session.
func (s *Session) EstimateTokens() int {
	total := 0
	for _, msg := range s.Messages {
		total += msg.EstimateTokens()
		// Overhead for message structure (~4 tokens per message)
		total += 4
	}
	return total
}

// updateTokenEstimate updates the token usage and context percentage.
func (s *Session) updateTokenEstimate() {
	s.TokensUsed = s.EstimateTokens()
	if s.MaxTokens > 0 {
		s.ContextPercent = float64(s.TokensUsed) / float64(s.MaxTokens) * 100
	}
}

// GetContextPercent returns the percentage of context window used.
func (s *Session) GetContextPercent() float64 {
	return s.ContextPercent
}

// IsContextNearLimit returns true if context usage is above 75%.
func (s *Session) IsContextNearLimit() bool {
	return s.ContextPercent >= 75
}

// IsContextCritical returns true if context usage is above 90%.
func (s *Session) IsContextCritical() bool {
	return s.ContextPercent >= 90
}

// SetMaxTokens updates the maximum context window. Zero restores the
// default.
func (s *Session) SetMaxTokens(max int) {
	if max <= 0 {
		max = defaultContextWindow
	}
	s.MaxTokens = max
	s.updateTokenEstimate()
}

// =============================================================================
// PRUNING
// =============================================================================

// pruneOldMessages drops the oldest non-system messages once the
// history exceeds MaxMessages. The system prompt at index zero is
// never dropped.
func (s *Session) pruneOldMessages() {
	if len(s.Messages) <= MaxMessages+1 {
		return
	}

	system := s.Messages[0]
	rest := s.Messages[1:]
	rest = rest[len(rest)-MaxMessages:]

	s.Messages = make([]*Message, 0, len(rest)+1)
	s.Messages = append(s.Messages, system)
	s.Messages = append(s.Messages, rest...)
}
