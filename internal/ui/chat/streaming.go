// Copyright (c) 2025 cli-gpt contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// This file implements the streaming buffer that batches SSE tokens
// for rendering. Fast models deliver hundreds of chunks per second;
// rendering each one individually starves the Update loop. The buffer
// accumulates tokens from the stream goroutine and the tick handler
// drains it at a capped frame rate.
package chat

import (
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// STREAMING BUFFER
// =============================================================================

// StreamingBuffer batches incoming tokens to reduce render frequency.
// Write is called from the stream runner goroutine; Flush and friends
// run on the Update goroutine, so every method takes the mutex.
type StreamingBuffer struct {
	mu         sync.Mutex
	pending    strings.Builder
	tokenCount int
	lastFlush  time.Time

	// batchSize is how many tokens to accumulate before a flush is due.
	batchSize int

	// minFlushMs caps the flush rate regardless of token volume.
	minFlushMs int64
}

const (
	// streamBatchSize accumulates this many tokens before flushing.
	streamBatchSize = 15

	// streamMaxFPS caps render frequency during streaming.
	streamMaxFPS = 30
)

// NewStreamingBuffer creates a buffer with the default thresholds.
func NewStreamingBuffer() *StreamingBuffer {
	return NewStreamingBufferWithConfig(streamBatchSize, streamMaxFPS)
}

// NewStreamingBufferWithConfig creates a buffer with custom
// thresholds. Out-of-range values fall back to the defaults.
func NewStreamingBufferWithConfig(batchSize, maxFPS int) *StreamingBuffer {
	if batchSize <= 0 {
		batchSize = streamBatchSize
	}
	if maxFPS <= 0 || maxFPS > 60 {
		maxFPS = streamMaxFPS
	}

	return &StreamingBuffer{
		batchSize:  batchSize,
		minFlushMs: int64(1000 / maxFPS),
		lastFlush:  time.Now(),
	}
}

// GetConfig returns the flush thresholds.
func (b *StreamingBuffer) GetConfig() (batchSize int, minFlush time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.batchSize, time.Duration(b.minFlushMs) * time.Millisecond
}

// Write adds a token to the buffer. Called from the stream goroutine.
func (b *StreamingBuffer) Write(token string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending.WriteString(token)
	b.tokenCount++
}

// ShouldFlush reports whether enough tokens or time have accumulated.
func (b *StreamingBuffer) ShouldFlush() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.shouldFlushLocked()
}

func (b *StreamingBuffer) shouldFlushLocked() bool {
	if b.tokenCount == 0 {
		return false
	}
	if b.tokenCount >= b.batchSize {
		return true
	}
	return time.Since(b.lastFlush).Milliseconds() >= b.minFlushMs
}

// Flush returns the buffered content if a flush is due and resets the
// buffer. The boolean reports whether content was returned.
func (b *StreamingBuffer) Flush() (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.shouldFlushLocked() {
		return "", false
	}
	return b.drainLocked()
}

// ForceFlush returns all buffered content regardless of thresholds.
// Used on stream completion so no trailing tokens are lost.
func (b *StreamingBuffer) ForceFlush() (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.tokenCount == 0 {
		return "", false
	}
	return b.drainLocked()
}

func (b *StreamingBuffer) drainLocked() (string, bool) {
	content := b.pending.String()
	b.pending.Reset()
	b.tokenCount = 0
	b.lastFlush = time.Now()
	return content, content != ""
}

// Reset discards any buffered content. Called when a new stream starts.
func (b *StreamingBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending.Reset()
	b.tokenCount = 0
	b.lastFlush = time.Now()
}

// Pending returns the number of buffered tokens.
func (b *StreamingBuffer) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tokenCount
}

// =============================================================================
// TICK COMMAND
// =============================================================================

// streamTickCmd schedules the next streaming render tick. The 33ms
// interval matches the buffer's 30fps flush cap.
func streamTickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*33, func(t time.Time) tea.Msg {
		return StreamTickMsg{Time: t}
	})
}
