// Copyright (c) 2025 cli-gpt contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// This file implements thread-safe cancellation for streaming
// completions. Esc, /quit, and process exit all route through the
// cancel manager so exactly one code path tears a stream down.
package chat

import (
	"context"
	"sync"
)

// =============================================================================
// CANCEL MANAGER
// =============================================================================

// cancelManager provides mutex-protected access to the in-flight
// stream's cancellation function. The Update loop stores the
// CancelFunc when a stream starts; any later event may cancel it
// without racing the stream goroutine.
//
// IMPORTANT: must be used as a pointer (*cancelManager) in Model
// structs because it contains a mutex that must not be copied during
// Bubble Tea updates.
type cancelManager struct {
	mu     sync.Mutex
	cancel context.CancelFunc
}

// setCancelFunc stores a new cancellation function, canceling any
// previously stored one first so streams can never stack.
func (cm *cancelManager) setCancelFunc(fn context.CancelFunc) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if cm.cancel != nil {
		cm.cancel()
	}
	cm.cancel = fn
}

// cancelStream cancels the active stream, if any, and clears the
// stored function. Safe to call when nothing is streaming.
func (cm *cancelManager) cancelStream() {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if cm.cancel != nil {
		cm.cancel()
		cm.cancel = nil
	}
}

// clear drops the stored function without invoking it. Called after a
// stream finishes on its own.
func (cm *cancelManager) clear() {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.cancel = nil
}

// =============================================================================
// MODEL CONVENIENCE METHODS
// =============================================================================

// setCancelFunc stores the cancel function for the current stream.
func (m *Model) setCancelFunc(fn context.CancelFunc) {
	m.cancelMgr.setCancelFunc(fn)
}

// cancel cancels the in-flight stream, if any.
func (m *Model) cancel() {
	m.cancelMgr.cancelStream()
}

// clearCancelFunc clears the stored cancel function without calling it.
func (m *Model) clearCancelFunc() {
	m.cancelMgr.clear()
}
