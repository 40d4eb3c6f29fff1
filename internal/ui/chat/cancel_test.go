// Copyright (c) 2025 cli-gpt contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
package chat

import (
	"context"
	"testing"
)

func TestCancelManagerCancelsStream(t *testing.T) {
	mgr := &cancelManager{}
	ctx, cancel := context.WithCancel(context.Background())

	mgr.setCancelFunc(cancel)
	mgr.cancelStream()

	select {
	case <-ctx.Done():
	default:
		t.Error("cancelStream should cancel the stored context")
	}
}

func TestCancelManagerReplacesPrevious(t *testing.T) {
	mgr := &cancelManager{}

	first, firstCancel := context.WithCancel(context.Background())
	mgr.setCancelFunc(firstCancel)

	// Registering a new stream tears down the old one, so streams
	// can never stack.
	second, secondCancel := context.WithCancel(context.Background())
	mgr.setCancelFunc(secondCancel)

	select {
	case <-first.Done():
	default:
		t.Error("Replacing the cancel func should cancel the prior stream")
	}
	select {
	case <-second.Done():
		t.Error("New stream must not be cancelled by registration")
	default:
	}

	secondCancel()
}

func TestCancelManagerClearDoesNotCancel(t *testing.T) {
	mgr := &cancelManager{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mgr.setCancelFunc(cancel)
	mgr.clear()

	select {
	case <-ctx.Done():
		t.Error("clear must not cancel the context")
	default:
	}

	// After clear, cancelStream is a no-op
	mgr.cancelStream()
	select {
	case <-ctx.Done():
		t.Error("cancelStream after clear must be a no-op")
	default:
	}
}

func TestCancelManagerNilSafe(t *testing.T) {
	mgr := &cancelManager{}

	// No stored func: both operations are harmless
	mgr.cancelStream()
	mgr.clear()
}
