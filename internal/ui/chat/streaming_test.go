// Copyright (c) 2025 cli-gpt contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
package chat

import (
	"strings"
	"sync"
	"testing"
	"time"
)

// =============================================================================
// STREAMING BUFFER TESTS
// =============================================================================

func TestNewStreamingBuffer(t *testing.T) {
	sb := NewStreamingBuffer()

	if sb == nil {
		t.Fatal("NewStreamingBuffer returned nil")
	}

	batchSize, minFlush := sb.GetConfig()
	if batchSize != 15 {
		t.Errorf("Expected default batch size 15, got %d", batchSize)
	}
	expectedMinFlush := time.Duration(1000/30) * time.Millisecond
	if minFlush != expectedMinFlush {
		t.Errorf("Expected minFlush %v, got %v", expectedMinFlush, minFlush)
	}
}

func TestNewStreamingBufferWithConfigClamps(t *testing.T) {
	tests := []struct {
		name          string
		batchSize     int
		maxFPS        int
		wantBatchSize int
		wantMinFlush  time.Duration
	}{
		{"valid values", 5, 10, 5, 100 * time.Millisecond},
		{"zero batch size", 0, 30, 15, 33 * time.Millisecond},
		{"negative batch size", -1, 30, 15, 33 * time.Millisecond},
		{"zero fps", 10, 0, 10, 33 * time.Millisecond},
		{"excessive fps", 10, 120, 10, 33 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sb := NewStreamingBufferWithConfig(tt.batchSize, tt.maxFPS)
			batchSize, minFlush := sb.GetConfig()
			if batchSize != tt.wantBatchSize {
				t.Errorf("batch size = %d, want %d", batchSize, tt.wantBatchSize)
			}
			if minFlush != tt.wantMinFlush {
				t.Errorf("minFlush = %v, want %v", minFlush, tt.wantMinFlush)
			}
		})
	}
}

func TestStreamingBufferWrite(t *testing.T) {
	sb := NewStreamingBuffer()

	sb.Write("Hello")
	sb.Write(" ")
	sb.Write("World")

	if pending := sb.Pending(); pending != 3 {
		t.Errorf("Expected 3 pending tokens, got %d", pending)
	}
}

func TestStreamingBufferFlushBySize(t *testing.T) {
	sb := NewStreamingBufferWithConfig(3, 30)

	// Below threshold: nothing to flush yet
	sb.Write("A")
	sb.Write("B")

	if _, hasContent := sb.Flush(); hasContent {
		t.Error("Should not flush before reaching batch size")
	}

	// Third token crosses the threshold
	sb.Write("C")

	content, hasContent := sb.Flush()
	if !hasContent {
		t.Error("Should flush after reaching batch size")
	}
	if content != "ABC" {
		t.Errorf("Expected flushed content 'ABC', got '%s'", content)
	}

	if pending := sb.Pending(); pending != 0 {
		t.Errorf("Expected 0 pending tokens after flush, got %d", pending)
	}
}

func TestStreamingBufferFlushByTime(t *testing.T) {
	sb := NewStreamingBufferWithConfig(100, 30)

	sb.Write("A")

	if _, hasContent := sb.Flush(); hasContent {
		t.Error("Should not flush immediately")
	}

	// Wait past the 33ms flush interval
	time.Sleep(40 * time.Millisecond)

	content, hasContent := sb.Flush()
	if !hasContent {
		t.Error("Should flush after time threshold")
	}
	if content != "A" {
		t.Errorf("Expected flushed content 'A', got '%s'", content)
	}
}

func TestStreamingBufferEmptyFlush(t *testing.T) {
	sb := NewStreamingBuffer()

	if _, hasContent := sb.Flush(); hasContent {
		t.Error("Empty buffer should not flush")
	}
	if _, hasContent := sb.ForceFlush(); hasContent {
		t.Error("Empty buffer should not force-flush")
	}
}

func TestStreamingBufferForceFlush(t *testing.T) {
	sb := NewStreamingBuffer()

	sb.Write("Test")

	content, hasContent := sb.ForceFlush()
	if !hasContent {
		t.Error("ForceFlush should return content")
	}
	if content != "Test" {
		t.Errorf("Expected 'Test', got '%s'", content)
	}

	if pending := sb.Pending(); pending != 0 {
		t.Errorf("Expected 0 pending after ForceFlush, got %d", pending)
	}
}

func TestStreamingBufferReset(t *testing.T) {
	sb := NewStreamingBuffer()

	sb.Write("discard")
	sb.Write("me")
	sb.Reset()

	if pending := sb.Pending(); pending != 0 {
		t.Errorf("Expected 0 pending after Reset, got %d", pending)
	}
	if _, hasContent := sb.ForceFlush(); hasContent {
		t.Error("Reset buffer should have no content")
	}
}

func TestStreamingBufferShouldFlush(t *testing.T) {
	sb := NewStreamingBufferWithConfig(2, 30)

	if sb.ShouldFlush() {
		t.Error("Empty buffer should not report flush due")
	}

	sb.Write("A")
	sb.Write("B")

	if !sb.ShouldFlush() {
		t.Error("Buffer at batch size should report flush due")
	}
}

func TestStreamingBufferPreservesTokenOrder(t *testing.T) {
	sb := NewStreamingBufferWithConfig(1000, 30)

	tokens := []string{"The", " quick", " brown", " fox", " jumps"}
	for _, tok := range tokens {
		sb.Write(tok)
	}

	content, _ := sb.ForceFlush()
	if content != strings.Join(tokens, "") {
		t.Errorf("Token order not preserved: got %q", content)
	}
}

// Concurrent writes against flushes must not lose or duplicate
// content. The runner goroutine writes while the UI drains.
func TestStreamingBufferConcurrentAccess(t *testing.T) {
	sb := NewStreamingBufferWithConfig(5, 60)

	const writers = 4
	const tokensPerWriter = 100

	var wg sync.WaitGroup
	var collected strings.Builder
	done := make(chan struct{})
	drainerDone := make(chan struct{})

	// Drainer simulates the tick handler
	go func() {
		defer close(drainerDone)
		for {
			select {
			case <-done:
				return
			default:
				if content, ok := sb.Flush(); ok {
					collected.WriteString(content)
				}
				time.Sleep(time.Millisecond)
			}
		}
	}()

	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < tokensPerWriter; i++ {
				sb.Write("x")
			}
		}()
	}

	wg.Wait()
	close(done)
	<-drainerDone

	// Drain the remainder
	if content, ok := sb.ForceFlush(); ok {
		collected.WriteString(content)
	}

	if total := len(collected.String()); total != writers*tokensPerWriter {
		t.Errorf("Expected %d characters, got %d", writers*tokensPerWriter, total)
	}
}
