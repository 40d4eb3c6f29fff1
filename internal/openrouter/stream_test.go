// Copyright (c) 2025 cli-gpt contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package openrouter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// writeSSE writes one SSE data event and flushes it to the client.
func writeSSE(t *testing.T, w http.ResponseWriter, data string) {
	t.Helper()
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return
	}
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

// contentChunk builds the wire JSON for a single content delta.
func contentChunk(content string) string {
	return fmt.Sprintf(`{"id":"gen-1","model":"test-model","choices":[{"delta":{"content":%q},"finish_reason":""}]}`, content)
}

const finishChunk = `{"id":"gen-1","model":"test-model","choices":[{"delta":{},"finish_reason":"stop"}]}`

// =============================================================================
// SSE READER TESTS
// =============================================================================

// TestSSEReader_ReadEvent verifies SSE parsing across field layouts.
func TestSSEReader_ReadEvent(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantType  string
		wantData  string
	}{
		{
			name:     "simple data",
			input:    "data: hello\n\n",
			wantData: "hello",
		},
		{
			name:     "data without space",
			input:    "data:hello\n\n",
			wantData: "hello",
		},
		{
			name:     "multi-line data",
			input:    "data: line1\ndata: line2\n\n",
			wantData: "line1\nline2",
		},
		{
			name:     "event type",
			input:    "event: message\ndata: payload\n\n",
			wantType: "message",
			wantData: "payload",
		},
		{
			name:     "crlf line endings",
			input:    "data: hello\r\n\r\n",
			wantData: "hello",
		},
		{
			name:     "ignored fields",
			input:    "id: 42\nretry: 1000\n: comment\ndata: hello\n\n",
			wantData: "hello",
		},
		{
			name:     "data flushed at EOF",
			input:    "data: tail",
			wantData: "tail",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			reader := NewSSEReader(strings.NewReader(tc.input))
			eventType, data, err := reader.ReadEvent()
			if err != nil {
				t.Fatalf("ReadEvent failed: %v", err)
			}
			if eventType != tc.wantType {
				t.Errorf("event type = %q, expected %q", eventType, tc.wantType)
			}
			if string(data) != tc.wantData {
				t.Errorf("data = %q, expected %q", string(data), tc.wantData)
			}
		})
	}
}

// TestSSEReader_EOF verifies a clean end of stream.
func TestSSEReader_EOF(t *testing.T) {
	reader := NewSSEReader(strings.NewReader(""))
	if _, _, err := reader.ReadEvent(); err != io.EOF {
		t.Errorf("Expected io.EOF, got %v", err)
	}
}

// TestSSEReader_MultipleEvents verifies sequential event reads.
func TestSSEReader_MultipleEvents(t *testing.T) {
	reader := NewSSEReader(strings.NewReader("data: one\n\ndata: two\n\n"))

	_, first, err := reader.ReadEvent()
	if err != nil || string(first) != "one" {
		t.Fatalf("First event = %q, %v", string(first), err)
	}

	_, second, err := reader.ReadEvent()
	if err != nil || string(second) != "two" {
		t.Fatalf("Second event = %q, %v", string(second), err)
	}

	if _, _, err := reader.ReadEvent(); err != io.EOF {
		t.Errorf("Expected io.EOF after events, got %v", err)
	}
}

// =============================================================================
// STREAM CHUNK TESTS
// =============================================================================

// TestStreamChunk_Accessors verifies accessor behavior on populated
// and empty chunks.
func TestStreamChunk_Accessors(t *testing.T) {
	empty := &StreamChunk{}
	if empty.GetContent() != "" || empty.GetRole() != "" || empty.IsDone() || empty.GetFinishReason() != "" {
		t.Error("Empty chunk accessors should return zero values")
	}
	if empty.HasError() {
		t.Error("Empty chunk should not report an error")
	}

	withErr := &StreamChunk{Error: errors.New("boom")}
	if !withErr.HasError() {
		t.Error("Chunk with error should report HasError")
	}
}

// TestStreamError verifies formatting and unwrapping.
func TestStreamError(t *testing.T) {
	base := errors.New("connection reset")

	withPartial := &StreamError{Partial: "some text", Err: base}
	if !strings.Contains(withPartial.Error(), "partial content received: 9 chars") {
		t.Errorf("Error() = %q", withPartial.Error())
	}
	if !errors.Is(withPartial, base) {
		t.Error("StreamError should unwrap to the underlying error")
	}

	noPartial := &StreamError{Err: base}
	if noPartial.Error() != "stream error: connection reset" {
		t.Errorf("Error() = %q", noPartial.Error())
	}
}

// =============================================================================
// STREAMING CHAT TESTS
// =============================================================================

// TestChatStream_Success verifies token delivery order and stream
// termination on [DONE].
func TestChatStream_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if accept := r.Header.Get("Accept"); accept != "text/event-stream" {
			t.Errorf("Accept header = %q, expected text/event-stream", accept)
		}
		w.Header().Set("Content-Type", "text/event-stream")

		writeSSE(t, w, contentChunk("Hello"))
		writeSSE(t, w, contentChunk(", "))
		writeSSE(t, w, contentChunk("world"))
		writeSSE(t, w, finishChunk)
		writeSSE(t, w, "[DONE]")
	}))
	defer server.Close()

	client := NewClient(testAPIKey).WithChatURL(server.URL)

	var tokens []string
	var finished bool
	err := client.ChatStream(context.Background(), []ChatMessage{NewUserMessage("hi")}, func(chunk StreamChunk) {
		if content := chunk.GetContent(); content != "" {
			tokens = append(tokens, content)
		}
		if chunk.IsDone() {
			finished = true
		}
	})
	if err != nil {
		t.Fatalf("ChatStream failed: %v", err)
	}

	if got := strings.Join(tokens, ""); got != "Hello, world" {
		t.Errorf("Accumulated content = %q, expected 'Hello, world'", got)
	}
	if !finished {
		t.Error("Expected a finish chunk before [DONE]")
	}
}

// TestChatStream_MissingKey verifies the sentinel for an unconfigured
// client.
func TestChatStream_MissingKey(t *testing.T) {
	client := NewClient("")
	err := client.ChatStream(context.Background(), []ChatMessage{NewUserMessage("hi")}, func(StreamChunk) {})
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("Expected ErrMissingAPIKey, got %v", err)
	}
}

// TestChatStream_ErrorStatus verifies non-200 responses map to
// sentinel errors before any streaming starts.
func TestChatStream_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": {"message": "Invalid key"}}`))
	}))
	defer server.Close()

	client := NewClient(testAPIKey).WithChatURL(server.URL)

	err := client.ChatStream(context.Background(), []ChatMessage{NewUserMessage("hi")}, func(StreamChunk) {})
	if !errors.Is(err, ErrAuthFailed) {
		t.Errorf("Expected ErrAuthFailed, got %v", err)
	}
}

// TestChatStream_TimeoutPreservesPartial verifies a stream cut off by
// the request timeout reports the partial content received so far.
func TestChatStream_TimeoutPreservesPartial(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		writeSSE(t, w, contentChunk("partial "))
		writeSSE(t, w, contentChunk("answer"))
		// Stall until the client gives up.
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer server.Close()

	client := NewClient(testAPIKey).
		WithChatURL(server.URL).
		WithTimeout(300 * time.Millisecond)

	err := client.ChatStream(context.Background(), []ChatMessage{NewUserMessage("hi")}, func(StreamChunk) {})
	if err == nil {
		t.Fatal("Expected timeout error")
	}

	var streamErr *StreamError
	if !errors.As(err, &streamErr) {
		t.Fatalf("Expected *StreamError, got %T: %v", err, err)
	}
	if streamErr.Partial != "partial answer" {
		t.Errorf("Partial = %q, expected 'partial answer'", streamErr.Partial)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected context.DeadlineExceeded inside, got %v", streamErr.Err)
	}
}

// TestChatStream_CancelReturnsCanceled verifies user cancellation is
// reported as context.Canceled, not wrapped as a stream failure. The
// caller already holds the tokens it received.
func TestChatStream_CancelReturnsCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		writeSSE(t, w, contentChunk("first"))
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer server.Close()

	client := NewClient(testAPIKey).WithChatURL(server.URL)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err := client.ChatStream(ctx, []ChatMessage{NewUserMessage("hi")}, func(chunk StreamChunk) {
		if chunk.GetContent() != "" {
			cancel()
		}
	})

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	var streamErr *StreamError
	if errors.As(err, &streamErr) {
		t.Error("Cancellation should not be wrapped in StreamError")
	}
}

// TestChatStreamAccumulate verifies full-text accumulation.
func TestChatStreamAccumulate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		writeSSE(t, w, contentChunk("alpha "))
		writeSSE(t, w, contentChunk("beta"))
		writeSSE(t, w, "[DONE]")
	}))
	defer server.Close()

	client := NewClient(testAPIKey).WithChatURL(server.URL)

	content, err := client.ChatStreamAccumulate(context.Background(), []ChatMessage{NewUserMessage("hi")})
	if err != nil {
		t.Fatalf("ChatStreamAccumulate failed: %v", err)
	}
	if content != "alpha beta" {
		t.Errorf("Content = %q, expected 'alpha beta'", content)
	}
}

// TestChatStreamWithStats verifies token counting and timing capture.
func TestChatStreamWithStats(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		writeSSE(t, w, contentChunk("a"))
		writeSSE(t, w, contentChunk("b"))
		writeSSE(t, w, contentChunk("c"))
		writeSSE(t, w, "[DONE]")
	}))
	defer server.Close()

	client := NewClient(testAPIKey).WithChatURL(server.URL)

	stats, err := client.ChatStreamWithStats(context.Background(), []ChatMessage{NewUserMessage("hi")}, func(StreamChunk) {})
	if err != nil {
		t.Fatalf("ChatStreamWithStats failed: %v", err)
	}

	if stats.TokenCount != 3 {
		t.Errorf("TokenCount = %d, expected 3", stats.TokenCount)
	}
	if stats.Model != "test-model" {
		t.Errorf("Model = %q, expected 'test-model'", stats.Model)
	}
	if stats.FirstTokenTime <= 0 {
		t.Errorf("FirstTokenTime = %v, expected > 0", stats.FirstTokenTime)
	}
	if stats.TotalTime < stats.FirstTokenTime {
		t.Errorf("TotalTime %v should be >= FirstTokenTime %v", stats.TotalTime, stats.FirstTokenTime)
	}
}

// =============================================================================
// CHANNEL-BASED STREAMING TESTS
// =============================================================================

// TestChatStreamChan verifies chunk delivery and channel closure.
func TestChatStreamChan(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		writeSSE(t, w, contentChunk("one"))
		writeSSE(t, w, contentChunk("two"))
		writeSSE(t, w, "[DONE]")
	}))
	defer server.Close()

	client := NewClient(testAPIKey).WithChatURL(server.URL)

	chunks, errc := client.ChatStreamChan(context.Background(), []ChatMessage{NewUserMessage("hi")})

	var tokens []string
	for chunk := range chunks {
		if content := chunk.GetContent(); content != "" {
			tokens = append(tokens, content)
		}
	}

	if err := <-errc; err != nil {
		t.Fatalf("Unexpected stream error: %v", err)
	}

	if got := strings.Join(tokens, ""); got != "onetwo" {
		t.Errorf("Accumulated content = %q, expected 'onetwo'", got)
	}
}

// TestChatStreamChan_Error verifies errors arrive on the error channel
// after the chunk channel closes.
func TestChatStreamChan_Error(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error": {"message": "no credits"}}`))
	}))
	defer server.Close()

	client := NewClient(testAPIKey).WithChatURL(server.URL)

	chunks, errc := client.ChatStreamChan(context.Background(), []ChatMessage{NewUserMessage("hi")})

	for range chunks {
		t.Error("Expected no chunks for an error response")
	}

	if err := <-errc; !errors.Is(err, ErrInsufficientCredits) {
		t.Errorf("Expected ErrInsufficientCredits, got %v", err)
	}
}

// =============================================================================
// ACCUMULATOR TESTS
// =============================================================================

// TestStreamAccumulator verifies accumulation and statistics.
func TestStreamAccumulator(t *testing.T) {
	acc := NewStreamAccumulator()
	cb := acc.Callback()

	var chunk StreamChunk
	chunk.Model = "test-model"
	chunk.Choices = append(chunk.Choices, struct {
		Delta struct {
			Content string `json:"content"`
			Role    string `json:"role,omitempty"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	}{})

	chunk.Choices[0].Delta.Content = "Hello "
	cb(chunk)

	chunk.Choices[0].Delta.Content = "world"
	cb(chunk)

	chunk.Choices[0].Delta.Content = ""
	chunk.Choices[0].FinishReason = "stop"
	cb(chunk)

	if acc.GetContent() != "Hello world" {
		t.Errorf("GetContent() = %q, expected 'Hello world'", acc.GetContent())
	}
	if acc.TokenCount != 2 {
		t.Errorf("TokenCount = %d, expected 2", acc.TokenCount)
	}
	if !acc.Done {
		t.Error("Expected Done after finish chunk")
	}
	if acc.FinishReason != "stop" {
		t.Errorf("FinishReason = %q, expected 'stop'", acc.FinishReason)
	}

	stats := acc.GetStats()
	if stats.TokenCount != 2 {
		t.Errorf("Stats TokenCount = %d, expected 2", stats.TokenCount)
	}
	if stats.Model != "test-model" {
		t.Errorf("Stats Model = %q, expected 'test-model'", stats.Model)
	}
	if stats.FirstTokenTime < 0 {
		t.Errorf("FirstTokenTime = %v, expected >= 0", stats.FirstTokenTime)
	}
}
