// Copyright (c) 2025 cli-gpt contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package openrouter

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// =============================================================================
// STREAMING TYPES
// =============================================================================

// StreamChunk represents a single chunk from the streaming response.
type StreamChunk struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
			Role    string `json:"role,omitempty"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error error `json:"-"` // Error field for channel-based streaming
}

// GetContent returns the content from the first choice's delta.
func (c *StreamChunk) GetContent() string {
	if len(c.Choices) > 0 {
		return c.Choices[0].Delta.Content
	}
	return ""
}

// GetRole returns the role from the first choice's delta.
func (c *StreamChunk) GetRole() string {
	if len(c.Choices) > 0 {
		return c.Choices[0].Delta.Role
	}
	return ""
}

// IsDone returns true if the stream has finished.
func (c *StreamChunk) IsDone() bool {
	if len(c.Choices) > 0 {
		return c.Choices[0].FinishReason != ""
	}
	return false
}

// GetFinishReason returns the finish reason if streaming is complete.
func (c *StreamChunk) GetFinishReason() string {
	if len(c.Choices) > 0 {
		return c.Choices[0].FinishReason
	}
	return ""
}

// HasError returns true if the chunk carries an error.
func (c *StreamChunk) HasError() bool {
	return c.Error != nil
}

// StreamCallback is called for each received chunk.
type StreamCallback func(chunk StreamChunk)

// StreamStats holds statistics collected during streaming.
type StreamStats struct {
	FirstTokenTime time.Duration
	TotalTime      time.Duration
	TokenCount     int
	Model          string
}

// StreamError is a streaming failure that preserves the content
// received before the error, so partial responses are never lost.
type StreamError struct {
	Partial string
	Err     error
}

// Error implements the error interface.
func (e *StreamError) Error() string {
	if e.Partial != "" {
		return fmt.Sprintf("stream error (partial content received: %d chars): %v", len(e.Partial), e.Err)
	}
	return fmt.Sprintf("stream error: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *StreamError) Unwrap() error {
	return e.Err
}

// =============================================================================
// SSE READER
// =============================================================================

// SSEReader parses Server-Sent Events from a stream.
type SSEReader struct {
	reader *bufio.Reader
}

// NewSSEReader creates a new SSE reader from an io.Reader.
func NewSSEReader(r io.Reader) *SSEReader {
	return &SSEReader{
		reader: bufio.NewReader(r),
	}
}

// ReadEvent reads the next SSE event from the stream and returns the
// event type and data. The event type is typically empty for
// OpenRouter responses. Returns io.EOF when the stream ends.
func (s *SSEReader) ReadEvent() (string, []byte, error) {
	var eventType string
	var dataLines [][]byte

	for {
		line, err := s.reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF {
				// Flush any buffered data before reporting EOF.
				if len(dataLines) > 0 {
					return eventType, bytes.Join(dataLines, []byte("\n")), nil
				}
				return "", nil, io.EOF
			}
			return "", nil, err
		}

		line = bytes.TrimRight(line, "\r\n")

		// Empty line signals end of event.
		if len(line) == 0 {
			if len(dataLines) > 0 {
				return eventType, bytes.Join(dataLines, []byte("\n")), nil
			}
			continue
		}

		if bytes.HasPrefix(line, []byte("event:")) {
			eventType = string(bytes.TrimSpace(line[6:]))
		} else if bytes.HasPrefix(line, []byte("data:")) {
			data := bytes.TrimSpace(line[5:])
			dataLines = append(dataLines, data)
		}
		// Other fields (id:, retry:, comments) are ignored.
	}
}

// =============================================================================
// STREAMING CHAT
// =============================================================================

// ChatStream performs a streaming chat completion request with the
// current model. The callback runs for each chunk.
//
// Cancellation through ctx returns ctx.Err(). Any other mid-stream
// failure is returned as a *StreamError carrying the partial content
// received so far.
func (c *Client) ChatStream(ctx context.Context, messages []ChatMessage, callback StreamCallback) error {
	if !c.IsConfigured() {
		return ErrMissingAPIKey
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	reqBody := ChatRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   true,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.chatURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.setHeaders(req)
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Connection", "keep-alive")

	c.logRequest(req)
	start := time.Now()
	resp, err := sharedStreamingClient.Do(req)
	req.Header.Del("Authorization")
	if err != nil {
		if ctx.Err() == context.Canceled {
			return ctx.Err()
		}
		return &StreamError{Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()
	c.logResponse(resp, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
		if resp.StatusCode == http.StatusTooManyRequests {
			return c.handleRateLimit(resp, body)
		}
		return c.handleErrorResponse(resp.StatusCode, body)
	}

	// Accumulate so a mid-stream failure can report what arrived.
	var accumulated strings.Builder
	wrappedCallback := func(chunk StreamChunk) {
		accumulated.WriteString(chunk.GetContent())
		callback(chunk)
	}

	if err := c.processStream(ctx, resp.Body, wrappedCallback); err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return &StreamError{
			Partial: accumulated.String(),
			Err:     err,
		}
	}

	return nil
}

// processStream reads and dispatches the SSE stream.
func (c *Client) processStream(ctx context.Context, body io.Reader, callback StreamCallback) error {
	reader := NewSSEReader(body)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		_, data, err := reader.ReadEvent()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			// A deadline firing mid-read surfaces as a wrapped net
			// error; report the cleaner context error instead.
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return err
		}

		// [DONE] terminates the stream.
		if bytes.Equal(data, []byte("[DONE]")) {
			return nil
		}

		var chunk StreamChunk
		if err := json.Unmarshal(data, &chunk); err != nil {
			// Skip malformed chunks.
			continue
		}

		callback(chunk)

		if chunk.IsDone() {
			return nil
		}
	}
}

// ChatStreamWithStats performs a streaming chat and collects timing
// statistics alongside the normal callback.
func (c *Client) ChatStreamWithStats(ctx context.Context, messages []ChatMessage, callback StreamCallback) (*StreamStats, error) {
	stats := &StreamStats{}
	startTime := time.Now()
	var firstTokenTime time.Time
	tokenCount := 0

	wrappedCallback := func(chunk StreamChunk) {
		content := chunk.GetContent()
		if content != "" {
			tokenCount++
			if firstTokenTime.IsZero() {
				firstTokenTime = time.Now()
				stats.FirstTokenTime = firstTokenTime.Sub(startTime)
			}
		}
		if chunk.Model != "" {
			stats.Model = chunk.Model
		}
		callback(chunk)
	}

	err := c.ChatStream(ctx, messages, wrappedCallback)

	stats.TotalTime = time.Since(startTime)
	stats.TokenCount = tokenCount

	return stats, err
}

// ChatStreamAccumulate performs a streaming chat and returns the full
// response text, for callers that want streaming transport without
// incremental display. On failure the partial content is returned
// alongside the error.
func (c *Client) ChatStreamAccumulate(ctx context.Context, messages []ChatMessage) (string, error) {
	var accumulated strings.Builder

	err := c.ChatStream(ctx, messages, func(chunk StreamChunk) {
		accumulated.WriteString(chunk.GetContent())
	})

	if err != nil {
		var streamErr *StreamError
		if errors.As(err, &streamErr) && streamErr.Partial != "" {
			return streamErr.Partial, err
		}
		return accumulated.String(), err
	}

	return accumulated.String(), nil
}

// =============================================================================
// CHANNEL-BASED STREAMING
// =============================================================================

// ChatStreamChan performs a streaming chat and returns a channel of
// chunks plus an error channel. Both channels close when the stream
// ends.
func (c *Client) ChatStreamChan(ctx context.Context, messages []ChatMessage) (<-chan StreamChunk, <-chan error) {
	chunkChan := make(chan StreamChunk, 64)
	errChan := make(chan error, 1)

	go func() {
		defer close(chunkChan)
		defer close(errChan)

		err := c.ChatStream(ctx, messages, func(chunk StreamChunk) {
			select {
			case chunkChan <- chunk:
			case <-ctx.Done():
				return
			}
		})

		if err != nil {
			select {
			case errChan <- err:
			case <-ctx.Done():
			}
		}
	}()

	return chunkChan, errChan
}

// =============================================================================
// STREAM ACCUMULATOR
// =============================================================================

// StreamAccumulator collects streaming chunks and builds a complete
// response with timing statistics.
type StreamAccumulator struct {
	Content      strings.Builder
	TokenCount   int
	Model        string
	FinishReason string
	StartTime    time.Time
	FirstTokenAt time.Time
	Done         bool
	Error        error
}

// NewStreamAccumulator creates a new accumulator.
func NewStreamAccumulator() *StreamAccumulator {
	return &StreamAccumulator{
		StartTime: time.Now(),
	}
}

// Add processes a new chunk.
func (a *StreamAccumulator) Add(chunk StreamChunk) {
	content := chunk.GetContent()
	if content != "" {
		a.TokenCount++
		if a.FirstTokenAt.IsZero() {
			a.FirstTokenAt = time.Now()
		}
		a.Content.WriteString(content)
	}

	if chunk.Model != "" {
		a.Model = chunk.Model
	}

	if chunk.IsDone() {
		a.Done = true
		a.FinishReason = chunk.GetFinishReason()
	}
}

// GetContent returns the accumulated content.
func (a *StreamAccumulator) GetContent() string {
	return a.Content.String()
}

// GetStats returns the collected statistics.
func (a *StreamAccumulator) GetStats() *StreamStats {
	var ttft time.Duration
	if !a.FirstTokenAt.IsZero() {
		ttft = a.FirstTokenAt.Sub(a.StartTime)
	}

	return &StreamStats{
		FirstTokenTime: ttft,
		TotalTime:      time.Since(a.StartTime),
		TokenCount:     a.TokenCount,
		Model:          a.Model,
	}
}

// Callback returns a StreamCallback that feeds this accumulator.
func (a *StreamAccumulator) Callback() StreamCallback {
	return func(chunk StreamChunk) {
		a.Add(chunk)
	}
}
