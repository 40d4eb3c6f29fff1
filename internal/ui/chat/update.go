// Copyright (c) 2025 cli-gpt contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/aoyn1xw/cli-gpt/internal/catalog"
	"github.com/aoyn1xw/cli-gpt/internal/model"
	"github.com/aoyn1xw/cli-gpt/internal/openrouter"
)

// =============================================================================
// STREAM RUNNER
// =============================================================================

// StreamRunner executes completion streams on their own goroutine and
// reports progress to the UI through program.Send. The runner is the
// only writer to the wire; the UI is the only writer to the session.
type StreamRunner struct {
	mu      sync.Mutex
	program *tea.Program
	client  *openrouter.Client
}

// NewStreamRunner creates a runner bound to a completion client. The
// program reference is attached later, after tea.NewProgram; a Model
// holds the runner by pointer so both sides see the same reference.
func NewStreamRunner(client *openrouter.Client) *StreamRunner {
	return &StreamRunner{client: client}
}

// SetProgram attaches the Bubble Tea program. Must be called before
// the first stream starts.
func (r *StreamRunner) SetProgram(p *tea.Program) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.program = p
}

// send delivers a message to the program's event loop. Messages sent
// before SetProgram are dropped, which can only happen in tests.
func (r *StreamRunner) send(msg tea.Msg) {
	r.mu.Lock()
	p := r.program
	r.mu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

// Run streams one completion and emits StreamStartMsg, then a
// StreamTokenMsg per content chunk, then exactly one of
// StreamCompleteMsg or StreamErrorMsg. Blocks until the stream ends;
// callers run it inside a tea.Cmd so it gets its own goroutine.
func (r *StreamRunner) Run(ctx context.Context, messages []openrouter.ChatMessage, messageID string) {
	st := model.NewStatistics()
	r.send(NewStreamStartMsg(messageID))

	tokenCount := 0
	firstSent := false
	completeSent := false

	streamErr := r.client.ChatStream(ctx, messages, func(chunk openrouter.StreamChunk) {
		if content := chunk.GetContent(); content != "" {
			isFirst := !firstSent
			if isFirst {
				firstSent = true
				st.RecordFirstToken()
			}
			tokenCount++
			r.send(NewStreamTokenMsg(messageID, content, isFirst))
		}

		if chunk.IsDone() && !completeSent {
			completeSent = true
			st.Finalize(tokenCount)
			r.send(NewStreamCompleteMsg(messageID, st))
		}
	})

	if streamErr != nil {
		if !completeSent {
			r.send(StreamErrorMsg{MessageID: messageID, Err: streamErr})
		}
		return
	}

	// The terminator can arrive without a finish_reason chunk; treat a
	// clean EOF as completion.
	if !completeSent {
		st.Finalize(tokenCount)
		r.send(NewStreamCompleteMsg(messageID, st))
	}
}

// =============================================================================
// ASYNC COMMANDS
// =============================================================================

// refreshCatalogCmd fetches the model catalogue off the update loop.
// The provider chain always yields a usable list; a non-nil error
// means it is the bundled fallback.
func refreshCatalogCmd(client *openrouter.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancelFn := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelFn()

		models, source, err := catalog.FetchModels(ctx, catalog.DefaultChain(client))
		return CatalogResultMsg{Models: models, Source: source, Err: err}
	}
}
