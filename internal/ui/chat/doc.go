// Copyright (c) 2025 cli-gpt contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the main chat view component for the cli-gpt TUI.

The chat package implements a complete terminal-based chat interface using
the Bubble Tea framework. It provides an interactive, real-time conversation
experience with OpenRouter free-tier models over SSE streaming.

# Key Components

## Model (model.go)

The Model struct is the central Bubble Tea model that maintains all chat
state:
  - Conversation session and transcript management
  - Input handling and slash command dispatch
  - Viewport for transcript scrolling
  - Streaming state for real-time responses
  - Modal model picker

## View Rendering (view.go)

Rendering logic for the complete chat interface:
  - Header with model name and status indicator
  - Message bubbles with role-specific styling and timestamps
  - Markdown rendering for finalized responses, fenced code block
    highlighting during streaming
  - Notices for command output and degradation warnings
  - Input area with character count and status bar

## Stream Runner (update.go)

The StreamRunner executes SSE completion streams on their own goroutine
and feeds progress back through typed messages:
  - StreamStartMsg, StreamTokenMsg, StreamCompleteMsg, StreamErrorMsg
  - Exactly one terminal message per stream
  - Cancellation via context, preserving partial output

## Streaming Buffer (streaming.go)

Optimized streaming implementation for smooth responses:
  - StreamingBuffer for batched token rendering
  - Flicker-free updates at capped frame rates
  - Thread-safe state shared between runner and UI

# Usage

Create a new chat model and run it as a Bubble Tea program:

	client := openrouter.NewClient(apiKey)
	runner := chat.NewStreamRunner(client)
	m := chat.New(chat.Options{
		Session: session,
		Catalog: cat,
		Client:  client,
		Runner:  runner,
	})
	p := tea.NewProgram(m, tea.WithAltScreen())
	runner.SetProgram(p)
	final, err := p.Run()
	if err != nil {
		log.Fatal(err)
	}
	final.(chat.Model).Shutdown()

# Concurrency

The Update loop is the only writer to the session and transcript. The
stream runner goroutine communicates exclusively through program.Send;
the StreamingBuffer is the only mutex-guarded structure shared between
the two.
*/
package chat
