// Copyright (c) 2025 cli-gpt contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands provides the slash command system for the chat UIs.
//
// This package handles parsing and executing slash commands. Handlers
// run on the caller's goroutine and return bubbletea commands emitting
// typed messages, so the full-screen UI and the plain REPL share one
// command surface.
//
// # Key Types
//
//   - Registry: Command registry with all available commands
//   - Parser: Quote-aware command line parsing
//   - Context: Application state handed to handlers
//
// # Built-in Commands
//
//   - /help: Show available commands
//   - /switch: Switch models or open the picker
//   - /new: Start a fresh conversation
//   - /list: List the current model catalogue
//   - /stats: Show aggregate usage statistics
//   - /quit: Exit
//
// # Usage
//
// Parse and execute a command:
//
//	result := parser.Parse(input)
//	if result.IsCommand && result.Command != nil {
//	    return result.Command.Handler(ctx, result.Args)
//	}
package commands
