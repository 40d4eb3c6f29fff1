// Copyright (c) 2025 cli-gpt contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for sessions and messages.
//
// This package defines the core domain types used throughout the application
// for representing a chat session, its messages, and generation statistics.
//
// # Key Types
//
//   - Session: Container for one chat run, with the system prompt pinned
//     at index zero and the selected model
//   - Message: Single message with role, content, timestamp, and streaming state
//   - Statistics: Timing and token counts for one streamed reply
//   - Role: Message role enumeration (system, user, assistant)
//
// # Usage
//
// Create a session and append a turn:
//
//	sess := model.NewSession("qwen/qwen3-235b-a22b:free")
//	sess.AddUserMessage("Hello!")
//	reply := sess.AddAssistantMessage()
//	reply.AppendToken("Hi there.")
//	sess.FinalizeLast(nil)
package model
