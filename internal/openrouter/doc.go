// Copyright (c) 2025 cli-gpt contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package openrouter implements the OpenRouter API client.
//
// OpenRouter fronts many model providers behind one OpenAI-compatible
// API. This package covers the two endpoints cli-gpt needs: chat
// completions (blocking and SSE streaming) and the public model
// listing. Errors are mapped to sentinel values so callers can react
// to authentication, credit, and rate-limit failures without parsing
// messages.
package openrouter
