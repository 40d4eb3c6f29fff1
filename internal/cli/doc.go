// Copyright (c) 2025 cli-gpt contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the command-line surface of cli-gpt: flag
// parsing, terminal capability detection, the --list-models printer,
// and the line-oriented plain chat REPL used when the full-screen UI
// is unavailable or unwanted.
package cli
