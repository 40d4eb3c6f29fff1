// Copyright (c) 2025 cli-gpt contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stats records per-request usage in a local SQLite ledger.
//
// One row is written per completed chat request: model, token counts,
// duration, and time to first token. Conversation text is never
// stored. The ledger backs the /stats command; every method is
// nil-receiver safe so a disabled or failed ledger degrades to a
// notice instead of blocking chat.
package stats
