// Copyright (c) 2025 cli-gpt contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides reusable UI components for the cli-gpt TUI.

This package contains a collection of styled, interactive components built on
top of the Bubble Tea and Lip Gloss libraries. Each component is designed to
be visually consistent with the cli-gpt design language.

# Core Components

## Display Components

StatusBar (statusbar.go) - Bottom status bar with model name, context gauge,
and streaming status.
CodeBlock (codeblock.go) - Syntax-highlighted code blocks using Chroma.

## Interactive Components

ModelPicker (picker.go) - Filterable model selection overlay opened by /switch.

## Progress and Feedback

Spinner (spinner.go) - Animated spinner shown while waiting for the first
streamed token.

# Key Types

## Theme Integration

Components accept a *styles.Theme for consistent styling:

	theme := styles.NewTheme()
	bar := components.NewStatusBar(theme)
	bar.SetWidth(80)
	bar.SetModel("Qwen3 235B")
	view := bar.View()

## Bubble Tea Integration

Interactive components implement the Bubble Tea update cycle:

	picker, cmd := picker.Update(msg)
	view := picker.View()

# Helper Functions

The package includes shared helper functions in helpers.go:
  - toStr() - Integer to string conversion without fmt
  - fmtNumber() - Thousand-separated number formatting
  - truncateString() - Safe string truncation with Unicode support
*/
package components
