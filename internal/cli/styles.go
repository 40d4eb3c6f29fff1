// Copyright (c) 2025 cli-gpt contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// styles.go - lipgloss styles for CLI output outside the TUI.
package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/aoyn1xw/cli-gpt/internal/ui/styles"
)

// =============================================================================
// STYLES
// =============================================================================

var (
	// Prompt style
	promptStyle = lipgloss.NewStyle().
			Foreground(styles.Cyan).
			Bold(true)

	// Welcome banner style
	welcomeStyle = lipgloss.NewStyle().
			Foreground(styles.Purple).
			Bold(true)

	// Info style
	infoStyle = lipgloss.NewStyle().
			Foreground(styles.TextSecondary)

	// Command/confirmation style
	commandStyle = lipgloss.NewStyle().
			Foreground(styles.Emerald)

	// Warning style
	warningStyle = lipgloss.NewStyle().
			Foreground(styles.Amber)

	// Error style
	errorStyle = lipgloss.NewStyle().
			Foreground(styles.Rose).
			Bold(true)
)

// =============================================================================
// RENDER HELPERS
// =============================================================================

// RenderConditional applies the style only when colors are enabled,
// so piped output stays clean.
func RenderConditional(style lipgloss.Style, text string) string {
	if !ColorsEnabled() {
		return text
	}
	return style.Render(text)
}

// RenderSeparator renders a horizontal rule of the given width,
// defaulting to 30 columns.
func RenderSeparator(width ...int) string {
	w := 30
	if len(width) > 0 && width[0] > 0 {
		w = width[0]
	}
	return RenderConditional(infoStyle, strings.Repeat("─", w))
}
