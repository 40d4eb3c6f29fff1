// Copyright (c) 2025 cli-gpt contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the cli-gpt TUI.

This package defines the complete color palette, theme, and animation
primitives used throughout the application. All colors use Lip Gloss
AdaptiveColor for automatic light/dark terminal detection.

# Color System (colors.go)

## Primary Accent Colors

  - Purple - Primary accent for assistant replies and picker selection
  - Cyan - Brand color for info, slash commands, and user highlights
  - Emerald - Success states and the ready status indicator
  - Amber - Warnings and context pressure displays
  - Rose - Errors and stream failures

## Semantic Colors

Message bubbles use semantic color tokens:

	UserBubbleBg      - Background for user messages
	UserBubbleFg      - Text color for user messages
	AssistantBubbleBg - Background for assistant messages
	AssistantBubbleFg - Text color for assistant messages
	SystemBubbleBg    - Background for system notices

## Surface Colors

Layered surface system for depth:

	Surface    - Main background
	SurfaceDim - Subtle backgrounds (headers, status bars)
	Overlay    - Borders, separators, and popups

## Text Colors

Hierarchical text color system:

	TextPrimary   - Main content text
	TextSecondary - Supporting text
	TextMuted     - De-emphasized text (timestamps, hints)
	TextInverse   - Text on colored backgrounds

# Theme System (theme.go)

The Theme struct provides runtime color adaptation:

	theme := styles.NewTheme()
	if theme.IsDark {
		// Dark terminal detected
	}
	if theme.HasTrueColor {
		// Terminal supports 16M colors
	}

Theme also tracks the window size and exposes the responsive layout mode:

	theme.SetSize(width, height)
	switch theme.GetLayoutMode() {
	case styles.LayoutNarrow: // < 60 columns
	case styles.LayoutMedium: // 60-100 columns
	case styles.LayoutWide:   // > 100 columns
	}

# Animation System (animations.go)

## Spinner Configurations

Pre-defined spinner styles:

	LineSpinner - Simple line rotation for the TUI spinner
	DotsSpinner - Three-dot animation for the plain-terminal REPL

## Status Indicators

ASCII indicators for various states:

	StatusIndicators.Success   - [OK]
	StatusIndicators.Error     - [X]
	StatusIndicators.Warning   - [!]
	StatusIndicators.Info      - [i]

# Usage Example

	import "github.com/aoyn1xw/cli-gpt/internal/ui/styles"

	// Use adaptive colors
	headerStyle := lipgloss.NewStyle().
		Background(styles.SurfaceDim).
		Foreground(styles.TextPrimary)

	// Use theme for runtime detection
	theme := styles.NewTheme()
	ok := theme.SuccessStyle.Render(styles.StatusIndicators.Success + " saved")

	// Use spinner configuration
	frame := styles.LineSpinner.Frame(time.Since(start))
*/
package styles
