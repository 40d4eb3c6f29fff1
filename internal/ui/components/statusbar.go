// Copyright (c) 2025 cli-gpt contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the visual UI components for the cli-gpt TUI.
package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/aoyn1xw/cli-gpt/internal/ui/styles"
)

// =============================================================================
// STATUS BAR COMPONENT - Bottom status bar
// =============================================================================

// Status represents the current application status.
type Status int

const (
	StatusReady Status = iota
	StatusThinking
	StatusStreaming
	StatusError
	StatusIdle
)

// String returns the display string for the status.
func (s Status) String() string {
	switch s {
	case StatusReady:
		return "Ready"
	case StatusThinking:
		return "Thinking..."
	case StatusStreaming:
		return "Streaming..."
	case StatusError:
		return "Error"
	case StatusIdle:
		return "Idle"
	default:
		return "Unknown"
	}
}

// Icon returns an icon for the status.
// ACCESSIBILITY: Uses distinct shapes alongside colors for colorblind users
func (s Status) Icon() string {
	switch s {
	case StatusReady:
		return styles.StatusIndicators.Success
	case StatusThinking:
		return styles.StatusIndicators.Pending
	case StatusStreaming:
		return styles.StatusIndicators.Active
	case StatusError:
		return styles.StatusIndicators.Error
	case StatusIdle:
		return "-"
	default:
		return "?"
	}
}

// StatusBar represents the bottom status bar.
type StatusBar struct {
	ModelName     string // Display name of the selected model
	TokenCount    int    // Tokens used in the current conversation
	MaxTokens     int    // Context window size in tokens
	Status        Status // Current status
	Width         int    // Available width
	ShowShortcuts bool   // Show keyboard shortcuts in the wide layout
	theme         *styles.Theme
}

// NewStatusBar creates a new StatusBar component.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{
		ModelName:     "",
		TokenCount:    0,
		MaxTokens:     4096,
		Status:        StatusReady,
		Width:         80,
		ShowShortcuts: true,
		theme:         theme,
	}
}

// SetWidth updates the status bar width.
func (s *StatusBar) SetWidth(width int) {
	s.Width = width
}

// SetModel updates the displayed model name.
func (s *StatusBar) SetModel(name string) {
	s.ModelName = name
}

// SetTokenUsage updates the token count display.
func (s *StatusBar) SetTokenUsage(used, max int) {
	s.TokenCount = used
	s.MaxTokens = max
}

// SetStatus updates the current status.
func (s *StatusBar) SetStatus(status Status) {
	s.Status = status
}

// View renders the status bar.
func (s *StatusBar) View() string {
	// Choose layout based on width
	if s.Width < 60 {
		return s.viewNarrow()
	}
	if s.Width < 100 {
		return s.viewMedium()
	}
	return s.viewWide()
}

// viewNarrow renders a compact status bar for narrow terminals.
// Format: [model] ContextBar StatusIcon
func (s *StatusBar) viewNarrow() string {
	parts := []string{}

	// Model (heavily truncated)
	if s.ModelName != "" {
		modelStyle := lipgloss.NewStyle().Foreground(styles.TextSecondary)
		parts = append(parts, modelStyle.Render(truncateString(s.ModelName, 12)))
	}

	// Context bar (smaller)
	parts = append(parts, s.renderContextBarSmall())

	// Status icon only
	statusStyle := s.getStatusStyle()
	parts = append(parts, statusStyle.Render(s.Status.Icon()))

	separator := lipgloss.NewStyle().Foreground(styles.Overlay).Render(" ")
	result := strings.Join(parts, separator)

	// Apply background
	return lipgloss.NewStyle().
		Background(styles.SurfaceDim).
		Foreground(styles.TextSecondary).
		Width(s.Width).
		Render(result)
}

// viewMedium renders a medium-width status bar.
// Format: Model: name | Ctx: ContextBar | Status
func (s *StatusBar) viewMedium() string {
	separator := lipgloss.NewStyle().
		Foreground(styles.Overlay).
		Render(" | ")

	parts := []string{}

	// Model (truncated if needed)
	if s.ModelName != "" {
		label := lipgloss.NewStyle().Foreground(styles.TextMuted).Render("Model:")
		modelStyle := lipgloss.NewStyle().Foreground(styles.TextSecondary)
		parts = append(parts, label+" "+modelStyle.Render(truncateString(s.ModelName, 20)))
	}

	// Context bar with label
	contextLabel := lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Render("Ctx:")
	parts = append(parts, contextLabel+" "+s.renderContextBar())

	// Status
	statusStyle := s.getStatusStyle()
	parts = append(parts, statusStyle.Render(s.Status.String()))

	result := strings.Join(parts, separator)

	// Apply background
	return lipgloss.NewStyle().
		Background(styles.SurfaceDim).
		Foreground(styles.TextSecondary).
		Padding(0, 1).
		Width(s.Width).
		Render(result)
}

// viewWide renders a full-featured status bar for wide terminals.
// Format: Model: name | 1,234 tok    Ctx: [####------] 1,234/128,000 (1.0%)    Status ^Ccancel
func (s *StatusBar) viewWide() string {
	// Left section: model and token count
	leftParts := []string{}

	if s.ModelName != "" {
		label := lipgloss.NewStyle().Foreground(styles.TextMuted).Render("Model:")
		modelStyle := lipgloss.NewStyle().Foreground(styles.TextSecondary)
		leftParts = append(leftParts, label+" "+modelStyle.Render(s.ModelName))
	}

	tokenStr := lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Render(fmtNumber(s.TokenCount) + " tok")
	leftParts = append(leftParts, tokenStr)

	leftSep := lipgloss.NewStyle().Foreground(styles.Overlay).Render(" | ")
	leftSection := strings.Join(leftParts, leftSep)

	// Center section: context gauge
	contextLabel := lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Render("Ctx: ")
	centerSection := contextLabel + s.renderContextBar() + " " + s.renderContextPercent()

	// Right section: status and shortcuts
	rightParts := []string{}

	statusStyle := s.getStatusStyle()
	rightParts = append(rightParts, statusStyle.Render(s.Status.String()))

	if s.ShowShortcuts {
		rightParts = append(rightParts, s.renderShortcuts())
	}

	rightSection := strings.Join(rightParts, " ")

	// Calculate spacing
	leftWidth := lipgloss.Width(leftSection)
	centerWidth := lipgloss.Width(centerSection)
	rightWidth := lipgloss.Width(rightSection)
	totalContent := leftWidth + centerWidth + rightWidth

	// Add spacing between sections
	spacing := s.Width - totalContent - 4 // Account for padding
	if spacing < 4 {
		spacing = 4
	}

	leftSpace := strings.Repeat(" ", spacing/2)
	rightSpace := strings.Repeat(" ", spacing-spacing/2)

	result := leftSection + leftSpace + centerSection + rightSpace + rightSection

	// Apply styled border for wide view
	return lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(styles.Overlay).
		Background(styles.SurfaceDim).
		Foreground(styles.TextSecondary).
		Padding(0, 1).
		Width(s.Width).
		Render(result)
}

// ==========================================================================
// HELPER RENDER METHODS
// ==========================================================================

// renderContextBar renders the context usage bar.
// Format: [##########] (10 blocks)
func (s *StatusBar) renderContextBar() string {
	percent := s.contextPercent()

	filled := int(percent / 10)
	if filled > 10 {
		filled = 10
	}
	empty := 10 - filled

	filledStyle := lipgloss.NewStyle().Foreground(s.contextColor(percent))
	emptyStyle := lipgloss.NewStyle().Foreground(styles.Overlay)

	filledPart := filledStyle.Render(strings.Repeat("#", filled))
	emptyPart := emptyStyle.Render(strings.Repeat("-", empty))

	return "[" + filledPart + emptyPart + "]"
}

// renderContextBarSmall renders a smaller context bar for narrow view.
// Format: [####--] (6 blocks)
func (s *StatusBar) renderContextBarSmall() string {
	percent := s.contextPercent()

	filled := int(percent / 100 * 6)
	if filled > 6 {
		filled = 6
	}
	empty := 6 - filled

	filledStyle := lipgloss.NewStyle().Foreground(s.contextColor(percent))
	emptyStyle := lipgloss.NewStyle().Foreground(styles.Overlay)

	return "[" + filledStyle.Render(strings.Repeat("#", filled)) +
		emptyStyle.Render(strings.Repeat("-", empty)) + "]"
}

// renderContextPercent renders the context percentage with token counts.
// Format: 2,048/4,096 (50.0%)
func (s *StatusBar) renderContextPercent() string {
	percent := s.contextPercent()

	color := styles.TextMuted
	if percent >= 90 {
		color = styles.Rose
	} else if percent >= 75 {
		color = styles.Amber
	}

	percentStyle := lipgloss.NewStyle().Foreground(color)

	return percentStyle.Render(
		fmtNumber(s.TokenCount) + "/" + fmtNumber(s.MaxTokens) +
			" (" + fmtPercent(percent) + ")",
	)
}

// renderShortcuts renders keyboard shortcut hints.
func (s *StatusBar) renderShortcuts() string {
	keyStyle := lipgloss.NewStyle().
		Foreground(styles.Cyan).
		Bold(true)

	descStyle := lipgloss.NewStyle().
		Foreground(styles.TextMuted)

	shortcuts := []string{
		keyStyle.Render("Esc") + descStyle.Render("cancel"),
		keyStyle.Render("^C") + descStyle.Render("quit"),
	}

	return strings.Join(shortcuts, " ")
}

// contextPercent returns the context usage as a 0-100 percentage.
func (s *StatusBar) contextPercent() float64 {
	if s.MaxTokens <= 0 {
		return 0
	}
	return float64(s.TokenCount) / float64(s.MaxTokens) * 100
}

// contextColor returns the gauge color for the given usage percentage.
func (s *StatusBar) contextColor(percent float64) lipgloss.AdaptiveColor {
	if percent >= 90 {
		return styles.Rose
	}
	if percent >= 75 {
		return styles.Amber
	}
	if percent >= 50 {
		return styles.Emerald
	}
	return styles.Cyan
}

// getStatusStyle returns the style for the current status.
// ACCESSIBILITY: Uses high contrast colors with bold for colorblind users
func (s *StatusBar) getStatusStyle() lipgloss.Style {
	switch s.Status {
	case StatusReady:
		return lipgloss.NewStyle().Foreground(styles.SuccessHighContrast).Bold(true)
	case StatusThinking, StatusStreaming:
		return lipgloss.NewStyle().Foreground(styles.InfoHighContrast).Bold(true)
	case StatusError:
		return lipgloss.NewStyle().Foreground(styles.ErrorHighContrast).Bold(true)
	case StatusIdle:
		return lipgloss.NewStyle().Foreground(styles.TextMuted)
	default:
		return lipgloss.NewStyle().Foreground(styles.TextMuted)
	}
}
