// Copyright (c) 2025 cli-gpt contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides UI components for the cli-gpt TUI.
package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aoyn1xw/cli-gpt/internal/catalog"
	"github.com/aoyn1xw/cli-gpt/internal/ui/styles"
)

// =============================================================================
// MODEL PICKER
// =============================================================================

// ModelPicker is an overlay component for browsing and selecting a model
// from the catalogue. It is opened by /switch without arguments.
type ModelPicker struct {
	// Input field for filtering
	input textinput.Model

	// Full catalogue snapshot
	models []catalog.ModelDescriptor

	// Models matching the current filter
	filtered []catalog.ModelDescriptor

	// Selected index within filtered
	selected int

	// ID of the model that is currently active in the session
	currentID string

	// Dimensions
	width  int
	height int

	// Visibility
	visible bool

	// Theme
	theme *styles.Theme

	// Maximum items to show
	maxItems int
}

// NewModelPicker creates a new model picker.
func NewModelPicker(theme *styles.Theme) *ModelPicker {
	ti := textinput.New()
	ti.Placeholder = "Filter models..."
	ti.Prompt = "> "
	ti.CharLimit = 100
	ti.Width = 50
	ti.PromptStyle = lipgloss.NewStyle().Foreground(styles.Cyan).Bold(true)
	ti.TextStyle = lipgloss.NewStyle().Foreground(styles.TextPrimary)
	ti.PlaceholderStyle = lipgloss.NewStyle().Foreground(styles.TextMuted).Italic(true)

	return &ModelPicker{
		input:    ti,
		theme:    theme,
		maxItems: 10,
	}
}

// SetModels replaces the picker's catalogue snapshot. The entry matching
// currentID is preselected so Enter with no input keeps the active model.
func (mp *ModelPicker) SetModels(models []catalog.ModelDescriptor, currentID string) {
	mp.models = models
	mp.currentID = currentID
	mp.updateFiltered()
	mp.selectCurrent()
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init initializes the model picker.
func (mp *ModelPicker) Init() tea.Cmd {
	return nil
}

// Update handles messages for the model picker.
func (mp *ModelPicker) Update(msg tea.Msg) (*ModelPicker, tea.Cmd) {
	if !mp.visible {
		return mp, nil
	}

	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			mp.Hide()
			return mp, func() tea.Msg { return PickerDismissedMsg{} }

		case "enter":
			// Enter on an empty list is a no-op so a bad filter
			// cannot commit a selection
			if mp.selected >= 0 && mp.selected < len(mp.filtered) {
				chosen := mp.filtered[mp.selected]
				mp.Hide()
				return mp, func() tea.Msg { return ModelChosenMsg{Model: chosen} }
			}
			return mp, nil

		case "up", "ctrl+p":
			if len(mp.filtered) == 0 {
				return mp, nil
			}
			mp.selected--
			if mp.selected < 0 {
				mp.selected = len(mp.filtered) - 1
			}
			return mp, nil

		case "down", "ctrl+n", "tab":
			if len(mp.filtered) == 0 {
				return mp, nil
			}
			mp.selected++
			if mp.selected >= len(mp.filtered) {
				mp.selected = 0
			}
			return mp, nil
		}
	}

	// Update the input field
	previousValue := mp.input.Value()
	mp.input, cmd = mp.input.Update(msg)

	// If input changed, update filtered list
	if mp.input.Value() != previousValue {
		mp.updateFiltered()
		mp.selected = 0
	}

	return mp, cmd
}

// View renders the model picker.
func (mp *ModelPicker) View() string {
	if !mp.visible {
		return ""
	}

	// Box dimensions
	boxWidth := 60
	if mp.width > 0 && mp.width < boxWidth+10 {
		boxWidth = mp.width - 10
	}
	if boxWidth < 40 {
		boxWidth = 40
	}

	// Header
	headerStyle := lipgloss.NewStyle().
		Foreground(styles.Purple).
		Bold(true).
		Padding(0, 1)
	header := headerStyle.Render("Select Model")

	// Separator
	sepStyle := lipgloss.NewStyle().
		Foreground(styles.Overlay)
	separator := sepStyle.Render(strings.Repeat("-", boxWidth-4))

	// Input
	mp.input.Width = boxWidth - 6
	inputView := mp.input.View()

	// Model list
	var listItems []string
	for i, m := range mp.filtered {
		if i >= mp.maxItems {
			remaining := len(mp.filtered) - mp.maxItems
			if remaining > 0 {
				moreStyle := lipgloss.NewStyle().
					Foreground(styles.TextMuted).
					Italic(true)
				listItems = append(listItems, moreStyle.Render("  ... "+toStr(remaining)+" more"))
			}
			break
		}

		listItems = append(listItems, mp.renderItem(m, i == mp.selected, boxWidth-6))
	}

	list := strings.Join(listItems, "\n")

	// If no models match
	if len(mp.filtered) == 0 {
		noMatchStyle := lipgloss.NewStyle().
			Foreground(styles.TextMuted).
			Italic(true).
			Padding(1, 0)
		list = noMatchStyle.Render("No matching models")
	}

	// Help text
	helpStyle := lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Padding(1, 0, 0, 0)
	help := helpStyle.Render("Up/Down navigate | Enter select | Esc close")

	// Combine all parts
	content := lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		separator,
		inputView,
		separator,
		list,
		help,
	)

	// Box style
	boxStyle := lipgloss.NewStyle().
		Background(styles.Surface).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(styles.Purple).
		Padding(1, 2).
		Width(boxWidth)

	box := boxStyle.Render(content)

	// Center the box
	if mp.width > 0 && mp.height > 0 {
		return lipgloss.Place(
			mp.width, mp.height,
			lipgloss.Center, lipgloss.Center,
			box,
			lipgloss.WithWhitespaceChars(" "),
			lipgloss.WithWhitespaceForeground(lipgloss.Color("#000000")),
		)
	}

	return box
}

// =============================================================================
// INTERNAL METHODS
// =============================================================================

// renderItem renders a single model entry.
func (mp *ModelPicker) renderItem(m catalog.ModelDescriptor, selected bool, width int) string {
	// Selection indicator (ASCII)
	indicator := "  "
	if selected {
		indicator = "> "
	}

	nameStyle := lipgloss.NewStyle().
		Foreground(styles.Cyan).
		Bold(true)

	metaStyle := lipgloss.NewStyle().
		Foreground(styles.TextMuted)

	// Active model marker (ASCII)
	activeMark := ""
	if m.ID == mp.currentID {
		activeMark = lipgloss.NewStyle().
			Foreground(styles.Emerald).
			Render(" " + styles.StatusIndicators.Active)
	}

	name := nameStyle.Render(m.DisplayName())

	// Context window hint, e.g. "131K ctx"
	meta := ""
	if m.ContextLength > 0 {
		meta = metaStyle.Render(toStr(m.ContextLength/1000) + "K ctx")
	}

	usedWidth := lipgloss.Width(indicator) + lipgloss.Width(name) + lipgloss.Width(activeMark) + 2
	padWidth := width - usedWidth - lipgloss.Width(meta)
	if padWidth < 1 {
		padWidth = 1
	}

	item := indicator + name + activeMark + strings.Repeat(" ", padWidth) + meta

	if selected {
		selectedStyle := lipgloss.NewStyle().
			Background(styles.Purple).
			Foreground(styles.TextInverse).
			Width(width).
			Padding(0, 1)
		return selectedStyle.Render(item)
	}

	return item
}

// updateFiltered updates the filtered model list based on the input.
// Matching is a case-insensitive substring test on the display name.
func (mp *ModelPicker) updateFiltered() {
	filter := strings.ToLower(strings.TrimSpace(mp.input.Value()))

	if filter == "" {
		mp.filtered = append([]catalog.ModelDescriptor(nil), mp.models...)
		return
	}

	var filtered []catalog.ModelDescriptor
	for _, m := range mp.models {
		if strings.Contains(strings.ToLower(m.DisplayName()), filter) {
			filtered = append(filtered, m)
		}
	}
	mp.filtered = filtered
}

// selectCurrent moves the selection to the active model if it is visible.
func (mp *ModelPicker) selectCurrent() {
	mp.selected = 0
	for i, m := range mp.filtered {
		if m.ID == mp.currentID {
			mp.selected = i
			return
		}
	}
}

// =============================================================================
// PUBLIC METHODS
// =============================================================================

// Show shows the model picker with a cleared filter.
func (mp *ModelPicker) Show() {
	mp.visible = true
	mp.input.Reset()
	mp.input.Focus()
	mp.updateFiltered()
	mp.selectCurrent()
}

// Hide hides the model picker.
func (mp *ModelPicker) Hide() {
	mp.visible = false
	mp.input.Blur()
}

// IsVisible returns true if the model picker is visible.
func (mp *ModelPicker) IsVisible() bool {
	return mp.visible
}

// SetSize sets the dimensions for centering the picker.
func (mp *ModelPicker) SetSize(width, height int) {
	mp.width = width
	mp.height = height
}

// Focus focuses the input field.
func (mp *ModelPicker) Focus() tea.Cmd {
	return mp.input.Focus()
}

// =============================================================================
// MESSAGES
// =============================================================================

// ModelChosenMsg is sent when a model is selected from the picker.
type ModelChosenMsg struct {
	Model catalog.ModelDescriptor
}

// PickerDismissedMsg is sent when the picker is closed without a selection.
type PickerDismissedMsg struct{}
