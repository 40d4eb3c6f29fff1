// Copyright (c) 2025 cli-gpt contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// This file contains all rendering logic for the chat interface:
//   - Main view assembly (renderChat)
//   - Transcript rendering (user, assistant, notices)
//   - Markdown and code block processing
//   - UI chrome (header, input area, error box, empty state)
package chat

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/aoyn1xw/cli-gpt/internal/catalog"
	"github.com/aoyn1xw/cli-gpt/internal/commands"
	"github.com/aoyn1xw/cli-gpt/internal/model"
	"github.com/aoyn1xw/cli-gpt/internal/ui/components"
	"github.com/aoyn1xw/cli-gpt/internal/ui/styles"
	"github.com/aoyn1xw/cli-gpt/internal/util"
)

// =============================================================================
// MAIN RENDER
// =============================================================================

// renderChat renders the complete chat view.
// Layout: header + transcript (viewport) + input (3 lines) + status bar.
// Total height must equal m.height exactly to prevent overflow/underflow.
//
// COUPLING WARNING: The viewport height is pre-calculated in handleResize()
// (model.go) using conservative constant estimates. This function measures
// actual heights with lipgloss.Height() and has a fallback if there's a
// mismatch. If you change the height of any component here, also update the
// constants in handleResize().
func (m Model) renderChat() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	// Modal picker replaces the whole screen; it centers itself.
	if m.state == StatePicker && m.picker.IsVisible() {
		return m.picker.View()
	}

	// Build fixed-height components first to calculate available space
	header := m.renderHeader()
	input := m.renderInput()
	status := m.statusBar.View()

	headerHeight := lipgloss.Height(header)
	inputHeight := lipgloss.Height(input)
	statusHeight := lipgloss.Height(status)

	availableHeight := m.height - headerHeight - inputHeight - statusHeight
	if availableHeight < 1 {
		availableHeight = 1
	}

	messages := m.viewport.View()

	// Verify viewport height matches available space to catch sizing bugs
	if lipgloss.Height(messages) != availableHeight {
		// Fallback; the root cause should be fixed in handleResize()
		messages = lipgloss.NewStyle().
			Height(availableHeight).
			MaxHeight(availableHeight).
			Width(m.width).
			Render(messages)
	}

	baseView := lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		messages,
		input,
		status,
	)

	// Blocking error box layers over everything else.
	if m.state == StateError && m.lastError != nil {
		return lipgloss.Place(
			m.width, m.height,
			lipgloss.Center, lipgloss.Center,
			m.renderError(),
			lipgloss.WithWhitespaceChars(" "),
		)
	}

	return baseView
}

// =============================================================================
// HEADER
// =============================================================================

// renderHeader renders the title bar with model name and a status
// indicator. Uses a dimmed surface background, always 1 line high.
func (m Model) renderHeader() string {
	width := m.width
	if width <= 0 {
		width = 80
	}

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(styles.Purple).
		Render("cli-gpt")

	modelInfo := lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Render(" | " + m.modelDisplayName())

	var statusIcon string
	switch m.state {
	case StateStreaming:
		statusIcon = lipgloss.NewStyle().
			Foreground(styles.Emerald).
			Render(" " + styles.StatusIndicators.Active)
	case StateError:
		statusIcon = lipgloss.NewStyle().
			Foreground(styles.Rose).
			Render(" " + styles.StatusIndicators.Error)
	default:
		statusIcon = lipgloss.NewStyle().
			Foreground(styles.Cyan).
			Render(" " + styles.StatusIndicators.Success)
	}

	return lipgloss.NewStyle().
		Background(styles.SurfaceDim).
		Width(width).
		Padding(0, 1).
		Render(title + modelInfo + statusIcon)
}

// modelDisplayName prefers the catalogue's friendly name and falls
// back to the session's raw model identifier.
func (m Model) modelDisplayName() string {
	if m.catalog != nil {
		if d, ok := m.catalog.CurrentDescriptor(); ok {
			return d.DisplayName()
		}
	}
	if m.session != nil && m.session.Model != "" {
		return m.session.Model
	}
	return "no model"
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// renderTranscript renders the full transcript: messages and notices
// in arrival order, plus the thinking indicator while waiting for the
// first token.
func (m *Model) renderTranscript() string {
	if len(m.entries) == 0 {
		return m.renderEmptyState()
	}

	var parts []string
	for _, entry := range m.entries {
		switch {
		case entry.msg != nil:
			switch entry.msg.Role {
			case model.RoleUser:
				parts = append(parts, m.renderUserMessage(entry.msg))
			case model.RoleAssistant:
				if rendered := m.renderAssistantMessage(entry.msg); rendered != "" {
					parts = append(parts, rendered)
				}
			}
		case entry.notice != nil:
			parts = append(parts, m.renderNotice(entry.notice))
		}
	}

	if m.state == StateStreaming && m.isThinking {
		parts = append(parts, m.renderThinking())
	}

	return strings.Join(parts, "\n")
}

// renderUserMessage renders a user message right-aligned with a
// timestamp label, so the two sides of the conversation read apart at
// a glance.
func (m *Model) renderUserMessage(msg *model.Message) string {
	maxWidth := m.messageWrapWidth()

	label := m.theme.Timestamp.Render("["+formatTimestamp(msg)+"]") + " " +
		m.theme.RoleLabel.Render("You")

	bubble := lipgloss.NewStyle().
		Foreground(styles.UserBubbleFg).
		Background(styles.UserBubbleBg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(styles.UserBubbleBorder).
		Padding(0, 2).
		MaxWidth(maxWidth)

	wrapWidth := maxWidth - 4
	if wrapWidth < 10 {
		wrapWidth = 10
	}
	rendered := bubble.Render(wrapText(msg.GetDisplayContent(), wrapWidth))

	block := lipgloss.JoinVertical(lipgloss.Right, label, rendered)

	// Push the block to the right edge.
	marginLeft := m.width - lipgloss.Width(block) - 4
	if marginLeft < 0 {
		marginLeft = 0
	}

	return lipgloss.NewStyle().
		MarginLeft(marginLeft).
		MarginTop(1).
		MarginBottom(1).
		Render(block)
}

// renderAssistantMessage renders an assistant message. Streaming
// messages show raw text with a cursor and fence-split code blocks;
// finalized messages go through glamour when markdown is on.
func (m *Model) renderAssistantMessage(msg *model.Message) string {
	maxWidth := m.messageWrapWidth()
	content := msg.GetDisplayContent()

	// Skip rendering if no content yet (prevents empty bubble)
	if strings.TrimSpace(content) == "" && !msg.IsStreaming {
		return ""
	}

	if msg.IsStreaming && m.state == StateStreaming {
		if content == "" {
			content = "_" // Show just cursor when no content yet
		} else {
			content += lipgloss.NewStyle().
				Foreground(styles.Purple).
				Blink(true).
				Render("_")
		}
	}

	label := m.theme.Timestamp.Render("["+formatTimestamp(msg)+"]") + " " +
		m.theme.RoleLabel.Render("Assistant")

	var body string
	if !msg.IsStreaming && m.markdownOn && m.markdown != nil {
		body = m.renderMarkdown(content)
	} else {
		body = m.renderContentWithCodeBlocks(content, maxWidth)
	}

	var statsLine string
	if !msg.IsStreaming && msg.TotalDuration > 0 {
		statsLine = "\n" + m.renderStats(msg)
	}

	result := label + "\n" + body + statsLine
	return lipgloss.NewStyle().
		MarginTop(1).
		MarginBottom(1).
		MarginLeft(2).
		Render(result)
}

// renderMarkdown renders finalized content through glamour. Falls back
// to the raw text when rendering fails, so output never disappears.
func (m *Model) renderMarkdown(content string) string {
	out, err := m.markdown.Render(content)
	if err != nil {
		return m.renderContentWithCodeBlocks(content, m.messageWrapWidth())
	}
	return strings.TrimRight(out, "\n")
}

// renderContentWithCodeBlocks processes content and renders fenced
// code blocks separately with syntax highlighting.
func (m *Model) renderContentWithCodeBlocks(content string, maxWidth int) string {
	wrapWidth := maxWidth - 4
	if wrapWidth < 10 {
		wrapWidth = 10
	}

	textBubble := lipgloss.NewStyle().
		Foreground(styles.AssistantBubbleFg).
		Background(styles.AssistantBubbleBg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(styles.AssistantBubbleBorder).
		Padding(0, 2).
		MaxWidth(maxWidth)

	// No code blocks - render as a single assistant bubble
	if !strings.Contains(content, "```") {
		return textBubble.Render(wrapText(content, wrapWidth))
	}

	// Has code blocks - split and render each part
	var parts []string
	var currentText []string
	var codeLines []string
	var language string
	var inCodeBlock bool

	flushText := func() {
		if len(currentText) == 0 {
			return
		}
		text := strings.Join(currentText, "\n")
		if strings.TrimSpace(text) != "" {
			parts = append(parts, textBubble.Render(wrapText(text, wrapWidth)))
		}
		currentText = nil
	}

	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, "```") {
			if inCodeBlock {
				flushText()
				cb := components.NewCodeBlock(language, strings.Join(codeLines, "\n"))
				cb.SetMaxWidth(maxWidth)
				parts = append(parts, cb.Render())
				codeLines = nil
				language = ""
				inCodeBlock = false
			} else {
				flushText()
				language = strings.TrimSpace(strings.TrimPrefix(line, "```"))
				inCodeBlock = true
			}
		} else if inCodeBlock {
			codeLines = append(codeLines, line)
		} else {
			currentText = append(currentText, line)
		}
	}

	flushText()

	// Unclosed code block: the stream may still be mid-fence
	if inCodeBlock {
		if len(codeLines) > 0 {
			cb := components.NewCodeBlock(language, strings.Join(codeLines, "\n"))
			cb.SetMaxWidth(maxWidth)
			parts = append(parts, cb.Render())
		} else {
			parts = append(parts, textBubble.Render("```"+language))
		}
	}

	return strings.Join(parts, "\n")
}

// renderStats renders the statistics line for a finalized message.
func (m *Model) renderStats(msg *model.Message) string {
	statsText := msg.FormatStats()
	if statsText == "" {
		return ""
	}

	return lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Italic(true).
		PaddingLeft(2).
		Render(statsText)
}

// renderNotice renders an out-of-band transcript line with a level
// indicator. Multi-line notices (help, model list, stats) keep their
// own layout.
func (m *Model) renderNotice(n *noticeEntry) string {
	var icon string
	var style lipgloss.Style
	switch n.Level {
	case commands.NoticeError:
		icon = styles.StatusIndicators.Error
		style = m.theme.ErrorStyle
	case commands.NoticeWarn:
		icon = styles.StatusIndicators.Warning
		style = m.theme.WarningStyle
	default:
		icon = styles.StatusIndicators.Info
		style = m.theme.InfoStyle
	}

	text := n.Text
	if !strings.Contains(text, "\n") {
		wrapWidth := m.messageWrapWidth() - 4
		if wrapWidth < 10 {
			wrapWidth = 10
		}
		text = wrapText(text, wrapWidth)
	}

	return lipgloss.NewStyle().
		MarginTop(1).
		MarginLeft(2).
		Render(style.Render(icon + " " + text))
}

// renderThinking renders the animated waiting indicator shown between
// submit and the first token.
func (m *Model) renderThinking() string {
	view := m.thinking.View()
	if view == "" {
		// Spinner inactive; static fallback keeps the slot visible.
		view = lipgloss.NewStyle().
			Foreground(styles.TextSecondary).
			Render("Thinking...")
	}
	return lipgloss.NewStyle().
		MarginTop(1).
		MarginLeft(2).
		Render(view)
}

// =============================================================================
// EMPTY STATE
// =============================================================================

// renderEmptyState renders the welcome screen for a fresh session:
// current model, quick tips, and a help hint.
func (m *Model) renderEmptyState() string {
	width := m.width
	if width <= 0 {
		width = 80
	}
	emptyWidth := width - 8
	if emptyWidth < 40 {
		emptyWidth = 40
	}
	if emptyWidth > 80 {
		emptyWidth = 80
	}

	var sb strings.Builder

	welcomeStyle := lipgloss.NewStyle().
		Foreground(styles.Purple).
		Bold(true).
		Align(lipgloss.Center).
		Width(emptyWidth)
	sb.WriteString(welcomeStyle.Render("Welcome to cli-gpt"))
	sb.WriteString("\n\n")

	modelStyle := lipgloss.NewStyle().
		Foreground(styles.TextSecondary).
		Align(lipgloss.Center).
		Width(emptyWidth)
	sb.WriteString(modelStyle.Render("Model: " + m.modelDisplayName()))
	sb.WriteString("\n\n")

	sepStyle := lipgloss.NewStyle().
		Foreground(styles.Overlay).
		Align(lipgloss.Center).
		Width(emptyWidth)
	sb.WriteString(sepStyle.Render(strings.Repeat("-", 40)))
	sb.WriteString("\n\n")

	tipsHeaderStyle := lipgloss.NewStyle().
		Foreground(styles.Cyan).
		Bold(true)
	sb.WriteString(tipsHeaderStyle.Render("Quick Tips"))
	sb.WriteString("\n\n")

	tipStyle := lipgloss.NewStyle().
		Foreground(styles.TextMuted)
	keyStyle := lipgloss.NewStyle().
		Foreground(styles.Amber).
		Bold(true)

	tips := []struct {
		key  string
		desc string
	}{
		{"Type a message", "Start chatting"},
		{"/help", "List available commands"},
		{"/model", "Open the model picker"},
		{"/list", "Show the model catalogue"},
		{"Esc", "Cancel a streaming response"},
	}

	for _, tip := range tips {
		sb.WriteString("  " + keyStyle.Render(padKeyColumn(tip.key)) + tipStyle.Render(tip.desc))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")

	hintStyle := lipgloss.NewStyle().
		Foreground(styles.Overlay).
		Align(lipgloss.Center).
		Width(emptyWidth)
	sb.WriteString(hintStyle.Render("All models are OpenRouter free-tier | Ctrl+C to quit"))

	containerStyle := lipgloss.NewStyle().
		Align(lipgloss.Center).
		Width(width - 4).
		Padding(2, 0)

	return containerStyle.Render(sb.String())
}

// =============================================================================
// INPUT AREA
// =============================================================================

// renderInput renders the input area: separator line, input line, and
// character count. Fixed at 3 lines to prevent layout shift.
func (m Model) renderInput() string {
	width := m.width
	if width <= 0 {
		width = 80
	}

	var borderColor lipgloss.AdaptiveColor
	if m.input.Focused() {
		borderColor = styles.Purple
	} else {
		borderColor = styles.Overlay
	}

	separator := lipgloss.NewStyle().
		Foreground(borderColor).
		Render(strings.Repeat("─", width))

	var statusIndicator string
	if m.state == StateStreaming {
		statusIndicator = lipgloss.NewStyle().
			Foreground(styles.Amber).
			Render(" (streaming... Esc to cancel)")
	}

	inputLineWidth := width - 4
	if inputLineWidth < 10 {
		inputLineWidth = 10
	}
	inputLine := lipgloss.NewStyle().
		Width(inputLineWidth).
		Render("  " + m.input.View() + statusIndicator)

	result := lipgloss.JoinVertical(
		lipgloss.Left,
		separator,
		inputLine,
		m.renderCharCount(),
	)

	// Force exact height so typing never reflows the layout
	return lipgloss.NewStyle().
		Height(3).
		MaxHeight(3).
		Width(width).
		Render(result)
}

// renderCharCount renders the character count indicator.
func (m Model) renderCharCount() string {
	count := len([]rune(m.input.Value()))
	limit := m.input.CharLimit
	if limit <= 0 {
		limit = 1
	}

	var style lipgloss.Style
	percent := float64(count) / float64(limit) * 100
	switch {
	case percent >= 90:
		style = m.theme.CharCountDanger
	case percent >= 75:
		style = m.theme.CharCountWarning
	default:
		style = m.theme.CharCount
	}

	width := m.width
	if width <= 0 {
		width = 80
	}
	charCountWidth := width - 4
	if charCountWidth < 10 {
		charCountWidth = 10
	}

	return lipgloss.NewStyle().
		Width(charCountWidth).
		Align(lipgloss.Right).
		Padding(0, 2).
		Render(style.Render(util.IntToString(count) + " / " + util.IntToString(limit)))
}

// =============================================================================
// ERROR BOX
// =============================================================================

// renderError renders the blocking error box with title, message, and
// recovery suggestions.
func (m Model) renderError() string {
	if m.lastError == nil {
		return ""
	}

	boxWidth := m.width - 20
	if boxWidth < 40 {
		boxWidth = 40
	}
	if boxWidth > 70 {
		boxWidth = 70
	}
	wrapWidth := boxWidth - 8
	if wrapWidth < 20 {
		wrapWidth = 20
	}

	var sb strings.Builder
	sb.WriteString(m.theme.ErrorTitle.Render(styles.StatusIndicators.Error + " " + m.lastError.Title))
	sb.WriteString("\n\n")
	sb.WriteString(m.theme.ErrorMessage.Render(wrapText(m.lastError.Message, wrapWidth)))

	if len(m.lastError.Suggestions) > 0 {
		sb.WriteString("\n")
		for _, s := range m.lastError.Suggestions {
			sb.WriteString("\n")
			sb.WriteString(m.theme.ErrorTip.Render("- " + wrapText(s, wrapWidth-2)))
		}
	}

	sb.WriteString("\n\n")
	sb.WriteString(lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Render("Esc or Enter to dismiss"))

	return m.theme.ErrorBox.
		Width(boxWidth).
		Render(sb.String())
}

// =============================================================================
// FORMATTING HELPERS
// =============================================================================

// messageWrapWidth is the maximum width for a message bubble.
func (m Model) messageWrapWidth() int {
	maxWidth := m.width - 8
	if maxWidth > m.width-2 {
		maxWidth = m.width - 2 // Never exceed terminal
	}
	if maxWidth < 10 {
		maxWidth = 10 // Minimum takes precedence
	}
	return maxWidth
}

// formatTimestamp formats a message time as [HH:MM] body text.
func formatTimestamp(msg *model.Message) string {
	return msg.Timestamp.Format("15:04")
}

// wrapText wraps text at word boundaries, handling Unicode correctly
// by working in runes rather than bytes.
func wrapText(text string, maxWidth int) string {
	if maxWidth <= 0 {
		return text
	}

	var result strings.Builder
	lines := strings.Split(text, "\n")

	for i, line := range lines {
		if i > 0 {
			result.WriteString("\n")
		}

		runes := []rune(line)

		for len(runes) > maxWidth {
			// Find a good break point (look for space)
			breakPoint := maxWidth
			for j := maxWidth; j > 0; j-- {
				if runes[j] == ' ' {
					breakPoint = j
					break
				}
			}

			result.WriteString(string(runes[:breakPoint]))
			result.WriteString("\n")
			runes = []rune(strings.TrimLeft(string(runes[breakPoint:]), " "))
		}
		result.WriteString(string(runes))
	}

	return result.String()
}

// formatModelList renders the numbered catalogue for the /list
// command. The current selection is marked; the source line tells the
// user whether they are looking at live or bundled data.
func formatModelList(models []catalog.ModelDescriptor, source, current string) string {
	var sb strings.Builder
	sb.WriteString("Available models (" + source + "):")

	for i, d := range models {
		sb.WriteString("\n  " + util.IntToString(i+1) + ". " + d.DisplayName())
		if d.Name != "" && d.Name != d.ID {
			sb.WriteString(" (" + d.ID + ")")
		}
		if d.ID == current {
			sb.WriteString("  [current]")
		}
	}

	if len(models) == 0 {
		sb.WriteString("\n  (none)")
	}

	sb.WriteString("\n\nUse /switch <number or id> to change models.")
	return sb.String()
}

// formatStatsReport renders the /stats summary: lifetime totals from
// the ledger plus the live session's message count.
func formatStatsReport(msg commands.StatsResultMsg) string {
	var sb strings.Builder
	sb.WriteString("Usage statistics")
	sb.WriteString("\n  Requests:          " + util.IntToString(msg.Totals.Requests))
	sb.WriteString("\n  Prompt tokens:     " + util.Int64ToString(msg.Totals.PromptTokens))
	sb.WriteString("\n  Completion tokens: " + util.Int64ToString(msg.Totals.CompletionTokens))
	sb.WriteString("\n  Total stream time: " + msg.Totals.TotalDuration.Round(time.Second).String())
	if msg.Totals.AvgTTFT > 0 {
		sb.WriteString("\n  Avg first token:   " + msg.Totals.AvgTTFT.Round(time.Millisecond).String())
	}

	if len(msg.ByModel) > 0 {
		sb.WriteString("\n\nBy model:")
		for _, mt := range msg.ByModel {
			sb.WriteString("\n  " + mt.Model + ": " +
				util.IntToString(mt.Requests) + " requests, " +
				util.Int64ToString(mt.CompletionTokens) + " completion tokens")
		}
	}

	sb.WriteString("\n\nThis session: " + util.IntToString(msg.SessionMessages) + " messages.")
	return sb.String()
}
