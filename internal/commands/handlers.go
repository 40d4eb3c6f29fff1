// Copyright (c) 2025 cli-gpt contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands provides the slash command system for the chat UIs.
package commands

import (
	"context"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/aoyn1xw/cli-gpt/internal/catalog"
	"github.com/aoyn1xw/cli-gpt/internal/stats"
	"github.com/aoyn1xw/cli-gpt/internal/util"
)

// statsQueryTimeout bounds the ledger read behind /stats.
const statsQueryTimeout = 5 * time.Second

// =============================================================================
// MESSAGE TYPES
// =============================================================================

// These messages are sent by command handlers to update the application
// state. Both the full-screen UI and the plain REPL consume them.

// NoticeLevel classifies a notice line.
type NoticeLevel int

const (
	NoticeInfo NoticeLevel = iota
	NoticeWarn
	NoticeError
)

// NoticeMsg carries an informational line for the transcript. Notices
// never enter the session history.
type NoticeMsg struct {
	Level NoticeLevel
	Text  string
}

// ShowHelpMsg triggers the help display.
type ShowHelpMsg struct{}

// OpenPickerMsg opens the model picker modal. In plain mode it prints
// the numbered catalogue instead.
type OpenPickerMsg struct{}

// ModelSwitchMsg reports the outcome of /switch <name>. On success the
// catalogue selection has already moved; the receiver syncs the
// session and client. On failure nothing changed.
type ModelSwitchMsg struct {
	Input string
	Model catalog.ModelDescriptor
	Err   error
}

// ClearSessionMsg clears history except the pinned system prompt.
type ClearSessionMsg struct{}

// ShowModelsMsg carries the catalogue snapshot for /list.
type ShowModelsMsg struct {
	Models  []catalog.ModelDescriptor
	Source  string
	Current string
}

// StatsResultMsg carries the ledger aggregates for /stats.
type StatsResultMsg struct {
	Totals          stats.Totals
	ByModel         []stats.ModelTotals
	SessionMessages int
	Err             error
}

// NoticeCmd wraps a notice line as a command.
func NoticeCmd(level NoticeLevel, text string) tea.Cmd {
	return func() tea.Msg {
		return NoticeMsg{Level: level, Text: text}
	}
}

// UnknownCommandText is the notice shown for unrecognized slash input.
func UnknownCommandText(name string) string {
	return "Unknown command: " + name + ". Type /help for available commands."
}

// =============================================================================
// HANDLER IMPLEMENTATIONS
// =============================================================================

// HandleHelp shows the command list.
func HandleHelp(ctx *Context, args []string) tea.Cmd {
	return func() tea.Msg {
		return ShowHelpMsg{}
	}
}

// HandleQuit exits the application.
func HandleQuit(ctx *Context, args []string) tea.Cmd {
	return tea.Quit
}

// HandleNew starts a fresh conversation.
func HandleNew(ctx *Context, args []string) tea.Cmd {
	return func() tea.Msg {
		return ClearSessionMsg{}
	}
}

// HandleSwitch switches the model, or opens the picker when called
// with no argument. Resolution and selection happen here, on the
// update loop's goroutine; the emitted message reports the outcome.
func HandleSwitch(ctx *Context, args []string) tea.Cmd {
	if len(args) == 0 {
		return func() tea.Msg {
			return OpenPickerMsg{}
		}
	}

	input := strings.Join(args, " ")
	if ctx == nil || ctx.Catalog == nil {
		return NoticeCmd(NoticeError, "Model catalogue not available.")
	}

	m, err := ctx.Catalog.ResolveAndSelect(input)
	return func() tea.Msg {
		return ModelSwitchMsg{Input: input, Model: m, Err: err}
	}
}

// HandleList shows the current catalogue.
func HandleList(ctx *Context, args []string) tea.Cmd {
	if ctx == nil || ctx.Catalog == nil {
		return NoticeCmd(NoticeError, "Model catalogue not available.")
	}

	models := ctx.Catalog.Models()
	source := ctx.Catalog.Source()
	current := ctx.Catalog.Current()
	return func() tea.Msg {
		return ShowModelsMsg{Models: models, Source: source, Current: current}
	}
}

// HandleStats reads the usage ledger. The query runs inside the
// returned command so chat never waits on the database; the ledger is
// mutex-guarded and a nil ledger reports tracking as disabled.
func HandleStats(ctx *Context, args []string) tea.Cmd {
	var ledger *stats.Ledger
	sessionMessages := 0
	if ctx != nil {
		ledger = ctx.Ledger
		if ctx.Session != nil {
			sessionMessages = ctx.Session.MessageCount()
		}
	}

	return func() tea.Msg {
		queryCtx, cancel := context.WithTimeout(context.Background(), statsQueryTimeout)
		defer cancel()

		totals, err := ledger.Totals(queryCtx)
		if err != nil {
			return StatsResultMsg{SessionMessages: sessionMessages, Err: err}
		}
		byModel, err := ledger.ByModel(queryCtx)
		if err != nil {
			return StatsResultMsg{SessionMessages: sessionMessages, Err: err}
		}
		return StatsResultMsg{
			Totals:          totals,
			ByModel:         byModel,
			SessionMessages: sessionMessages,
		}
	}
}

// =============================================================================
// HELP RENDERING
// =============================================================================

// helpCategories fixes the display order of command groups.
var helpCategories = []string{"Conversation", "Model", "Navigation"}

// FormatHelp renders the command list shown by /help in both UIs.
func FormatHelp(r *Registry) string {
	byCategory := r.ByCategory()

	var b strings.Builder
	b.WriteString("Available commands:\n")
	for _, category := range helpCategories {
		cmds := byCategory[category]
		if len(cmds) == 0 {
			continue
		}
		sort.Slice(cmds, func(i, j int) bool { return cmds[i].Name < cmds[j].Name })

		b.WriteString("\n" + category + "\n")
		for _, cmd := range cmds {
			left := cmd.Name
			if cmd.Usage != "" {
				left = cmd.Usage
			}
			line := "  " + util.PadRight(left, 18) + cmd.Description
			if len(cmd.Aliases) > 0 {
				line += " (aliases: " + strings.Join(cmd.Aliases, ", ") + ")"
			}
			b.WriteString(line + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
