// Copyright (c) 2025 cli-gpt contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - the plain-mode chat REPL.
//
// Used with --plain or when the terminal cannot host the full-screen
// UI. Provides the same conversation semantics as the TUI: the same
// slash commands, the same session rules, the same streaming client.
//
// Interactive behavior:
//   Ctrl+C at the prompt     cancel input, keep the session
//   Ctrl+C during a stream   cancel the request, keep partial output
//   Ctrl+D                   exit cleanly
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/peterh/liner"

	"github.com/aoyn1xw/cli-gpt/internal/catalog"
	"github.com/aoyn1xw/cli-gpt/internal/commands"
	"github.com/aoyn1xw/cli-gpt/internal/config"
	"github.com/aoyn1xw/cli-gpt/internal/model"
	"github.com/aoyn1xw/cli-gpt/internal/openrouter"
	"github.com/aoyn1xw/cli-gpt/internal/stats"
	"github.com/aoyn1xw/cli-gpt/internal/ui/styles"
	"github.com/aoyn1xw/cli-gpt/internal/util"
)

// webSearchTrigger is the exact assistant reply that means the model
// wanted a web search. webSearchNotice is the follow-up shown for it.
const (
	webSearchTrigger = "I need to check the web for this."
	webSearchNotice  = "Web search not implemented — free mode."
)

// ledgerWriteTimeout bounds the usage record after each exchange.
const ledgerWriteTimeout = 5 * time.Second

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI provides input history and line editing for the REPL.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a ChatCLI with history loaded from the config
// directory.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	historyFile, err := config.HistoryPath()
	if err != nil {
		historyFile = ""
	}

	cli := &ChatCLI{
		line:        line,
		historyFile: historyFile,
	}
	cli.LoadHistory()
	return cli
}

// LoadHistory loads input history from file.
func (c *ChatCLI) LoadHistory() {
	if c.historyFile == "" {
		return
	}
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads a line with the given prompt. Non-empty input is
// added to history.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory persists input history with owner-only permissions.
func (c *ChatCLI) SaveHistory() {
	if c.historyFile == "" {
		return
	}
	if _, err := config.EnsureConfigDir(); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	c.line.WriteHistory(f)
}

// Close saves history and releases the terminal.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// =============================================================================
// PLAIN SESSION
// =============================================================================

// PlainOptions configures the plain-mode REPL.
type PlainOptions struct {
	Config         *config.Config
	Client         *openrouter.Client
	Catalog        *catalog.Catalog
	Session        *model.Session
	Ledger         *stats.Ledger // may be nil
	StartupNotices []string
}

// plainSession holds the running REPL state.
type plainSession struct {
	cfg     *config.Config
	client  *openrouter.Client
	catalog *catalog.Catalog
	session *model.Session
	ledger  *stats.Ledger

	registry *commands.Registry
	parser   *commands.Parser
	cmdCtx   *commands.Context

	input    *ChatCLI
	markdown *glamour.TermRenderer

	// Cancel function for the in-flight stream, cleared when it ends.
	// The signal handler goroutine reads it, so it is mutex-guarded.
	cancelMu   sync.Mutex
	cancelFunc context.CancelFunc
}

// RunPlain runs the line-based chat REPL until /quit or EOF.
func RunPlain(opts PlainOptions) error {
	registry := commands.NewRegistry()

	s := &plainSession{
		cfg:      opts.Config,
		client:   opts.Client,
		catalog:  opts.Catalog,
		session:  opts.Session,
		ledger:   opts.Ledger,
		registry: registry,
		parser:   commands.NewParser(registry),
		cmdCtx:   commands.NewContext(opts.Config, opts.Catalog, opts.Session, opts.Ledger),
		input:    NewChatCLI(),
	}
	defer s.input.Close()

	if opts.Config.UI.Markdown && IsStdoutTTY() && ColorsEnabled() {
		s.markdown = newPlainMarkdownRenderer()
	}

	s.printWelcome()
	for _, notice := range opts.StartupNotices {
		fmt.Println(RenderConditional(warningStyle, notice))
	}

	// Ctrl+C during a stream cancels the request; liner handles ^C at
	// the prompt itself.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		for range sigChan {
			s.cancelStream()
		}
	}()

	for {
		input, err := s.input.ReadInput(RenderConditional(promptStyle, "you> "))
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				fmt.Println(RenderConditional(infoStyle, "Input cancelled. Type /quit to exit."))
				continue
			}
			// EOF (Ctrl+D) or a closed terminal: exit cleanly.
			fmt.Println()
			fmt.Println(RenderConditional(infoStyle, "Goodbye!"))
			return nil
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			if quit := s.dispatchCommand(input); quit {
				fmt.Println(RenderConditional(infoStyle, "Goodbye!"))
				return nil
			}
			continue
		}

		if err := s.streamExchange(input); err != nil {
			PrintError("%v", err)
		}
	}
}

// cancelStream cancels the in-flight completion, if any.
func (s *plainSession) cancelStream() {
	s.cancelMu.Lock()
	cancel := s.cancelFunc
	s.cancelFunc = nil
	s.cancelMu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// setCancel records the active stream's cancel function.
func (s *plainSession) setCancel(cancel context.CancelFunc) {
	s.cancelMu.Lock()
	s.cancelFunc = cancel
	s.cancelMu.Unlock()
}

// newPlainMarkdownRenderer builds the glamour renderer for completed
// responses, or nil when the terminal cannot support one.
func newPlainMarkdownRenderer() *glamour.TermRenderer {
	width := GetTerminalWidth()
	if width > 100 {
		width = 100
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width-2),
	)
	if err != nil {
		return nil
	}
	return r
}

// =============================================================================
// COMMAND DISPATCH
// =============================================================================

// dispatchCommand runs a slash command and applies its result.
// Returns true when the REPL should exit.
func (s *plainSession) dispatchCommand(input string) (quit bool) {
	result := s.parser.Parse(input)
	if result.Command == nil {
		fmt.Println(RenderConditional(warningStyle, commands.UnknownCommandText(result.CommandName)))
		return false
	}

	cmd := result.Command.Handler(s.cmdCtx, result.Args)
	if cmd == nil {
		return false
	}
	return s.applyCommandMsg(cmd())
}

// applyCommandMsg renders a command result message. The handlers are
// shared with the TUI; plain mode executes the returned tea.Cmd
// synchronously and prints instead of re-rendering a view.
func (s *plainSession) applyCommandMsg(msg tea.Msg) (quit bool) {
	switch msg := msg.(type) {
	case tea.QuitMsg:
		s.cancelStream()
		return true

	case commands.ShowHelpMsg:
		fmt.Println(commands.FormatHelp(s.registry))

	case commands.NoticeMsg:
		s.printNotice(msg.Level, msg.Text)

	case commands.OpenPickerMsg:
		// No modal in plain mode: refresh and print the catalogue
		// with a usage hint instead.
		s.refreshCatalog()
		fmt.Println("Available models:")
		PrintModelList(s.catalog.Models(), s.catalog.Current())
		fmt.Println(RenderConditional(infoStyle, "Usage: /switch <name>"))

	case commands.ModelSwitchMsg:
		if msg.Err != nil {
			s.printNotice(commands.NoticeError, msg.Err.Error())
			return false
		}
		s.applyModelSelection(msg.Model)
		fmt.Printf("%s Switched to model: %s\n",
			RenderConditional(commandStyle, "[OK]"),
			msg.Model.ID)

	case commands.ClearSessionMsg:
		s.session.Clear()
		fmt.Println(RenderConditional(commandStyle, "[Conversation cleared]"))

	case commands.ShowModelsMsg:
		fmt.Printf("Available models (source: %s):\n", msg.Source)
		PrintModelList(msg.Models, msg.Current)

	case commands.StatsResultMsg:
		s.printStats(msg)
	}
	return false
}

// refreshCatalog re-fetches the model list, degrading to the bundled
// list on failure.
func (s *plainSession) refreshCatalog() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout())
	defer cancel()

	models, source, err := catalog.FetchModels(ctx, catalog.DefaultChain(s.client))
	if err != nil {
		s.printNotice(commands.NoticeWarn,
			"Model catalogue unavailable; using the "+source+" list.")
	}
	if changed := s.catalog.Replace(models, source); changed {
		s.printNotice(commands.NoticeWarn,
			"Previous model is no longer listed; switched to "+s.catalog.Current()+".")
		s.applyModelSelectionByID(s.catalog.Current())
	}
}

// applyModelSelection points the session and client at the chosen model.
func (s *plainSession) applyModelSelection(d catalog.ModelDescriptor) {
	s.session.SetModel(d.ID)
	s.client.SetModel(d.ID)
	if d.ContextLength > 0 {
		s.session.SetMaxTokens(d.ContextLength)
	}
}

// applyModelSelectionByID is applyModelSelection for a bare ID.
func (s *plainSession) applyModelSelectionByID(id string) {
	if d, ok := s.catalog.CurrentDescriptor(); ok && d.ID == id {
		s.applyModelSelection(d)
		return
	}
	s.session.SetModel(id)
	s.client.SetModel(id)
}

// printNotice renders one notice line with level styling.
func (s *plainSession) printNotice(level commands.NoticeLevel, text string) {
	switch level {
	case commands.NoticeError:
		fmt.Println(RenderConditional(errorStyle, text))
	case commands.NoticeWarn:
		fmt.Println(RenderConditional(warningStyle, text))
	default:
		fmt.Println(RenderConditional(infoStyle, text))
	}
}

// printStats renders the /stats aggregates.
func (s *plainSession) printStats(msg commands.StatsResultMsg) {
	if msg.Err != nil {
		if errors.Is(msg.Err, stats.ErrLedgerDisabled) {
			fmt.Println(RenderConditional(infoStyle, "Usage tracking is disabled."))
		} else {
			s.printNotice(commands.NoticeWarn, "Usage statistics unavailable: "+msg.Err.Error())
		}
		return
	}

	fmt.Println()
	fmt.Println(RenderConditional(welcomeStyle, "Usage statistics"))
	fmt.Println(RenderSeparator(20))
	fmt.Printf("  %s %s\n",
		RenderConditional(infoStyle, "Requests:"),
		util.IntToString(msg.Totals.Requests))
	fmt.Printf("  %s %s prompt / %s completion\n",
		RenderConditional(infoStyle, "Tokens:"),
		util.Int64ToString(msg.Totals.PromptTokens),
		util.Int64ToString(msg.Totals.CompletionTokens))
	fmt.Printf("  %s %s\n",
		RenderConditional(infoStyle, "Avg TTFT:"),
		util.Int64ToString(msg.Totals.AvgTTFT.Milliseconds())+"ms")
	fmt.Printf("  %s %s\n",
		RenderConditional(infoStyle, "This session:"),
		util.IntToString(msg.SessionMessages)+" messages")

	if len(msg.ByModel) > 0 {
		fmt.Println()
		fmt.Println(RenderConditional(infoStyle, "  By model:"))
		for _, m := range msg.ByModel {
			fmt.Printf("    %s  %s requests, %s tokens\n",
				m.Model,
				util.IntToString(m.Requests),
				util.Int64ToString(m.CompletionTokens))
		}
	}
	fmt.Println()
}

// =============================================================================
// STREAMING EXCHANGE
// =============================================================================

// streamExchange sends one user message and streams the reply.
func (s *plainSession) streamExchange(input string) error {
	s.session.AddUserMessage(input)
	assistant := s.session.AddAssistantMessage()
	promptTokens := s.session.EstimateTokens()

	ctx, cancel := context.WithCancel(context.Background())
	s.setCancel(cancel)
	defer func() {
		s.setCancel(nil)
		cancel()
	}()

	// Render at the end when markdown is on; stream raw otherwise.
	renderAtEnd := s.markdown != nil

	spinner := startSpinner("AI is thinking...")
	firstToken := true

	fmt.Println()
	streamStats, err := s.client.ChatStreamWithStats(ctx, s.session.ToChatMessages(), func(chunk openrouter.StreamChunk) {
		content := chunk.GetContent()
		if content == "" {
			return
		}
		if firstToken {
			firstToken = false
			spinner.Stop()
		}
		s.session.AppendToLast(content)
		if !renderAtEnd {
			fmt.Print(content)
		}
	})
	spinner.Stop()

	modelStats := model.NewStatistics()
	modelStats.StartTime = time.Now().Add(-streamStats.TotalTime)
	if streamStats.FirstTokenTime > 0 {
		modelStats.FirstTokenTime = modelStats.StartTime.Add(streamStats.FirstTokenTime)
		modelStats.TTFT = streamStats.FirstTokenTime
	}
	modelStats.PromptTokens = promptTokens
	modelStats.Finalize(streamStats.TokenCount)
	s.session.FinalizeLast(modelStats)

	content := assistant.Content

	if err != nil {
		// Keep whatever streamed; surface the failure; never retry.
		if !renderAtEnd && content != "" {
			fmt.Println()
		}
		if errors.Is(err, context.Canceled) {
			if renderAtEnd && content != "" {
				s.displayResponse(content)
			}
			fmt.Println(RenderConditional(warningStyle, "[Cancelled]"))
			return nil
		}
		var streamErr *openrouter.StreamError
		if errors.As(err, &streamErr) {
			if renderAtEnd && streamErr.Partial != "" {
				s.displayResponse(streamErr.Partial)
			}
			return fmt.Errorf("stream interrupted: %w", streamErr.Err)
		}
		return err
	}

	if renderAtEnd {
		s.displayResponse(content)
	} else {
		fmt.Println()
	}
	fmt.Println()

	if strings.TrimSpace(content) == webSearchTrigger {
		fmt.Println(RenderConditional(infoStyle, webSearchNotice))
		fmt.Println()
	}

	s.recordUsage(modelStats)
	return nil
}

// displayResponse renders a completed response through glamour,
// falling back to raw text when rendering fails.
func (s *plainSession) displayResponse(content string) {
	if s.markdown != nil {
		if rendered, err := s.markdown.Render(content); err == nil {
			fmt.Print(rendered)
			return
		}
	}
	fmt.Println(content)
}

// recordUsage writes one ledger row. Failures warn and never block
// the conversation.
func (s *plainSession) recordUsage(st *model.Statistics) {
	if s.ledger == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), ledgerWriteTimeout)
	defer cancel()

	err := s.ledger.Record(ctx, stats.Usage{
		Model:            s.session.Model,
		PromptTokens:     st.PromptTokens,
		CompletionTokens: st.CompletionTokens,
		Duration:         st.TotalDuration,
		TTFT:             st.TTFT,
		Timestamp:        time.Now(),
	})
	if err != nil {
		PrintWarning("usage record failed: %v", err)
	}
}

// =============================================================================
// SPINNER
// =============================================================================

// plainSpinner animates a single-line wait indicator on stderr.
type plainSpinner struct {
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// startSpinner starts the indicator. On a non-TTY stderr it does
// nothing, so piped output stays clean.
func startSpinner(message string) *plainSpinner {
	s := &plainSpinner{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}

	if !IsStderrTTY() {
		close(s.done)
		return s
	}

	go func() {
		defer close(s.done)
		start := time.Now()
		ticker := time.NewTicker(styles.DotsSpinner.Duration())
		defer ticker.Stop()
		for {
			select {
			case <-s.stop:
				// Clear the indicator line.
				fmt.Fprint(os.Stderr, "\r\033[K")
				return
			case <-ticker.C:
				frame := styles.DotsSpinner.Frame(time.Since(start))
				fmt.Fprintf(os.Stderr, "\r%s %s",
					RenderConditional(infoStyle, message), frame)
			}
		}
	}()
	return s
}

// Stop clears the indicator. Safe to call more than once.
func (s *plainSpinner) Stop() {
	s.once.Do(func() { close(s.stop) })
	<-s.done
}

// =============================================================================
// WELCOME
// =============================================================================

// printWelcome prints the session banner.
func (s *plainSession) printWelcome() {
	fmt.Println()
	fmt.Println(RenderConditional(welcomeStyle, "cli-gpt"))
	fmt.Println(RenderSeparator())
	fmt.Printf("%s %s\n",
		RenderConditional(infoStyle, "Model:"),
		RenderConditional(commandStyle, s.session.Model))
	fmt.Println()
	fmt.Println(RenderConditional(infoStyle, "Type your message and press Enter. Commands: /help, /quit"))
	fmt.Println()
}
