// Copyright (c) 2025 cli-gpt contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/aoyn1xw/cli-gpt/internal/catalog"
	"github.com/aoyn1xw/cli-gpt/internal/commands"
	"github.com/aoyn1xw/cli-gpt/internal/config"
	"github.com/aoyn1xw/cli-gpt/internal/model"
	"github.com/aoyn1xw/cli-gpt/internal/openrouter"
	"github.com/aoyn1xw/cli-gpt/internal/stats"
	"github.com/aoyn1xw/cli-gpt/internal/ui/components"
	"github.com/aoyn1xw/cli-gpt/internal/ui/styles"
)

// =============================================================================
// CHAT STATE
// =============================================================================

// State represents the current state of the chat view. The interface
// is a two-mode machine (normal input vs. picker modal) with streaming
// and error as sub-states of normal; transitions happen only in the
// Update handlers.
type State int

const (
	StateReady     State = iota // Normal: input is chat text or a slash command
	StateStreaming              // A completion is in flight
	StatePicker                 // Modal: the model picker consumes all input
	StateError                  // A blocking error is displayed
)

// String returns a readable state name for logs and tests.
func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateStreaming:
		return "streaming"
	case StatePicker:
		return "picker"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// webSearchTrigger is the exact assistant reply that means the model
// wanted a web search. webSearchNotice is the follow-up shown for it.
const (
	webSearchTrigger = "I need to check the web for this."
	webSearchNotice  = "Web search not implemented — free mode."
)

// =============================================================================
// TRANSCRIPT
// =============================================================================

// noticeEntry is an out-of-band line in the transcript: command
// output, degradation warnings, switch confirmations. Notices are
// display-only and never become part of the request payload.
type noticeEntry struct {
	Level commands.NoticeLevel
	Text  string
	Time  time.Time
}

// transcriptEntry is one rendered transcript item: a conversation
// message or a notice. The session owns the messages sent to the
// model; the transcript owns display order.
type transcriptEntry struct {
	msg    *model.Message
	notice *noticeEntry
}

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view.
type Model struct {
	// State
	state State

	// Styling
	theme *styles.Theme

	// Dimensions
	width  int
	height int

	// Domain
	session *model.Session
	catalog *catalog.Catalog
	client  *openrouter.Client
	ledger  *stats.Ledger

	// Slash commands
	registry *commands.Registry
	parser   *commands.Parser
	cmdCtx   *commands.Context

	// Streaming
	runner         *StreamRunner
	streamingMsgID string
	streamingStats *model.Statistics
	buffer         *StreamingBuffer
	cancelMgr      *cancelManager // Pointer to avoid copying the mutex during updates

	// Prompt-side token estimate captured at submit, for the ledger
	pendingPromptTokens int

	// UI components
	viewport  viewport.Model
	input     textinput.Model
	thinking  components.Spinner
	statusBar *components.StatusBar
	picker    *components.ModelPicker

	// Key bindings
	keyMap KeyMap

	// Transcript
	entries []transcriptEntry

	// Error state
	lastError *ErrorMsg

	// Thinking indicator
	isThinking    bool
	thinkingStart time.Time

	// Markdown rendering for finalized assistant messages
	markdown   *glamour.TermRenderer
	markdownOn bool
}

// Options configures a new chat model. Session, Catalog, Client, and
// Runner are required for a functional UI; Ledger may be nil.
type Options struct {
	Theme          *styles.Theme
	Session        *model.Session
	Catalog        *catalog.Catalog
	Client         *openrouter.Client
	Ledger         *stats.Ledger
	Runner         *StreamRunner
	Markdown       bool
	StartupNotices []string
}

// New creates a new chat model.
func New(opts Options) Model {
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme()
	}

	// Text input with prompt
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type a message or /help..."
	ti.CharLimit = 4096
	ti.PromptStyle = theme.InputPrompt
	ti.TextStyle = theme.InputText
	ti.PlaceholderStyle = theme.InputPlaceholder
	ti.Focus()

	// Transcript viewport
	vp := viewport.New(80, 20)
	vp.SetContent("")

	registry := commands.NewRegistry()

	m := Model{
		state:      StateReady,
		theme:      theme,
		session:    opts.Session,
		catalog:    opts.Catalog,
		client:     opts.Client,
		ledger:     opts.Ledger,
		registry:   registry,
		parser:     commands.NewParser(registry),
		cmdCtx:     commands.NewContext(config.Global(), opts.Catalog, opts.Session, opts.Ledger),
		runner:     opts.Runner,
		buffer:     NewStreamingBuffer(),
		cancelMgr:  &cancelManager{},
		viewport:   vp,
		input:      ti,
		thinking:   components.NewThinkingSpinner(),
		statusBar:  components.NewStatusBar(theme),
		picker:     components.NewModelPicker(theme),
		keyMap:     DefaultKeyMap(),
		markdownOn: opts.Markdown,
		markdown:   newMarkdownRenderer(76),
	}

	if opts.Catalog != nil {
		if d, ok := opts.Catalog.CurrentDescriptor(); ok {
			m.statusBar.SetModel(d.DisplayName())
		}
	}
	m.syncStatus()

	for _, text := range opts.StartupNotices {
		m.entries = append(m.entries, transcriptEntry{notice: &noticeEntry{
			Level: commands.NoticeWarn,
			Text:  text,
			Time:  time.Now(),
		}})
	}

	return m
}

// newMarkdownRenderer builds a glamour renderer wrapped at the given
// width, or nil when the terminal cannot support one.
func newMarkdownRenderer(width int) *glamour.TermRenderer {
	if width < 20 {
		width = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	return r
}

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Shutdown cancels any in-flight stream. Called by main after the
// program exits so the runner goroutine never outlives the UI.
func (m Model) Shutdown() {
	m.cancelMgr.cancelStream()
}

// =============================================================================
// UPDATE
// =============================================================================

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case StreamStartMsg:
		return m.handleStreamStart(msg)

	case StreamTokenMsg:
		return m.handleStreamToken(msg)

	case StreamTickMsg:
		return m.handleStreamTick(msg)

	case StreamCompleteMsg:
		return m.handleStreamComplete(msg)

	case StreamErrorMsg:
		return m.handleStreamError(msg)

	case CatalogResultMsg:
		return m.handleCatalogResult(msg)

	case components.ModelChosenMsg:
		return m.handleModelChosen(msg)

	case components.PickerDismissedMsg:
		m.state = StateReady
		m.input.Focus()
		return m, textinput.Blink

	case commands.NoticeMsg:
		m.appendNotice(msg.Level, msg.Text)
		m.refreshTranscript()
		return m, nil

	case commands.ShowHelpMsg:
		m.appendNotice(commands.NoticeInfo, commands.FormatHelp(m.registry)+"\n"+KeyHelpText())
		m.refreshTranscript()
		return m, nil

	case commands.OpenPickerMsg:
		return m.handleOpenPicker()

	case commands.ModelSwitchMsg:
		return m.handleModelSwitch(msg)

	case commands.ClearSessionMsg:
		return m.handleClearSession()

	case commands.ShowModelsMsg:
		m.appendNotice(commands.NoticeInfo, formatModelList(msg.Models, msg.Source, msg.Current))
		m.refreshTranscript()
		return m, nil

	case commands.StatsResultMsg:
		return m.handleStatsResult(msg)

	case ConfigReloadedMsg:
		return m.handleConfigReloaded(msg)

	case ErrorMsg:
		m.lastError = &msg
		m.state = StateError
		return m, nil

	case ErrorDismissMsg:
		m.lastError = nil
		m.state = StateReady
		m.input.Focus()
		return m, textinput.Blink

	case spinner.TickMsg:
		if m.isThinking {
			var cmd tea.Cmd
			m.thinking, cmd = m.thinking.Update(msg)
			return m, cmd
		}
		return m, nil

	default:
		// Unhandled messages feed the text input when ready and the
		// viewport always, so mouse wheel scrolling keeps working.
		var cmds []tea.Cmd
		if m.state == StateReady {
			var inputCmd tea.Cmd
			m.input, inputCmd = m.input.Update(msg)
			cmds = append(cmds, inputCmd)
		}

		var vpCmd tea.Cmd
		m.viewport, vpCmd = m.viewport.Update(msg)
		cmds = append(cmds, vpCmd)

		return m, tea.Batch(cmds...)
	}
}

// View renders the chat view.
func (m Model) View() string {
	return m.renderChat()
}

// =============================================================================
// RESIZE
// =============================================================================

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height

	// Reserved rows around the transcript viewport. Conservative
	// estimates: slightly larger than the rendered heights so the
	// viewport is never too tall. Keep in sync with view.go.
	const (
		headerHeight    = 2 // header bar with padding
		inputAreaHeight = 4 // separator + input line + char count
		statusBarHeight = 2 // status bar with padding
	)

	viewportHeight := m.height - headerHeight - inputAreaHeight - statusBarHeight
	if viewportHeight < 1 {
		viewportHeight = 1
	}
	viewportWidth := m.width
	if viewportWidth < 1 {
		viewportWidth = 1
	}
	m.viewport.Width = viewportWidth
	m.viewport.Height = viewportHeight

	// The input line is padded to width-6; subtract the "> " prompt.
	const promptLen = 2
	inputWidth := m.width - 6 - promptLen
	if inputWidth < 10 {
		inputWidth = 10
	}
	m.input.Width = inputWidth

	if m.theme != nil {
		m.theme.SetSize(m.width, m.height)
	}
	m.statusBar.SetWidth(m.width)
	m.picker.SetSize(m.width, m.height)

	// Rebuild the markdown renderer at the new wrap width.
	m.markdown = newMarkdownRenderer(m.messageWrapWidth())

	m.updateViewport()

	var vpCmd tea.Cmd
	m.viewport, vpCmd = m.viewport.Update(msg)
	return m, vpCmd
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Ctrl+C always quits, canceling any in-flight stream first so the
	// runner goroutine stops before the terminal is released.
	if key.Matches(msg, m.keyMap.Quit) {
		m.cancel()
		return m, tea.Quit
	}

	// Modal state: the picker consumes every key.
	if m.state == StatePicker {
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		return m, cmd
	}

	// Blocking error: dismiss keys only.
	if m.state == StateError {
		switch msg.String() {
		case "esc", "enter", " ":
			m.lastError = nil
			m.state = StateReady
			m.input.Focus()
			return m, textinput.Blink
		}
		return m, nil
	}

	if m.state == StateStreaming {
		if key.Matches(msg, m.keyMap.Cancel) {
			return m.cancelStreaming()
		}
		// Scrolling stays available while streaming.
		return m.handleNavigationKeys(msg)
	}

	// Ready state.
	switch msg.String() {
	case "ctrl+l":
		return m.handleClearSession()

	case "ctrl+d":
		// EOF on an empty prompt exits, as in the plain REPL.
		if strings.TrimSpace(m.input.Value()) == "" {
			m.cancel()
			return m, tea.Quit
		}

	case "enter":
		if strings.TrimSpace(m.input.Value()) != "" {
			return m.submitInput()
		}
		return m, nil

	case "up":
		m.viewport.LineUp(1)
		return m, nil

	case "down":
		m.viewport.LineDown(1)
		return m, nil

	case "pgup":
		m.viewport.HalfViewUp()
		return m, nil

	case "pgdown":
		m.viewport.HalfViewDown()
		return m, nil
	}

	// Everything else is typed into the input.
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleNavigationKeys scrolls the viewport. Used while streaming,
// when the text input is not accepting submissions.
func (m Model) handleNavigationKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up":
		m.viewport.LineUp(1)
	case "down":
		m.viewport.LineDown(1)
	case "pgup", "ctrl+u":
		m.viewport.HalfViewUp()
	case "pgdown":
		m.viewport.HalfViewDown()
	case "home":
		m.viewport.GotoTop()
	case "end":
		m.viewport.GotoBottom()
	}
	return m, nil
}

// cancelStreaming tears down the in-flight stream, keeping whatever
// partial output already arrived.
func (m Model) cancelStreaming() (tea.Model, tea.Cmd) {
	m.cancel()

	if content, ok := m.buffer.ForceFlush(); ok {
		m.session.AppendToLast(content)
	}
	m.session.FinalizeLast(m.streamingStats)
	m.appendNotice(commands.NoticeWarn, "Response cancelled; partial output kept.")

	m.state = StateReady
	m.isThinking = false
	m.thinking.Stop()
	m.streamingMsgID = ""
	m.streamingStats = nil
	m.pendingPromptTokens = 0
	m.clearCancelFunc()

	m.refreshTranscript()
	m.syncStatus()
	m.input.Focus()
	return m, textinput.Blink
}

// =============================================================================
// INPUT SUBMISSION
// =============================================================================

// submitInput routes the input line: slash commands to the dispatcher,
// anything else to the completion client as a new user message.
func (m Model) submitInput() (tea.Model, tea.Cmd) {
	content := strings.TrimSpace(m.input.Value())
	if content == "" {
		return m, nil
	}
	m.input.Reset()

	if commands.IsCommand(content) {
		return m.dispatchCommand(content)
	}
	return m.startExchange(content)
}

// dispatchCommand parses and runs a slash command. Unknown commands
// and bad arguments surface as notices; they are never sent to the
// completion client.
func (m Model) dispatchCommand(input string) (tea.Model, tea.Cmd) {
	result := m.parser.Parse(input)
	if result.Command == nil {
		m.appendNotice(commands.NoticeError, commands.UnknownCommandText(result.CommandName))
		m.refreshTranscript()
		return m, nil
	}
	if err := commands.ValidateArgs(result.Command, result.Args); err != nil {
		m.appendNotice(commands.NoticeError, err.Error())
		m.refreshTranscript()
		return m, nil
	}
	return m, result.Command.Handler(m.cmdCtx, result.Args)
}

// startExchange appends the user message and a streaming assistant
// placeholder, then launches the stream runner. The runner lives on
// its own goroutine and reports back through typed messages; this
// handler is the only place session history grows.
func (m Model) startExchange(content string) (tea.Model, tea.Cmd) {
	userMsg := m.session.AddUserMessage(content)
	m.entries = append(m.entries, transcriptEntry{msg: userMsg})

	asst := m.session.AddAssistantMessage()
	m.entries = append(m.entries, transcriptEntry{msg: asst})

	// Capture the request payload before state flips; the runner
	// goroutine must not touch the session.
	m.pendingPromptTokens = m.session.EstimateTokens()
	messages := m.session.ToChatMessages()
	m.client.SetModel(m.session.Model)

	m.state = StateStreaming
	m.isThinking = true
	m.thinkingStart = time.Now()
	m.streamingMsgID = asst.ID
	m.streamingStats = model.NewStatistics()
	m.buffer.Reset()

	ctx, cancelFn := context.WithCancel(context.Background())
	m.setCancelFunc(cancelFn)

	m.refreshTranscript()
	m.syncStatus()

	runner := m.runner
	messageID := asst.ID
	runCmd := func() tea.Msg {
		runner.Run(ctx, messages, messageID)
		return nil
	}
	return m, tea.Batch(m.thinking.Start(), runCmd)
}

// =============================================================================
// STREAM HANDLERS
// =============================================================================

func (m Model) handleStreamStart(msg StreamStartMsg) (tea.Model, tea.Cmd) {
	// A stale start means the user cancelled before the runner began.
	if msg.MessageID != m.streamingMsgID {
		return m, nil
	}

	m.state = StateStreaming
	m.isThinking = true
	m.thinkingStart = msg.StartTime
	m.buffer.Reset()
	m.syncStatus()

	// The tick loop drives batched rendering for this stream.
	return m, streamTickCmd()
}

func (m Model) handleStreamToken(msg StreamTokenMsg) (tea.Model, tea.Cmd) {
	if msg.MessageID != m.streamingMsgID {
		return m, nil
	}

	if msg.IsFirst {
		if m.streamingStats != nil {
			m.streamingStats.RecordFirstToken()
		}
		m.isThinking = false
		m.thinking.Stop()
		m.syncStatus()
	}

	// Tokens land in the buffer; the tick handler renders them.
	m.buffer.Write(msg.Token)
	return m, nil
}

// handleStreamTick drains the streaming buffer at the capped frame
// rate and reschedules itself while the stream is alive.
func (m Model) handleStreamTick(StreamTickMsg) (tea.Model, tea.Cmd) {
	if m.state != StateStreaming {
		return m, nil
	}

	if content, ok := m.buffer.Flush(); ok {
		m.session.AppendToLast(content)
		m.updateViewport()
		m.viewport.GotoBottom()
	}

	return m, streamTickCmd()
}

func (m Model) handleStreamComplete(msg StreamCompleteMsg) (tea.Model, tea.Cmd) {
	if msg.MessageID != m.streamingMsgID {
		return m, nil
	}

	if content, ok := m.buffer.ForceFlush(); ok {
		m.session.AppendToLast(content)
	}

	st := msg.Stats
	if st == nil {
		st = m.streamingStats
	}
	m.session.FinalizeLast(st)

	var cmds []tea.Cmd

	if last := m.session.GetLastMessage(); last != nil &&
		strings.TrimSpace(last.Content) == webSearchTrigger {
		m.appendNotice(commands.NoticeInfo, webSearchNotice)
	}

	// Usage bookkeeping runs inside a command so chat never waits on
	// the database. A nil ledger reports itself disabled and is skipped.
	if st != nil {
		cmds = append(cmds, recordUsageCmd(m.ledger, stats.Usage{
			Model:            m.session.Model,
			PromptTokens:     m.pendingPromptTokens,
			CompletionTokens: st.CompletionTokens,
			Duration:         st.TotalDuration,
			TTFT:             st.TTFT,
			Timestamp:        time.Now(),
		}))
	}

	m.state = StateReady
	m.isThinking = false
	m.thinking.Stop()
	m.streamingMsgID = ""
	m.streamingStats = nil
	m.pendingPromptTokens = 0
	m.clearCancelFunc()

	m.refreshTranscript()
	m.syncStatus()
	m.input.Focus()
	cmds = append(cmds, textinput.Blink)
	return m, tea.Batch(cmds...)
}

func (m Model) handleStreamError(msg StreamErrorMsg) (tea.Model, tea.Cmd) {
	// Stale errors belong to a stream the user already cancelled.
	if msg.MessageID != m.streamingMsgID {
		return m, nil
	}

	// Keep whatever partial output arrived before the failure.
	if content, ok := m.buffer.ForceFlush(); ok {
		m.session.AppendToLast(content)
	}
	m.session.FinalizeLast(m.streamingStats)

	m.isThinking = false
	m.thinking.Stop()
	m.streamingMsgID = ""
	m.streamingStats = nil
	m.pendingPromptTokens = 0
	m.clearCancelFunc()
	m.refreshTranscript()

	if errors.Is(msg.Err, context.Canceled) {
		// Cancellation is not an error worth a banner.
		m.state = StateReady
		m.syncStatus()
		m.input.Focus()
		return m, textinput.Blink
	}

	errMsg := SmartErrorMsg("Request Failed", msg.Err.Error())
	m.lastError = &errMsg
	m.state = StateError
	m.syncStatus()
	return m, nil
}

// recordUsageCmd writes one ledger row with a bounded context.
// Failures degrade to a warning notice; they never block chat.
func recordUsageCmd(ledger *stats.Ledger, usage stats.Usage) tea.Cmd {
	return func() tea.Msg {
		ctx, cancelFn := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelFn()

		err := ledger.Record(ctx, usage)
		if err != nil && !errors.Is(err, stats.ErrLedgerDisabled) {
			return commands.NoticeMsg{
				Level: commands.NoticeWarn,
				Text:  "Usage ledger write failed: " + err.Error(),
			}
		}
		return nil
	}
}

// =============================================================================
// CATALOGUE AND PICKER HANDLERS
// =============================================================================

// handleOpenPicker enters the modal state and kicks off a catalogue
// refresh so the list is current by the time the user picks.
func (m Model) handleOpenPicker() (tea.Model, tea.Cmd) {
	if m.state == StateStreaming {
		m.appendNotice(commands.NoticeWarn, "Finish or cancel the current response first.")
		m.refreshTranscript()
		return m, nil
	}

	m.state = StatePicker
	m.picker.SetModels(m.catalog.Models(), m.catalog.Current())
	m.picker.SetSize(m.width, m.height)
	m.picker.Show()
	return m, tea.Batch(m.picker.Focus(), refreshCatalogCmd(m.client))
}

func (m Model) handleModelChosen(msg components.ModelChosenMsg) (tea.Model, tea.Cmd) {
	m.state = StateReady

	if err := m.catalog.SetCurrent(msg.Model.ID); err != nil {
		m.appendNotice(commands.NoticeError, "Model not available: "+msg.Model.ID)
	} else {
		m.applyModelSelection(msg.Model)
		m.appendNotice(commands.NoticeInfo, "Switched to model: "+msg.Model.DisplayName())
	}

	m.refreshTranscript()
	m.input.Focus()
	return m, textinput.Blink
}

func (m Model) handleModelSwitch(msg commands.ModelSwitchMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.appendNotice(commands.NoticeError, "Cannot switch model: "+msg.Err.Error())
		m.refreshTranscript()
		return m, nil
	}

	m.applyModelSelection(msg.Model)
	m.appendNotice(commands.NoticeInfo, "Switched to model: "+msg.Model.DisplayName())
	m.refreshTranscript()
	return m, nil
}

// handleCatalogResult lands a catalogue refresh. The current selection
// survives when still listed; otherwise the list head takes over and
// the user is told.
func (m Model) handleCatalogResult(msg CatalogResultMsg) (tea.Model, tea.Cmd) {
	selectionChanged := m.catalog.Replace(msg.Models, msg.Source)

	if msg.Err != nil {
		m.appendNotice(commands.NoticeWarn, "Model catalogue unavailable; using bundled list.")
	}
	if selectionChanged {
		if d, ok := m.catalog.CurrentDescriptor(); ok {
			m.applyModelSelection(d)
			m.appendNotice(commands.NoticeWarn, "Previous model no longer available; now using "+d.DisplayName()+".")
		}
	}

	if m.state == StatePicker {
		m.picker.SetModels(m.catalog.Models(), m.catalog.Current())
	}

	m.refreshTranscript()
	return m, nil
}

// applyModelSelection syncs the session, client, and status bar with a
// committed catalogue selection.
func (m *Model) applyModelSelection(d catalog.ModelDescriptor) {
	m.session.SetModel(d.ID)
	if d.ContextLength > 0 {
		m.session.SetMaxTokens(d.ContextLength)
	}
	m.client.SetModel(d.ID)
	m.statusBar.SetModel(d.DisplayName())
	m.syncStatus()
}

// =============================================================================
// COMMAND RESULT HANDLERS
// =============================================================================

func (m Model) handleClearSession() (tea.Model, tea.Cmd) {
	m.session.Clear()
	m.entries = nil
	m.appendNotice(commands.NoticeInfo, "Conversation cleared.")
	m.updateViewport()
	m.viewport.GotoTop()
	m.syncStatus()
	return m, nil
}

func (m Model) handleStatsResult(msg commands.StatsResultMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		if errors.Is(msg.Err, stats.ErrLedgerDisabled) {
			m.appendNotice(commands.NoticeInfo, "Usage tracking is disabled.")
		} else {
			m.appendNotice(commands.NoticeError, "Cannot read usage ledger: "+msg.Err.Error())
		}
		m.refreshTranscript()
		return m, nil
	}

	m.appendNotice(commands.NoticeInfo, formatStatsReport(msg))
	m.refreshTranscript()
	return m, nil
}

func (m Model) handleConfigReloaded(msg ConfigReloadedMsg) (tea.Model, tea.Cmd) {
	if msg.Config == nil {
		return m, nil
	}

	// Display toggles apply live. The session's model is deliberately
	// left alone; switching mid-conversation belongs to /switch.
	m.markdownOn = msg.Config.UI.Markdown
	m.appendNotice(commands.NoticeInfo, "Configuration reloaded.")
	m.refreshTranscript()
	return m, nil
}

// =============================================================================
// TRANSCRIPT HELPERS
// =============================================================================

// appendNotice adds an out-of-band line to the transcript.
func (m *Model) appendNotice(level commands.NoticeLevel, text string) {
	m.entries = append(m.entries, transcriptEntry{notice: &noticeEntry{
		Level: level,
		Text:  text,
		Time:  time.Now(),
	}})
}

// updateViewport re-renders the transcript into the viewport.
func (m *Model) updateViewport() {
	m.viewport.SetContent(m.renderTranscript())
}

// refreshTranscript re-renders and follows the tail.
func (m *Model) refreshTranscript() {
	m.updateViewport()
	m.viewport.GotoBottom()
}

// syncStatus pushes session and state info into the status bar.
func (m *Model) syncStatus() {
	if m.session != nil {
		m.statusBar.SetTokenUsage(m.session.EstimateTokens(), m.session.MaxTokens)
	}

	switch m.state {
	case StateStreaming:
		if m.isThinking {
			m.statusBar.SetStatus(components.StatusThinking)
		} else {
			m.statusBar.SetStatus(components.StatusStreaming)
		}
	case StateError:
		m.statusBar.SetStatus(components.StatusError)
	default:
		m.statusBar.SetStatus(components.StatusReady)
	}
}
