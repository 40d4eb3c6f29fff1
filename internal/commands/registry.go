// Copyright (c) 2025 cli-gpt contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands provides the slash command system for the chat UIs.
package commands

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/aoyn1xw/cli-gpt/internal/catalog"
	"github.com/aoyn1xw/cli-gpt/internal/config"
	"github.com/aoyn1xw/cli-gpt/internal/model"
	"github.com/aoyn1xw/cli-gpt/internal/stats"
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// Command represents a slash command that can be executed.
type Command struct {
	// Name is the primary command name (e.g., "/help")
	Name string

	// Aliases are alternative names (e.g., "/h", "/?")
	Aliases []string

	// Description is shown in help
	Description string

	// Usage shows argument syntax (e.g., "/switch [model]")
	Usage string

	// Args defines the expected arguments
	Args []ArgDef

	// Handler is the function that executes the command
	Handler func(ctx *Context, args []string) tea.Cmd

	// Category for grouping in help display
	Category string
}

// ArgDef defines an argument for a command.
type ArgDef struct {
	// Name of the argument
	Name string

	// Required indicates if the argument must be provided
	Required bool

	// Type determines validation behavior
	Type ArgType

	// Description explains the argument
	Description string

	// Values for enum types
	Values []string
}

// ArgType indicates what kind of argument is expected.
type ArgType int

const (
	ArgTypeString ArgType = iota // Free-form string
	ArgTypeModel                 // Model name from the catalogue
	ArgTypeEnum                  // One of predefined values
)

// =============================================================================
// COMMAND REGISTRY
// =============================================================================

// Registry holds all registered commands.
type Registry struct {
	commands map[string]*Command
	aliases  map[string]*Command
}

// NewRegistry creates a new command registry with all built-in commands.
func NewRegistry() *Registry {
	r := &Registry{
		commands: make(map[string]*Command),
		aliases:  make(map[string]*Command),
	}
	r.registerBuiltins()
	return r
}

// Register adds a command to the registry.
func (r *Registry) Register(cmd *Command) {
	r.commands[cmd.Name] = cmd
	for _, alias := range cmd.Aliases {
		r.aliases[alias] = cmd
	}
}

// Get retrieves a command by name or alias.
func (r *Registry) Get(name string) *Command {
	if cmd, ok := r.commands[name]; ok {
		return cmd
	}
	if cmd, ok := r.aliases[name]; ok {
		return cmd
	}
	return nil
}

// All returns all registered commands.
func (r *Registry) All() []*Command {
	cmds := make([]*Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		cmds = append(cmds, cmd)
	}
	return cmds
}

// ByCategory returns commands grouped by category.
func (r *Registry) ByCategory() map[string][]*Command {
	result := make(map[string][]*Command)
	for _, cmd := range r.commands {
		category := cmd.Category
		if category == "" {
			category = "General"
		}
		result[category] = append(result[category], cmd)
	}
	return result
}

// =============================================================================
// BUILT-IN COMMANDS
// =============================================================================

func (r *Registry) registerBuiltins() {
	// Navigation commands
	r.Register(&Command{
		Name:        "/help",
		Aliases:     []string{"/h", "/?"},
		Description: "Show help and available commands",
		Category:    "Navigation",
		Handler:     HandleHelp,
	})

	r.Register(&Command{
		Name:        "/quit",
		Aliases:     []string{"/exit", "/q"},
		Description: "Exit cli-gpt",
		Category:    "Navigation",
		Handler:     HandleQuit,
	})

	r.Register(&Command{
		Name:        "/stats",
		Description: "Show aggregate usage statistics",
		Category:    "Navigation",
		Handler:     HandleStats,
	})

	// Conversation commands
	r.Register(&Command{
		Name:        "/new",
		Aliases:     []string{"/clear", "/n"},
		Description: "Start a fresh conversation",
		Category:    "Conversation",
		Handler:     HandleNew,
	})

	// Model commands
	r.Register(&Command{
		Name:        "/switch",
		Aliases:     []string{"/model", "/m"},
		Description: "Switch models or open the picker",
		Usage:       "/switch [model]",
		Args: []ArgDef{
			{Name: "model", Required: false, Type: ArgTypeModel, Description: "Model ID or unambiguous name prefix"},
		},
		Category: "Model",
		Handler:  HandleSwitch,
	})

	r.Register(&Command{
		Name:        "/list",
		Aliases:     []string{"/models"},
		Description: "List the current model catalogue",
		Category:    "Model",
		Handler:     HandleList,
	})
}

// =============================================================================
// CONTEXT TYPE
// =============================================================================

// Context provides access to application state for command handlers.
// Handlers run on the update loop's goroutine, so touching the
// catalogue or session here is safe; work returned inside a tea.Cmd
// runs concurrently and must only use goroutine-safe state.
//
// All fields are optional and may be nil; handlers check before use.
type Context struct {
	// Config provides access to application configuration
	Config *config.Config

	// Catalog holds the free-model catalogue and current selection
	Catalog *catalog.Catalog

	// Session is the active conversation
	Session *model.Session

	// Ledger records per-request usage (nil when disabled)
	Ledger *stats.Ledger
}

// NewContext creates a new command context with the given dependencies.
// All parameters are optional and can be nil.
func NewContext(cfg *config.Config, cat *catalog.Catalog, sess *model.Session, ledger *stats.Ledger) *Context {
	return &Context{
		Config:  cfg,
		Catalog: cat,
		Session: sess,
		Ledger:  ledger,
	}
}
