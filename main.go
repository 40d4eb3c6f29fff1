// cli-gpt - terminal chat for OpenRouter free-tier models.
//
// Copyright (c) 2025 cli-gpt contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/aoyn1xw/cli-gpt/internal/catalog"
	"github.com/aoyn1xw/cli-gpt/internal/cli"
	"github.com/aoyn1xw/cli-gpt/internal/config"
	"github.com/aoyn1xw/cli-gpt/internal/model"
	"github.com/aoyn1xw/cli-gpt/internal/openrouter"
	"github.com/aoyn1xw/cli-gpt/internal/stats"
	"github.com/aoyn1xw/cli-gpt/internal/ui/chat"
	"github.com/aoyn1xw/cli-gpt/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	os.Exit(run())
}

// run executes the startup sequence and returns the process exit code.
func run() int {
	cmd, args, err := cli.Parse()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cli-gpt: %v\n", err)
		fmt.Fprintln(os.Stderr, "Run 'cli-gpt --help' for usage.")
		return cli.ExitUsage
	}

	switch cmd {
	case cli.CmdVersion:
		cli.PrintVersion()
		return cli.ExitOK
	case cli.CmdHelp:
		cli.PrintUsage()
		return cli.ExitOK
	}

	// Config precedence: flags > environment > file > defaults.
	// Global() already applied the file and environment layers.
	cfg := config.Global()
	applyFlagOverrides(cfg, args)
	config.SetGlobal(cfg)

	client := openrouter.NewClient(cfg.API.Key).
		WithChatURL(cfg.API.ChatURL).
		WithModelsURL(cfg.API.ModelsURL).
		WithTimeout(cfg.Timeout()).
		WithAppTitle(cfg.API.AppTitle).
		WithAppReferer(cfg.API.AppReferer)

	// The catalogue endpoint needs no credentials and falls back to
	// the bundled list, so --list-models works without a key.
	if cmd == cli.CmdListModels {
		return cli.HandleListModels(cfg, client)
	}

	if cfg.API.Key == "" {
		cli.PrintFatal("No OpenRouter API key configured.",
			"Set OPENROUTER_API_KEY in your environment,",
			"or pass --api-key <value>.",
			"Create a key at https://openrouter.ai/keys")
		return cli.ExitFatal
	}

	// Build the catalogue: remote listing first, bundled list as the
	// safety net. Total failure is a degradation, not an error.
	var notices []string
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout())
	models, source, fetchErr := catalog.FetchModels(ctx, catalog.DefaultChain(client))
	cancel()
	if fetchErr != nil {
		notices = append(notices,
			"Model catalogue unavailable; using the bundled list.")
	}

	cat := catalog.New()
	cat.Replace(models, source)

	// Resolve the requested startup model. No match is a fatal
	// configuration error, never a silent default.
	startModel := args.Model
	if startModel == "" {
		startModel = cfg.UI.Model
	}
	if startModel != "" {
		if _, err := cat.ResolveAndSelect(startModel); err != nil {
			cli.PrintFatal(err.Error(),
				"Run 'cli-gpt --list-models' to see available models.")
			return cli.ExitFatal
		}
	}
	client.SetModel(cat.Current())

	// Usage ledger. Failure degrades to a notice; chat never depends
	// on it.
	var ledger *stats.Ledger
	if cfg.Stats.Enabled {
		path, err := cfg.StatsDBPath()
		if err == nil {
			ledger, err = stats.Open(path)
		}
		if err != nil {
			notices = append(notices, "Usage tracking unavailable: "+err.Error())
			ledger = nil
		}
	}
	defer ledger.Close()

	sess := model.NewSession(cat.Current())
	sess.Timeout = cfg.Timeout()
	if d, ok := cat.CurrentDescriptor(); ok && d.ContextLength > 0 {
		sess.SetMaxTokens(d.ContextLength)
	}

	if cfg.UI.Plain || !cli.IsInteractive() {
		if err := cli.RunPlain(cli.PlainOptions{
			Config:         cfg,
			Client:         client,
			Catalog:        cat,
			Session:        sess,
			Ledger:         ledger,
			StartupNotices: notices,
		}); err != nil {
			cli.PrintError("%v", err)
			return cli.ExitFatal
		}
		return cli.ExitOK
	}

	return runTUI(cfg, client, cat, sess, ledger, notices)
}

// applyFlagOverrides layers parsed flags on top of the configuration.
func applyFlagOverrides(cfg *config.Config, args cli.Args) {
	if args.APIKey != "" {
		cfg.API.Key = args.APIKey
	}
	if args.TimeoutSeconds > 0 {
		cfg.API.TimeoutSeconds = args.TimeoutSeconds
	}
	if args.Plain {
		cfg.UI.Plain = true
	}
	if args.FullscreenSet {
		cfg.UI.Fullscreen = args.Fullscreen
	}
}

// runTUI starts the full-screen chat interface.
func runTUI(cfg *config.Config, client *openrouter.Client, cat *catalog.Catalog,
	sess *model.Session, ledger *stats.Ledger, notices []string) int {

	theme := styles.NewTheme()
	runner := chat.NewStreamRunner(client)

	m := chat.New(chat.Options{
		Theme:          theme,
		Session:        sess,
		Catalog:        cat,
		Client:         client,
		Ledger:         ledger,
		Runner:         runner,
		Markdown:       cfg.UI.Markdown,
		StartupNotices: notices,
	})

	opts := []tea.ProgramOption{tea.WithMouseCellMotion()}
	if cfg.UI.Fullscreen {
		opts = append(opts, tea.WithAltScreen())
	}
	p := tea.NewProgram(m, opts...)
	runner.SetProgram(p)

	// Live-reload display toggles when the config file changes.
	if watcher, err := config.NewWatcher(func(c *config.Config) {
		p.Send(chat.ConfigReloadedMsg{Config: c})
	}); err == nil {
		if werr := watcher.Watch(); werr == nil {
			defer watcher.Close()
		}
	}

	finalModel, err := p.Run()

	// The update loop cannot intercept tea.QuitMsg, so the in-flight
	// stream is cancelled here, after the terminal is restored.
	if fm, ok := finalModel.(chat.Model); ok {
		fm.Shutdown()
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running cli-gpt: %v\n", err)
		return cli.ExitFatal
	}
	return cli.ExitOK
}
