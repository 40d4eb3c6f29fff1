// Copyright (c) 2025 cli-gpt contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - flag parsing and usage text for cli-gpt.
package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents what the process should do after flag parsing.
type Command int

const (
	CmdChat       Command = iota // Default: start the chat UI
	CmdListModels                // Print the catalogue and exit
	CmdVersion                   // Print version information and exit
	CmdHelp                      // Print usage and exit
)

// Args holds parsed CLI arguments. Boolean display toggles carry a
// Set flag so absent flags do not override the config file.
type Args struct {
	Model          string
	APIKey         string
	TimeoutSeconds int // 0 means not given

	Plain         bool
	Fullscreen    bool
	FullscreenSet bool
}

const usageText = `cli-gpt %s - terminal chat for OpenRouter free-tier models

Streams completions from OpenRouter's free models into a full-screen
terminal UI, or a plain line-based REPL when the terminal cannot
support one.

Usage:
  cli-gpt [flags]

Flags:
  --model <name>       Start with a specific model (ID or unambiguous prefix)
  --list-models        Print the model catalogue and exit
  --plain              Line-based output instead of the full-screen UI
  --timeout <seconds>  Request timeout in seconds (default 45)
  --api-key <value>    OpenRouter API key (overrides OPENROUTER_API_KEY)
  --fullscreen         Use the alternate screen buffer (default)
  --no-fullscreen      Render inline instead of the alternate screen
  --version            Print version information and exit
  -h, --help           Show this help

Environment:
  OPENROUTER_API_KEY     API key (required unless --api-key is given)
  OPENROUTER_API_URL     Chat completions endpoint override
  OPENROUTER_MODELS_URL  Model catalogue endpoint override
  CLI_GPT_APP_TITLE      X-Title attribution header
  CLI_GPT_APP_REFERER    HTTP-Referer attribution header

Interactive commands:
  /help /switch [model] /list /new /stats /quit
`

// PrintUsage prints the usage text to stdout.
func PrintUsage() {
	fmt.Printf(usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion() {
	fmt.Printf("cli-gpt version %s\n", Version)
	fmt.Printf("  Git commit: %s\n", GitCommit)
	fmt.Printf("  Build date: %s\n", BuildDate)
}

// Parse parses os.Args and returns the command to run. A non-nil
// error is a usage error; the caller prints it and exits 2.
func Parse() (Command, Args, error) {
	return parseArgs(os.Args[1:])
}

// parseArgs parses a raw argument list. Split out from Parse so tests
// can feed it argument vectors directly.
func parseArgs(argv []string) (Command, Args, error) {
	cmd := CmdChat
	var args Args

	// flagValue pulls the value for a flag that requires one, either
	// from the =value suffix or from the next argument.
	flagValue := func(arg, inline string, i *int) (string, error) {
		if inline != "" {
			return inline, nil
		}
		if *i+1 < len(argv) {
			*i++
			return argv[*i], nil
		}
		return "", fmt.Errorf("flag %s requires a value", arg)
	}

	for i := 0; i < len(argv); i++ {
		arg := argv[i]

		// Split --flag=value into name and inline value.
		name, inline := arg, ""
		if idx := strings.Index(arg, "="); idx >= 0 && strings.HasPrefix(arg, "--") {
			name, inline = arg[:idx], arg[idx+1:]
		}

		switch name {
		case "--model", "-m":
			v, err := flagValue(name, inline, &i)
			if err != nil {
				return cmd, args, err
			}
			args.Model = v

		case "--api-key":
			v, err := flagValue(name, inline, &i)
			if err != nil {
				return cmd, args, err
			}
			args.APIKey = v

		case "--timeout":
			v, err := flagValue(name, inline, &i)
			if err != nil {
				return cmd, args, err
			}
			seconds, convErr := strconv.Atoi(v)
			if convErr != nil {
				return cmd, args, fmt.Errorf("invalid --timeout value %q: not a number", v)
			}
			if seconds <= 0 {
				return cmd, args, fmt.Errorf("invalid --timeout value %d: must be positive", seconds)
			}
			args.TimeoutSeconds = seconds

		case "--plain":
			args.Plain = true

		case "--fullscreen":
			args.Fullscreen = true
			args.FullscreenSet = true

		case "--no-fullscreen":
			args.Fullscreen = false
			args.FullscreenSet = true

		case "--list-models":
			cmd = CmdListModels

		case "--version", "-V":
			return CmdVersion, args, nil

		case "--help", "-h":
			return CmdHelp, args, nil

		default:
			if !strings.HasPrefix(arg, "-") {
				return cmd, args, fmt.Errorf("unexpected argument: %s", arg)
			}
			return cmd, args, fmt.Errorf("unknown flag: %s", arg)
		}
	}

	return cmd, args, nil
}
