// Copyright (c) 2025 cli-gpt contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"strings"
	"testing"
)

func TestParseArgsDefaults(t *testing.T) {
	cmd, args, err := parseArgs(nil)
	if err != nil {
		t.Fatalf("parseArgs(nil) error: %v", err)
	}
	if cmd != CmdChat {
		t.Errorf("default command = %v, want CmdChat", cmd)
	}
	if args.Plain || args.FullscreenSet || args.Model != "" || args.TimeoutSeconds != 0 {
		t.Errorf("default args not zero: %+v", args)
	}
}

func TestParseArgsFlags(t *testing.T) {
	tests := []struct {
		name  string
		argv  []string
		check func(t *testing.T, cmd Command, args Args)
	}{
		{
			name: "model with space",
			argv: []string{"--model", "gpt-a"},
			check: func(t *testing.T, cmd Command, args Args) {
				if args.Model != "gpt-a" {
					t.Errorf("Model = %q, want gpt-a", args.Model)
				}
			},
		},
		{
			name: "model with equals",
			argv: []string{"--model=gpt-a"},
			check: func(t *testing.T, cmd Command, args Args) {
				if args.Model != "gpt-a" {
					t.Errorf("Model = %q, want gpt-a", args.Model)
				}
			},
		},
		{
			name: "short model flag",
			argv: []string{"-m", "gpt-a"},
			check: func(t *testing.T, cmd Command, args Args) {
				if args.Model != "gpt-a" {
					t.Errorf("Model = %q, want gpt-a", args.Model)
				}
			},
		},
		{
			name: "timeout",
			argv: []string{"--timeout", "90"},
			check: func(t *testing.T, cmd Command, args Args) {
				if args.TimeoutSeconds != 90 {
					t.Errorf("TimeoutSeconds = %d, want 90", args.TimeoutSeconds)
				}
			},
		},
		{
			name: "api key",
			argv: []string{"--api-key", "sk-or-v1-test"},
			check: func(t *testing.T, cmd Command, args Args) {
				if args.APIKey != "sk-or-v1-test" {
					t.Errorf("APIKey = %q", args.APIKey)
				}
			},
		},
		{
			name: "plain",
			argv: []string{"--plain"},
			check: func(t *testing.T, cmd Command, args Args) {
				if !args.Plain {
					t.Error("Plain not set")
				}
			},
		},
		{
			name: "fullscreen",
			argv: []string{"--fullscreen"},
			check: func(t *testing.T, cmd Command, args Args) {
				if !args.FullscreenSet || !args.Fullscreen {
					t.Errorf("fullscreen args = %+v", args)
				}
			},
		},
		{
			name: "no-fullscreen",
			argv: []string{"--no-fullscreen"},
			check: func(t *testing.T, cmd Command, args Args) {
				if !args.FullscreenSet || args.Fullscreen {
					t.Errorf("fullscreen args = %+v", args)
				}
			},
		},
		{
			name: "list-models",
			argv: []string{"--list-models"},
			check: func(t *testing.T, cmd Command, args Args) {
				if cmd != CmdListModels {
					t.Errorf("cmd = %v, want CmdListModels", cmd)
				}
			},
		},
		{
			name: "list-models keeps other flags",
			argv: []string{"--list-models", "--timeout", "10"},
			check: func(t *testing.T, cmd Command, args Args) {
				if cmd != CmdListModels || args.TimeoutSeconds != 10 {
					t.Errorf("cmd = %v, args = %+v", cmd, args)
				}
			},
		},
		{
			name: "version",
			argv: []string{"--version"},
			check: func(t *testing.T, cmd Command, args Args) {
				if cmd != CmdVersion {
					t.Errorf("cmd = %v, want CmdVersion", cmd)
				}
			},
		},
		{
			name: "help",
			argv: []string{"-h"},
			check: func(t *testing.T, cmd Command, args Args) {
				if cmd != CmdHelp {
					t.Errorf("cmd = %v, want CmdHelp", cmd)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, args, err := parseArgs(tt.argv)
			if err != nil {
				t.Fatalf("parseArgs(%v) error: %v", tt.argv, err)
			}
			tt.check(t, cmd, args)
		})
	}
}

func TestParseArgsUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		argv []string
	}{
		{"unknown flag", []string{"--bogus"}},
		{"positional argument", []string{"hello"}},
		{"model without value", []string{"--model"}},
		{"timeout without value", []string{"--timeout"}},
		{"timeout not a number", []string{"--timeout", "soon"}},
		{"timeout zero", []string{"--timeout", "0"}},
		{"timeout negative", []string{"--timeout", "-5"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := parseArgs(tt.argv); err == nil {
				t.Errorf("parseArgs(%v) = nil error, want usage error", tt.argv)
			}
		})
	}
}

func TestWrapText(t *testing.T) {
	input := "one two three four five six seven eight nine ten"
	wrapped := WrapText(input, 22)

	for i, line := range strings.Split(wrapped, "\n") {
		if len(line) > 20 {
			t.Errorf("line %d exceeds width: %q", i, line)
		}
	}
	if strings.Join(strings.Fields(wrapped), " ") != input {
		t.Errorf("wrapping lost words: %q", wrapped)
	}
}

func TestWrapTextPreservesNewlines(t *testing.T) {
	input := "first\nsecond"
	if got := WrapText(input, 40); got != input {
		t.Errorf("WrapText = %q, want %q", got, input)
	}
}

func TestRenderConditionalWithoutColors(t *testing.T) {
	ForceColorsEnabled(false)
	defer ForceColorsEnabled(false)

	if got := RenderConditional(errorStyle, "plain"); got != "plain" {
		t.Errorf("RenderConditional with colors off = %q, want unstyled text", got)
	}
}
