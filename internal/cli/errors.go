// Copyright (c) 2025 cli-gpt contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - exit codes and error display for cli-gpt.
package cli

import (
	"fmt"
	"os"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	// ExitOK is returned on normal termination, including /quit and EOF.
	ExitOK = 0

	// ExitFatal is returned on unrecoverable startup failure: missing
	// API key, or a --model that matches nothing in the catalogue.
	ExitFatal = 1

	// ExitUsage is returned for malformed flags.
	ExitUsage = 2
)

// =============================================================================
// ERROR DISPLAY
// =============================================================================

// PrintError writes a styled error line to stderr.
func PrintError(format string, a ...any) {
	fmt.Fprintf(os.Stderr, "%s %s\n",
		RenderConditional(errorStyle, "[Error]"),
		fmt.Sprintf(format, a...))
}

// PrintWarning writes a styled warning line to stderr.
func PrintWarning(format string, a ...any) {
	fmt.Fprintf(os.Stderr, "%s %s\n",
		RenderConditional(warningStyle, "[Warning]"),
		fmt.Sprintf(format, a...))
}

// PrintFatal writes the error plus follow-up suggestion lines to
// stderr. The caller exits with ExitFatal.
func PrintFatal(message string, suggestions ...string) {
	PrintError("%s", message)
	for _, s := range suggestions {
		fmt.Fprintf(os.Stderr, "  %s\n", RenderConditional(infoStyle, s))
	}
}
