// Copyright (c) 2025 cli-gpt contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// models.go - the --list-models printer.
package cli

import (
	"context"
	"fmt"

	"github.com/aoyn1xw/cli-gpt/internal/catalog"
	"github.com/aoyn1xw/cli-gpt/internal/config"
	"github.com/aoyn1xw/cli-gpt/internal/openrouter"
	"github.com/aoyn1xw/cli-gpt/internal/util"
)

// HandleListModels fetches and prints the free-model catalogue. A
// failed remote fetch degrades to the bundled list with a warning, so
// the exit code is always ExitOK.
func HandleListModels(cfg *config.Config, client *openrouter.Client) int {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout())
	defer cancel()

	models, source, err := catalog.FetchModels(ctx, catalog.DefaultChain(client))
	if err != nil {
		PrintWarning("model catalogue unavailable (%v); showing the bundled list", err)
	}

	fmt.Printf("Available free models (source: %s):\n", source)
	PrintModelList(models, "")
	return ExitOK
}

// PrintModelList prints a numbered catalogue to stdout, marking the
// current selection when currentID is non-empty. Shared by
// --list-models, plain-mode /list, and plain-mode /switch.
func PrintModelList(models []catalog.ModelDescriptor, currentID string) {
	for i, m := range models {
		marker := "  "
		if currentID != "" && m.ID == currentID {
			marker = RenderConditional(commandStyle, "* ")
		}

		line := fmt.Sprintf("%2d. %s%s", i+1, marker, m.ID)
		if m.Name != "" && m.Name != m.ID {
			line += "  " + RenderConditional(infoStyle, m.Name)
		}
		if m.ContextLength > 0 {
			line += RenderConditional(infoStyle,
				"  ("+util.IntToString(m.ContextLength)+" ctx)")
		}
		fmt.Println(line)
	}
}
