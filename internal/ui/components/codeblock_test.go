// Copyright (c) 2025 cli-gpt contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides UI components for the cli-gpt TUI.
package components

import (
	"strings"
	"testing"
)

// =============================================================================
// CODE BLOCK TESTS
// =============================================================================

func TestParseCodeBlocksPassthrough(t *testing.T) {
	text := "just a plain paragraph\nwith two lines"
	got := ParseCodeBlocks(text, 80)

	if got != text {
		t.Errorf("text without fences should pass through unchanged, got %q", got)
	}
}

func TestParseCodeBlocksRendersFence(t *testing.T) {
	text := "before\n```go\npackage main\n```\nafter"
	got := ParseCodeBlocks(text, 80)

	if !strings.Contains(got, "before") || !strings.Contains(got, "after") {
		t.Errorf("surrounding text should be preserved, got %q", got)
	}
	if !strings.Contains(got, "main") {
		t.Errorf("code content should be present, got %q", got)
	}
	if strings.Contains(got, "```") {
		t.Errorf("fence markers should be consumed, got %q", got)
	}
}

func TestParseCodeBlocksUnclosedFence(t *testing.T) {
	// Streaming output often ends mid-block
	text := "```python\nprint('hi')"
	got := ParseCodeBlocks(text, 80)

	if !strings.Contains(got, "print") {
		t.Errorf("unclosed block should still render its code, got %q", got)
	}
}

// =============================================================================
// INLINE CODE TESTS
// =============================================================================

func TestParseInlineCode(t *testing.T) {
	got := ParseInlineCode("run `cli-gpt --plain` to start")

	if !strings.Contains(got, "cli-gpt --plain") {
		t.Errorf("inline code content should be preserved, got %q", got)
	}
	if strings.Contains(got, "`") {
		t.Errorf("backticks should be consumed, got %q", got)
	}
}

func TestParseInlineCodeUnclosed(t *testing.T) {
	got := ParseInlineCode("a stray ` backtick")

	if !strings.Contains(got, "`") {
		t.Errorf("unclosed backtick should be preserved, got %q", got)
	}
	if !strings.Contains(got, "backtick") {
		t.Errorf("text after unclosed backtick should be preserved, got %q", got)
	}
}

func TestRenderInlineCode(t *testing.T) {
	got := RenderInlineCode("x := 1")

	if !strings.Contains(got, "x := 1") {
		t.Errorf("RenderInlineCode() should include the code, got %q", got)
	}
}

// =============================================================================
// HIGHLIGHTING TESTS
// =============================================================================

func TestHighlightCodeUnknownLanguage(t *testing.T) {
	got := highlightCode("hello world", "notalanguage")

	if !strings.Contains(got, "hello") {
		t.Errorf("fallback highlighting should keep the text, got %q", got)
	}
}

func TestDetectLanguageEmpty(t *testing.T) {
	if got := detectLanguage(""); got != "" {
		t.Errorf("detectLanguage(\"\") = %q, want empty", got)
	}
}

func TestCodeBlockRender(t *testing.T) {
	cb := NewCodeBlock("go", "package main")
	cb.SetMaxWidth(60)

	got := cb.Render()
	if !strings.Contains(got, "go") {
		t.Errorf("rendered block should include language badge, got %q", got)
	}
	if !strings.Contains(got, "main") {
		t.Errorf("rendered block should include the code, got %q", got)
	}
	if !strings.Contains(got, "1") {
		t.Errorf("rendered block should include line numbers, got %q", got)
	}
}
