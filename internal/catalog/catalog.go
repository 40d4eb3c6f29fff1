// Copyright (c) 2025 cli-gpt contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package catalog

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/aoyn1xw/cli-gpt/internal/openrouter"
)

// =============================================================================
// CONSTANTS
// =============================================================================

// DefaultModelID is the model selected when nothing else applies. It
// is always the head of the bundled fallback list.
const DefaultModelID = "qwen/qwen3-235b-a22b:free"

// SourceRemote and SourceBundled identify where the catalogue entries
// came from.
const (
	SourceRemote  = "remote"
	SourceBundled = "bundled"
)

// fallbackIDs is the bundled free-tier list, used when the remote
// catalogue cannot be fetched. Order is fixed; the head is the
// default model.
var fallbackIDs = []string{
	"qwen/qwen3-235b-a22b:free",
	"ArliAI/QwQ-32B-RpR-v1",
	"Google/Gemma-2-9B",
	"Google/Gemma-3-12B",
	"Google/Gemma-3n-2B",
	"Google/Gemma-3-4B",
	"Google/Gemma-3n-4B",
	"Tencent/Hunyuan-A13B-Instruct",
	"Agentica/Deepcoder-14B-Preview",
}

// =============================================================================
// MODEL DESCRIPTOR
// =============================================================================

// ModelDescriptor describes one selectable model. Entries have the
// same shape whether they came from the remote catalogue or the
// bundled fallback list; bundled entries carry no metadata beyond
// their ID.
type ModelDescriptor struct {
	ID            string
	Name          string
	ContextLength int
	Pricing       openrouter.Pricing
}

// DisplayName returns the human-facing name, falling back to the ID.
func (d ModelDescriptor) DisplayName() string {
	if d.Name != "" {
		return d.Name
	}
	return d.ID
}

// FromModelInfo converts a listing entry into a descriptor.
func FromModelInfo(info openrouter.ModelInfo) ModelDescriptor {
	return ModelDescriptor{
		ID:            info.ID,
		Name:          info.Name,
		ContextLength: info.ContextLength,
		Pricing:       info.Pricing,
	}
}

// FallbackModels returns a fresh copy of the bundled fallback list.
func FallbackModels() []ModelDescriptor {
	models := make([]ModelDescriptor, 0, len(fallbackIDs))
	for _, id := range fallbackIDs {
		models = append(models, ModelDescriptor{ID: id})
	}
	return models
}

// =============================================================================
// FREE FILTER
// =============================================================================

// IsFree reports whether a listed model is usable on the free tier. A
// model qualifies through an ":free" ID suffix or through zero prompt
// and completion pricing.
func IsFree(info openrouter.ModelInfo) bool {
	if strings.HasSuffix(strings.ToLower(info.ID), ":free") {
		return true
	}
	return isZeroCost(info.Pricing.Prompt) && isZeroCost(info.Pricing.Completion)
}

// isZeroCost reports whether a pricing string denotes zero. Absent
// pricing is not free; only an explicit zero is.
func isZeroCost(value string) bool {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	if trimmed == "" {
		return false
	}
	switch trimmed {
	case "0", "0.0", "0.00", "free":
		return true
	}
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return false
	}
	return f == 0
}

// FilterFree reduces a model listing to free models, deduplicated by
// ID with the listing order preserved.
func FilterFree(models []openrouter.ModelInfo) []ModelDescriptor {
	seen := make(map[string]bool, len(models))
	out := make([]ModelDescriptor, 0, len(models))
	for _, info := range models {
		if info.ID == "" || seen[info.ID] {
			continue
		}
		if !IsFree(info) {
			continue
		}
		seen[info.ID] = true
		out = append(out, FromModelInfo(info))
	}
	return out
}

// =============================================================================
// CATALOG
// =============================================================================

// ErrModelUnavailable indicates a model ID that is not in the current
// catalogue.
var ErrModelUnavailable = errors.New("model not available in free tier")

// Catalog holds the current model list and selection. It is owned by
// the presenter's event loop and is not safe for concurrent use.
type Catalog struct {
	models  []ModelDescriptor
	current string
	source  string
}

// New creates a catalogue seeded with the bundled fallback list and
// the default model selected.
func New() *Catalog {
	return &Catalog{
		models:  FallbackModels(),
		current: DefaultModelID,
		source:  SourceBundled,
	}
}

// Models returns a copy of the catalogue entries.
func (c *Catalog) Models() []ModelDescriptor {
	out := make([]ModelDescriptor, len(c.models))
	copy(out, c.models)
	return out
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	return len(c.models)
}

// Source reports where the current entries came from.
func (c *Catalog) Source() string {
	return c.source
}

// Current returns the selected model ID.
func (c *Catalog) Current() string {
	return c.current
}

// CurrentDescriptor returns the selected model's descriptor when the
// selection is present in the catalogue.
func (c *Catalog) CurrentDescriptor() (ModelDescriptor, bool) {
	if i := c.indexOf(c.current); i >= 0 {
		return c.models[i], true
	}
	return ModelDescriptor{}, false
}

// SetCurrent selects a model by exact ID. The ID must be present in
// the catalogue.
func (c *Catalog) SetCurrent(id string) error {
	if c.indexOf(id) < 0 {
		return fmt.Errorf("%w: %s", ErrModelUnavailable, id)
	}
	c.current = id
	return nil
}

// indexOf returns the position of an ID, or -1.
func (c *Catalog) indexOf(id string) int {
	for i, m := range c.models {
		if m.ID == id {
			return i
		}
	}
	return -1
}

// Replace swaps in a freshly fetched model list. An empty list is a
// no-op. The current selection is kept when still present; otherwise
// the selection falls back to the list head and selectionChanged is
// true so the caller can tell the user.
func (c *Catalog) Replace(models []ModelDescriptor, source string) (selectionChanged bool) {
	deduped := make([]ModelDescriptor, 0, len(models))
	seen := make(map[string]bool, len(models))
	for _, m := range models {
		if m.ID == "" || seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		deduped = append(deduped, m)
	}

	if len(deduped) == 0 {
		return false
	}

	c.models = deduped
	c.source = source

	if c.indexOf(c.current) < 0 {
		c.current = c.models[0].ID
		return true
	}
	return false
}
