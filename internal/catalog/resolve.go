// Copyright (c) 2025 cli-gpt contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package catalog

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// =============================================================================
// NAME RESOLUTION
// =============================================================================

// ErrUnknownModel indicates a name that matched nothing in the
// catalogue.
var ErrUnknownModel = errors.New("unknown model")

// AmbiguousModelError reports a prefix that matched more than one
// catalogue entry.
type AmbiguousModelError struct {
	Input   string
	Matches []string
}

// Error implements the error interface.
func (e *AmbiguousModelError) Error() string {
	return fmt.Sprintf("ambiguous model %q: matches %s", e.Input, strings.Join(e.Matches, ", "))
}

// normalizeName prepares a string for comparison. Composed and
// decomposed Unicode forms of the same name must compare equal.
func normalizeName(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// Resolve maps user input to a catalogue entry. An exact ID match
// wins; otherwise an unambiguous case-insensitive prefix of an ID or
// display name is accepted. Ambiguous prefixes and unknown names are
// errors.
func (c *Catalog) Resolve(input string) (ModelDescriptor, error) {
	name := normalizeName(input)
	if name == "" {
		return ModelDescriptor{}, fmt.Errorf("%w: empty name", ErrUnknownModel)
	}

	// Exact ID match.
	for _, m := range c.models {
		if normalizeName(m.ID) == name {
			return m, nil
		}
	}

	// Unambiguous case-insensitive prefix on ID or display name.
	lower := strings.ToLower(name)
	var matches []ModelDescriptor
	for _, m := range c.models {
		id := strings.ToLower(normalizeName(m.ID))
		display := strings.ToLower(normalizeName(m.DisplayName()))
		if strings.HasPrefix(id, lower) || strings.HasPrefix(display, lower) {
			matches = append(matches, m)
		}
	}

	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return ModelDescriptor{}, fmt.Errorf("%w: %s", ErrUnknownModel, input)
	default:
		ids := make([]string, len(matches))
		for i, m := range matches {
			ids[i] = m.ID
		}
		return ModelDescriptor{}, &AmbiguousModelError{Input: input, Matches: ids}
	}
}

// ResolveAndSelect resolves a name and makes it the current selection.
func (c *Catalog) ResolveAndSelect(input string) (ModelDescriptor, error) {
	m, err := c.Resolve(input)
	if err != nil {
		return ModelDescriptor{}, err
	}
	if err := c.SetCurrent(m.ID); err != nil {
		return ModelDescriptor{}, err
	}
	return m, nil
}
