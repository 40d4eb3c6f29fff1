// Copyright (c) 2025 cli-gpt contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package catalog

import (
	"context"
	"errors"

	"github.com/aoyn1xw/cli-gpt/internal/openrouter"
)

// =============================================================================
// MODEL PROVIDERS
// =============================================================================

// Provider supplies a model list from one source.
type Provider interface {
	// Fetch returns the provider's model list. An empty list is an
	// error; the chain moves on to the next provider.
	Fetch(ctx context.Context) ([]ModelDescriptor, error)

	// Source identifies the provider for notices and stats.
	Source() string
}

// errNoFreeModels is returned when a listing succeeds but contains no
// free models.
var errNoFreeModels = errors.New("listing contains no free models")

// RemoteProvider fetches the live OpenRouter listing filtered to free
// models.
type RemoteProvider struct {
	Client *openrouter.Client
}

// Fetch implements Provider.
func (p *RemoteProvider) Fetch(ctx context.Context) ([]ModelDescriptor, error) {
	listing, err := p.Client.ListModels(ctx)
	if err != nil {
		return nil, err
	}
	free := FilterFree(listing)
	if len(free) == 0 {
		return nil, errNoFreeModels
	}
	return free, nil
}

// Source implements Provider.
func (p *RemoteProvider) Source() string {
	return SourceRemote
}

// BundledProvider serves the compiled-in fallback list. It never
// fails and therefore terminates every chain.
type BundledProvider struct{}

// Fetch implements Provider.
func (BundledProvider) Fetch(context.Context) ([]ModelDescriptor, error) {
	return FallbackModels(), nil
}

// Source implements Provider.
func (BundledProvider) Source() string {
	return SourceBundled
}

// DefaultChain is the standard provider order: live listing first,
// bundled list as the safety net.
func DefaultChain(client *openrouter.Client) []Provider {
	return []Provider{
		&RemoteProvider{Client: client},
		BundledProvider{},
	}
}

// FetchModels walks the provider chain and returns the first
// successful list along with its source. A chain that fails entirely
// degrades to the bundled list, so callers always receive a usable
// catalogue; the returned error reports the last failure for the
// caller's notice line.
func FetchModels(ctx context.Context, providers []Provider) ([]ModelDescriptor, string, error) {
	var lastErr error
	for _, p := range providers {
		models, err := p.Fetch(ctx)
		if err != nil {
			lastErr = err
			continue
		}
		if len(models) == 0 {
			lastErr = errNoFreeModels
			continue
		}
		return models, p.Source(), nil
	}
	return FallbackModels(), SourceBundled, lastErr
}
