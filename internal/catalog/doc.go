// Copyright (c) 2025 cli-gpt contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package catalog maintains the set of selectable free-tier models.
//
// The catalogue is sourced from the OpenRouter model listing filtered
// to free models, with a bundled fallback list used whenever the
// remote listing is unavailable. Model names typed by the user are
// resolved against the catalogue by exact ID or unambiguous prefix.
package catalog
