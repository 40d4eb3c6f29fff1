// Copyright (c) 2025 cli-gpt contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config manages cli-gpt configuration.
//
// Configuration is loaded from ~/.cli-gpt/config.toml, then overridden by
// environment variables, then by command-line flags (applied by the caller).
// A process-wide singleton is available through Global().
//
// The config file is optional. When it does not exist, defaults plus
// environment overrides are used and no file is created until Save is called.
package config
