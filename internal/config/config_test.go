// Copyright (c) 2025 cli-gpt contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// clearEnv blanks every environment variable the package reads so a
// developer's real environment cannot leak into assertions.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"OPENROUTER_API_KEY",
		"OPENROUTER_API_URL",
		"OPENROUTER_MODELS_URL",
		"CLI_GPT_APP_TITLE",
		"CLI_CHAT_APP_TITLE",
		"CLI_GPT_APP_REFERER",
		"CLI_CHAT_APP_REFERER",
	} {
		t.Setenv(name, "")
	}
}

// =============================================================================
// DEFAULTS
// =============================================================================

// TestDefault verifies the default configuration values.
func TestDefault(t *testing.T) {
	cfg := Default()

	require.Equal(t, "https://openrouter.ai/api/v1/chat/completions", cfg.API.ChatURL)
	require.Equal(t, "https://openrouter.ai/api/v1/models", cfg.API.ModelsURL)
	require.Equal(t, 45, cfg.API.TimeoutSeconds)
	require.Equal(t, "cli-gpt", cfg.API.AppTitle)
	require.Equal(t, "https://github.com/aoyn1xw/cli-gpt", cfg.API.AppReferer)
	require.Empty(t, cfg.API.Key, "no API key should be baked in")

	require.Empty(t, cfg.UI.Model, "default model comes from the catalogue, not config")
	require.False(t, cfg.UI.Plain)
	require.True(t, cfg.UI.Fullscreen)
	require.True(t, cfg.UI.Markdown)

	require.True(t, cfg.Stats.Enabled)
	require.Empty(t, cfg.Stats.DatabasePath)
}

// TestTimeout verifies the timeout duration conversion.
func TestTimeout(t *testing.T) {
	cfg := Default()
	require.Equal(t, 45*time.Second, cfg.Timeout())

	cfg.API.TimeoutSeconds = 7
	require.Equal(t, 7*time.Second, cfg.Timeout())
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// TestApplyEnvOverrides verifies each environment variable lands on the
// right field.
func TestApplyEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENROUTER_API_KEY", "sk-or-test")
	t.Setenv("OPENROUTER_API_URL", "https://example.com/chat")
	t.Setenv("OPENROUTER_MODELS_URL", "https://example.com/models")
	t.Setenv("CLI_GPT_APP_TITLE", "my-title")
	t.Setenv("CLI_GPT_APP_REFERER", "https://example.com/repo")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	require.Equal(t, "sk-or-test", cfg.API.Key)
	require.Equal(t, "https://example.com/chat", cfg.API.ChatURL)
	require.Equal(t, "https://example.com/models", cfg.API.ModelsURL)
	require.Equal(t, "my-title", cfg.API.AppTitle)
	require.Equal(t, "https://example.com/repo", cfg.API.AppReferer)
}

// TestApplyEnvOverrides_LegacyNames verifies the CLI_CHAT_* aliases
// still work when set alone.
func TestApplyEnvOverrides_LegacyNames(t *testing.T) {
	clearEnv(t)
	t.Setenv("CLI_CHAT_APP_TITLE", "legacy-title")
	t.Setenv("CLI_CHAT_APP_REFERER", "https://legacy.example.com")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	require.Equal(t, "legacy-title", cfg.API.AppTitle)
	require.Equal(t, "https://legacy.example.com", cfg.API.AppReferer)
}

// TestApplyEnvOverrides_Precedence verifies CLI_GPT_* wins over
// CLI_CHAT_* when both are set.
func TestApplyEnvOverrides_Precedence(t *testing.T) {
	clearEnv(t)
	t.Setenv("CLI_CHAT_APP_TITLE", "legacy-title")
	t.Setenv("CLI_GPT_APP_TITLE", "new-title")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	require.Equal(t, "new-title", cfg.API.AppTitle, "CLI_GPT_APP_TITLE should win")
}

// TestApplyEnvOverrides_EmptyIgnored verifies empty variables do not
// clobber existing values.
func TestApplyEnvOverrides_EmptyIgnored(t *testing.T) {
	clearEnv(t)

	cfg := Default()
	cfg.API.Key = "from-file"
	cfg.ApplyEnvOverrides()

	require.Equal(t, "from-file", cfg.API.Key)
	require.Equal(t, DefaultChatURL, cfg.API.ChatURL)
}

// =============================================================================
// LOADING
// =============================================================================

// TestLoadFromPath verifies file values decode over defaults, leaving
// absent keys at their default values.
func TestLoadFromPath(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[api]
timeout_seconds = 10

[ui]
plain = true
model = "some/model:free"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	require.Equal(t, 10, cfg.API.TimeoutSeconds)
	require.True(t, cfg.UI.Plain)
	require.Equal(t, "some/model:free", cfg.UI.Model)

	// Untouched keys keep defaults.
	require.Equal(t, DefaultChatURL, cfg.API.ChatURL)
	require.True(t, cfg.UI.Fullscreen)
	require.True(t, cfg.Stats.Enabled)
}

// TestLoadFromPath_ExplicitFalse verifies a false boolean in the file
// overrides a true default.
func TestLoadFromPath_ExplicitFalse(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[ui]
fullscreen = false
markdown = false

[stats]
enabled = false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	require.False(t, cfg.UI.Fullscreen)
	require.False(t, cfg.UI.Markdown)
	require.False(t, cfg.Stats.Enabled)
}

// TestLoadFromPath_EmptyURLRestored verifies an explicitly empty URL is
// restored to the default instead of producing a broken client.
func TestLoadFromPath_EmptyURLRestored(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[api]
chat_url = ""
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	require.Equal(t, DefaultChatURL, cfg.API.ChatURL)
}

// TestLoadFromPath_BadTOML verifies parse errors are reported, not
// swallowed.
func TestLoadFromPath_BadTOML(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[api\nkey ="), 0600))

	_, err := LoadFromPath(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "cannot parse config file")
}

// TestLoad_MissingFileUsesDefaults verifies a missing config file is
// not an error.
func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, DefaultChatURL, cfg.API.ChatURL)
	require.Equal(t, DefaultTimeoutSeconds, cfg.API.TimeoutSeconds)
}

// =============================================================================
// VALIDATION
// =============================================================================

// TestValidate verifies the validation rules.
func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "defaults are valid",
			mutate:  func(c *Config) {},
			wantErr: "",
		},
		{
			name:    "negative timeout",
			mutate:  func(c *Config) { c.API.TimeoutSeconds = -1 },
			wantErr: "api.timeout_seconds",
		},
		{
			name:    "bad chat URL scheme",
			mutate:  func(c *Config) { c.API.ChatURL = "ftp://example.com" },
			wantErr: "api.chat_url",
		},
		{
			name:    "chat URL without host",
			mutate:  func(c *Config) { c.API.ChatURL = "https://" },
			wantErr: "api.chat_url",
		},
		{
			name:    "bad models URL",
			mutate:  func(c *Config) { c.API.ModelsURL = "not a url at all\x7f://" },
			wantErr: "api.models_url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

// =============================================================================
// SAVING
// =============================================================================

// TestSaveRoundTrip verifies Save writes a file that loads back to the
// same values with owner-only permissions.
func TestSaveRoundTrip(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := Default()
	cfg.API.Key = "sk-or-roundtrip"
	cfg.API.TimeoutSeconds = 90
	cfg.UI.Model = "qwen/qwen3-235b-a22b:free"
	cfg.UI.Plain = true
	cfg.Stats.Enabled = false

	require.NoError(t, cfg.SaveTo(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0600), info.Mode().Perm(), "config file can hold a key")

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	require.Equal(t, cfg.API.Key, loaded.API.Key)
	require.Equal(t, cfg.API.TimeoutSeconds, loaded.API.TimeoutSeconds)
	require.Equal(t, cfg.UI.Model, loaded.UI.Model)
	require.True(t, loaded.UI.Plain)
	require.False(t, loaded.Stats.Enabled)
}

// =============================================================================
// PATH RESOLUTION
// =============================================================================

// TestStatsDBPath verifies the ledger path override and its default.
func TestStatsDBPath(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg := Default()
	p, err := cfg.StatsDBPath()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(".cli-gpt", "usage.db"), filepath.Join(filepath.Base(filepath.Dir(p)), filepath.Base(p)))

	cfg.Stats.DatabasePath = "/tmp/elsewhere.db"
	p, err = cfg.StatsDBPath()
	require.NoError(t, err)
	require.Equal(t, "/tmp/elsewhere.db", p)
}

// =============================================================================
// GLOBAL SINGLETON
// =============================================================================

// TestGlobal_SetAndReset verifies SetGlobal pins an instance and
// ResetGlobalForTesting forces a fresh load.
func TestGlobal_SetAndReset(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())
	defer ResetGlobalForTesting()

	ResetGlobalForTesting()

	custom := Default()
	custom.API.Key = "pinned"
	SetGlobal(custom)
	require.Same(t, custom, Global(), "SetGlobal should pin the instance")

	ResetGlobalForTesting()
	fresh := Global()
	require.NotSame(t, custom, fresh)
	require.Empty(t, fresh.API.Key)
}
