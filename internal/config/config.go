// Copyright (c) 2025 cli-gpt contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/aoyn1xw/cli-gpt/internal/util"
)

// =============================================================================
// CONSTANTS AND DEFAULTS
// =============================================================================

const (
	// DefaultChatURL is the OpenRouter chat completions endpoint.
	DefaultChatURL = "https://openrouter.ai/api/v1/chat/completions"

	// DefaultModelsURL is the OpenRouter model listing endpoint.
	DefaultModelsURL = "https://openrouter.ai/api/v1/models"

	// DefaultTimeoutSeconds is the per-request timeout for API calls.
	DefaultTimeoutSeconds = 45

	// DefaultAppTitle is sent as the X-Title attribution header.
	DefaultAppTitle = "cli-gpt"

	// DefaultAppReferer is sent as the HTTP-Referer attribution header.
	DefaultAppReferer = "https://github.com/aoyn1xw/cli-gpt"

	configDirName   = ".cli-gpt"
	configFileName  = "config.toml"
	historyFileName = "history"
	statsDBFileName = "usage.db"
)

// =============================================================================
// CONFIGURATION TYPES
// =============================================================================

// Config is the root configuration structure, stored as TOML.
type Config struct {
	API   APIConfig   `toml:"api"`
	UI    UIConfig    `toml:"ui"`
	Stats StatsConfig `toml:"stats"`
}

// APIConfig holds OpenRouter connection settings.
type APIConfig struct {
	// Key is the OpenRouter API key. Usually supplied via
	// OPENROUTER_API_KEY rather than stored on disk.
	Key string `toml:"key"`

	// ChatURL is the chat completions endpoint.
	ChatURL string `toml:"chat_url"`

	// ModelsURL is the model listing endpoint.
	ModelsURL string `toml:"models_url"`

	// TimeoutSeconds bounds each API request, including streaming reads.
	TimeoutSeconds int `toml:"timeout_seconds"`

	// AppTitle is the X-Title attribution header value.
	AppTitle string `toml:"app_title"`

	// AppReferer is the HTTP-Referer attribution header value.
	AppReferer string `toml:"app_referer"`
}

// UIConfig holds presentation settings.
type UIConfig struct {
	// Model is the preferred startup model ID. Empty means the
	// catalogue default.
	Model string `toml:"model"`

	// Plain selects the line-oriented REPL instead of the TUI.
	Plain bool `toml:"plain"`

	// Fullscreen runs the TUI in the alternate screen buffer.
	Fullscreen bool `toml:"fullscreen"`

	// Markdown enables rendered markdown for completed responses.
	Markdown bool `toml:"markdown"`
}

// StatsConfig holds usage ledger settings.
type StatsConfig struct {
	// Enabled turns per-exchange usage recording on or off.
	Enabled bool `toml:"enabled"`

	// DatabasePath overrides the ledger location. Empty means
	// <config dir>/usage.db.
	DatabasePath string `toml:"database_path"`
}

// =============================================================================
// CONSTRUCTION
// =============================================================================

// Default returns a configuration populated with default values.
func Default() *Config {
	return &Config{
		API: APIConfig{
			ChatURL:        DefaultChatURL,
			ModelsURL:      DefaultModelsURL,
			TimeoutSeconds: DefaultTimeoutSeconds,
			AppTitle:       DefaultAppTitle,
			AppReferer:     DefaultAppReferer,
		},
		UI: UIConfig{
			Fullscreen: true,
			Markdown:   true,
		},
		Stats: StatsConfig{
			Enabled: true,
		},
	}
}

// =============================================================================
// PATHS
// =============================================================================

// ConfigDir returns the cli-gpt configuration directory (~/.cli-gpt).
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, configDirName), nil
}

// ConfigPath returns the path of the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// HistoryPath returns the path of the plain-mode input history file.
func HistoryPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, historyFileName), nil
}

// StatsDBPath resolves the usage ledger location, honoring the
// stats.database_path override.
func (c *Config) StatsDBPath() (string, error) {
	if c.Stats.DatabasePath != "" {
		return c.Stats.DatabasePath, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, statsDBFileName), nil
}

// EnsureConfigDir creates the configuration directory if it does not
// exist and returns its path.
func EnsureConfigDir() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("cannot create config directory: %w", err)
	}
	return dir, nil
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads the config file (if present), applies environment
// overrides, and validates the result.
func Load() (*Config, error) {
	cfg := Default()

	path, err := ConfigPath()
	if err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			if err := loadFile(cfg, path); err != nil {
				return nil, err
			}
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.fillDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromPath reads a specific config file, applies environment
// overrides, and validates the result. The file must exist.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if err := loadFile(cfg, path); err != nil {
		return nil, err
	}
	cfg.ApplyEnvOverrides()
	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFile decodes TOML over the existing values in cfg, so keys absent
// from the file keep their defaults.
func loadFile(cfg *Config, path string) error {
	ensureSecurePermissions(path)
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("cannot parse config file %s: %w", path, err)
	}
	return nil
}

// ensureSecurePermissions tightens the config file to 0600. The file
// can hold an API key.
func ensureSecurePermissions(path string) {
	info, err := os.Stat(path)
	if err != nil {
		return
	}
	if info.Mode().Perm() != 0600 {
		_ = os.Chmod(path, 0600)
	}
}

// fillDefaults restores required string fields that were set to empty,
// and treats a zero timeout as unset.
func (c *Config) fillDefaults() {
	if c.API.ChatURL == "" {
		c.API.ChatURL = DefaultChatURL
	}
	if c.API.ModelsURL == "" {
		c.API.ModelsURL = DefaultModelsURL
	}
	if c.API.TimeoutSeconds == 0 {
		c.API.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if c.API.AppTitle == "" {
		c.API.AppTitle = DefaultAppTitle
	}
	if c.API.AppReferer == "" {
		c.API.AppReferer = DefaultAppReferer
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variables on top of the current
// values. CLI_CHAT_* names are accepted as legacy aliases and lose to
// their CLI_GPT_* counterparts when both are set.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("OPENROUTER_API_KEY"); v != "" {
		c.API.Key = v
	}

	if v := os.Getenv("OPENROUTER_API_URL"); v != "" {
		c.API.ChatURL = v
	}

	if v := os.Getenv("OPENROUTER_MODELS_URL"); v != "" {
		c.API.ModelsURL = v
	}

	if v := os.Getenv("CLI_CHAT_APP_TITLE"); v != "" {
		c.API.AppTitle = v
	}
	if v := os.Getenv("CLI_GPT_APP_TITLE"); v != "" {
		c.API.AppTitle = v
	}

	if v := os.Getenv("CLI_CHAT_APP_REFERER"); v != "" {
		c.API.AppReferer = v
	}
	if v := os.Getenv("CLI_GPT_APP_REFERER"); v != "" {
		c.API.AppReferer = v
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.API.TimeoutSeconds < 0 {
		errs = append(errs, ValidationError{
			Field:   "api.timeout_seconds",
			Message: fmt.Sprintf("cannot be negative, got %d", c.API.TimeoutSeconds),
		})
	}

	if c.API.ChatURL != "" {
		if err := validateHTTPURL(c.API.ChatURL); err != nil {
			errs = append(errs, ValidationError{
				Field:   "api.chat_url",
				Message: err.Error(),
			})
		}
	}

	if c.API.ModelsURL != "" {
		if err := validateHTTPURL(c.API.ModelsURL); err != nil {
			errs = append(errs, ValidationError{
				Field:   "api.models_url",
				Message: err.Error(),
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme '%s', must be http or https", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL has no host")
	}
	return nil
}

// =============================================================================
// SAVING
// =============================================================================

// Save writes the configuration to the default path atomically with
// owner-only permissions.
func (c *Config) Save() error {
	if _, err := EnsureConfigDir(); err != nil {
		return err
	}
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the configuration to a specific path.
func (c *Config) SaveTo(path string) error {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("cannot encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("cannot write config file: %w", err)
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

// Timeout returns the request timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

// =============================================================================
// GLOBAL CONFIG SINGLETON
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the process-wide configuration, loading it on first
// use. Load failures fall back to defaults plus environment overrides
// with a warning on stderr.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to load config: %v\nUsing defaults.\n", err)
			cfg = Default()
			cfg.ApplyEnvOverrides()
		}
		globalConfigMu.Lock()
		globalConfig = cfg
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// ReloadGlobal re-reads the configuration from disk and swaps the
// global instance. Used by the config watcher.
func ReloadGlobal() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	globalConfigMu.Lock()
	globalConfig = cfg
	globalConfigMu.Unlock()
	return nil
}

// SetGlobal replaces the global configuration. Intended for tests and
// for applying flag overrides after startup parsing.
func SetGlobal(cfg *Config) {
	globalConfigOnce.Do(func() {})
	globalConfigMu.Lock()
	globalConfig = cfg
	globalConfigMu.Unlock()
}

// ResetGlobalForTesting clears the singleton so the next Global() call
// loads fresh. Only for tests.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	globalConfig = nil
	globalConfigMu.Unlock()
	globalConfigOnce = sync.Once{}
}
