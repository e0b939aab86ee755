// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/analyst-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config is the complete analyst configuration.
type Config struct {
	Engine  EngineConfig  `toml:"engine"`
	Proxy   ProxyConfig   `toml:"proxy"`
	Client  ClientConfig  `toml:"client"`
	Upload  UploadConfig  `toml:"upload"`
	Storage StorageConfig `toml:"storage"`
	History HistoryConfig `toml:"history"`
	UI      UIConfig      `toml:"ui"`
}

// EngineConfig locates the AI engine the proxy forwards to.
type EngineConfig struct {
	URL         string `toml:"url"`
	TimeoutSecs int    `toml:"timeout_secs"` // 0 = no timeout
}

// ProxyConfig controls "analyst serve".
type ProxyConfig struct {
	Listen       string  `toml:"listen"`
	Token        string  `toml:"token"` // optional bearer token
	RateLimit    float64 `toml:"rate_limit"`
	RateBurst    int     `toml:"rate_burst"`
	MaxBodyBytes int64   `toml:"max_body_bytes"`
}

// ClientConfig controls how the terminal client reaches the proxy.
type ClientConfig struct {
	ProxyURL    string `toml:"proxy_url"`
	MaxRetries  int    `toml:"max_retries"`
	RetryBaseMs int    `toml:"retry_base_ms"`
	RetryMaxMs  int    `toml:"retry_max_ms"`
}

// UploadConfig paces the upload progress indicator.
type UploadConfig struct {
	ParsePauseMs    int `toml:"parse_pause_ms"`
	AnalysisDelayMs int `toml:"analysis_delay_ms"`
	CompleteHoldMs  int `toml:"complete_hold_ms"`
	ClearDelayMs    int `toml:"clear_delay_ms"`
}

// StorageConfig selects the history backend.
type StorageConfig struct {
	Backend string `toml:"backend"` // file | sqlite
	Path    string `toml:"path"`    // empty = backend default
}

// HistoryConfig controls conversation persistence.
type HistoryConfig struct {
	// PersistEmpty writes an empty collection after the last conversation
	// is deleted. Off by default, so the previous document survives.
	PersistEmpty bool `toml:"persist_empty"`
}

// UIConfig controls the terminal interface.
type UIConfig struct {
	Theme        string `toml:"theme"` // auto | dark | light
	SidebarWidth int    `toml:"sidebar_width"`
	Markdown     bool   `toml:"markdown"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			URL: "http://127.0.0.1:8000",
		},
		Proxy: ProxyConfig{
			Listen:       "127.0.0.1:3000",
			RateLimit:    10,
			RateBurst:    20,
			MaxBodyBytes: 8 << 20,
		},
		Client: ClientConfig{
			ProxyURL:    "http://127.0.0.1:3000/api",
			MaxRetries:  2,
			RetryBaseMs: 1000,
			RetryMaxMs:  3000,
		},
		Upload: UploadConfig{
			ParsePauseMs:    200,
			AnalysisDelayMs: 500,
			CompleteHoldMs:  300,
			ClearDelayMs:    1000,
		},
		Storage: StorageConfig{
			Backend: "file",
		},
		UI: UIConfig{
			Theme:        "auto",
			SidebarWidth: 28,
			Markdown:     true,
		},
	}
}

// =============================================================================
// DERIVED VALUES
// =============================================================================

// EngineTimeout returns the proxy's upstream timeout (0 = none).
func (c *Config) EngineTimeout() time.Duration {
	return time.Duration(c.Engine.TimeoutSecs) * time.Second
}

// RetryBase returns the first chat retry delay.
func (c *Config) RetryBase() time.Duration {
	return time.Duration(c.Client.RetryBaseMs) * time.Millisecond
}

// RetryMax returns the chat retry delay cap.
func (c *Config) RetryMax() time.Duration {
	return time.Duration(c.Client.RetryMaxMs) * time.Millisecond
}

// UploadDelays returns the four upload pauses in stage order.
func (c *Config) UploadDelays() (parse, analysis, hold, clear time.Duration) {
	ms := func(n int) time.Duration { return time.Duration(n) * time.Millisecond }
	return ms(c.Upload.ParsePauseMs), ms(c.Upload.AnalysisDelayMs), ms(c.Upload.CompleteHoldMs), ms(c.Upload.ClearDelayMs)
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns ~/.analyst.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".analyst"), nil
}

// DefaultPath returns ~/.analyst/config.toml.
func DefaultPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// =============================================================================
// LOAD / SAVE
// =============================================================================

// Load reads path (or the default path when empty), applies environment
// overrides, and validates. A missing file is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg := Default()
	if err := decodeFile(cfg, path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	cfg.ApplyEnvOverrides()
	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// decodeFile decodes TOML on top of the values already in cfg.
func decodeFile(cfg *Config, path string) error {
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return err
		}
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}
	return nil
}

// fillDefaults repairs zero values a partial file may leave behind.
func (c *Config) fillDefaults() {
	d := Default()
	if c.Engine.URL == "" {
		c.Engine.URL = d.Engine.URL
	}
	if c.Proxy.Listen == "" {
		c.Proxy.Listen = d.Proxy.Listen
	}
	if c.Proxy.MaxBodyBytes == 0 {
		c.Proxy.MaxBodyBytes = d.Proxy.MaxBodyBytes
	}
	if c.Client.ProxyURL == "" {
		c.Client.ProxyURL = d.Client.ProxyURL
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = d.Storage.Backend
	}
	if c.UI.Theme == "" {
		c.UI.Theme = d.UI.Theme
	}
	if c.UI.SidebarWidth == 0 {
		c.UI.SidebarWidth = d.UI.SidebarWidth
	}
}

// Encode renders the configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return buf.Bytes(), nil
}

// Save writes the configuration to path with a header comment.
// SECURITY: 0600, the file may hold the proxy token.
func (c *Config) Save(path string) error {
	body, err := c.Encode()
	if err != nil {
		return err
	}
	header := "# analyst configuration\n" +
		"# Environment overrides: ANALYST_ENGINE_URL (or AI_ENGINE_URL), ANALYST_PROXY_URL,\n" +
		"# ANALYST_PROXY_LISTEN, ANALYST_PROXY_TOKEN, ANALYST_STORAGE\n\n"
	if err := util.AtomicWriteFile(path, append([]byte(header), body...), 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variables:
//   - ANALYST_ENGINE_URL, or AI_ENGINE_URL: engine.url
//   - ANALYST_PROXY_URL: client.proxy_url
//   - ANALYST_PROXY_LISTEN: proxy.listen
//   - ANALYST_PROXY_TOKEN: proxy.token
//   - ANALYST_STORAGE: storage.backend
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("AI_ENGINE_URL"); v != "" {
		c.Engine.URL = v
	}
	if v := os.Getenv("ANALYST_ENGINE_URL"); v != "" {
		c.Engine.URL = v
	}
	if v := os.Getenv("ANALYST_PROXY_URL"); v != "" {
		c.Client.ProxyURL = v
	}
	if v := os.Getenv("ANALYST_PROXY_LISTEN"); v != "" {
		c.Proxy.Listen = v
	}
	if v := os.Getenv("ANALYST_PROXY_TOKEN"); v != "" {
		c.Proxy.Token = v
	}
	if v := os.Getenv("ANALYST_STORAGE"); v != "" {
		c.Storage.Backend = strings.ToLower(v)
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError is one invalid field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is every invalid field found.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate checks every field and reports all problems at once.
func (c *Config) Validate() error {
	var errs ValidateErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if err := validateHTTPURL(c.Engine.URL); err != nil {
		add("engine.url", "%v", err)
	}
	if c.Engine.TimeoutSecs < 0 {
		add("engine.timeout_secs", "must not be negative")
	}

	if _, _, err := net.SplitHostPort(c.Proxy.Listen); err != nil {
		add("proxy.listen", "must be host:port (%v)", err)
	}
	if c.Proxy.RateLimit < 0 {
		add("proxy.rate_limit", "must not be negative")
	}
	if c.Proxy.RateLimit > 0 && c.Proxy.RateBurst < 1 {
		add("proxy.rate_burst", "must be at least 1 when rate_limit is set")
	}
	if c.Proxy.MaxBodyBytes < 1024 {
		add("proxy.max_body_bytes", "must be at least 1024")
	}

	if err := validateHTTPURL(c.Client.ProxyURL); err != nil {
		add("client.proxy_url", "%v", err)
	}
	if c.Client.MaxRetries < 0 || c.Client.MaxRetries > 10 {
		add("client.max_retries", "must be between 0 and 10")
	}
	if c.Client.RetryBaseMs < 0 || c.Client.RetryMaxMs < 0 {
		add("client.retry_base_ms", "retry delays must not be negative")
	}
	if c.Client.RetryMaxMs > 0 && c.Client.RetryMaxMs < c.Client.RetryBaseMs {
		add("client.retry_max_ms", "must be >= retry_base_ms")
	}

	for field, v := range map[string]int{
		"upload.parse_pause_ms":    c.Upload.ParsePauseMs,
		"upload.analysis_delay_ms": c.Upload.AnalysisDelayMs,
		"upload.complete_hold_ms":  c.Upload.CompleteHoldMs,
		"upload.clear_delay_ms":    c.Upload.ClearDelayMs,
	} {
		if v < 0 {
			add(field, "must not be negative")
		}
	}

	switch c.Storage.Backend {
	case "file", "sqlite":
	default:
		add("storage.backend", "invalid backend '%s', must be one of: file, sqlite", c.Storage.Backend)
	}

	switch c.UI.Theme {
	case "auto", "dark", "light":
	default:
		add("ui.theme", "invalid theme '%s', must be one of: auto, dark, light", c.UI.Theme)
	}
	if c.UI.SidebarWidth < 16 || c.UI.SidebarWidth > 60 {
		add("ui.sidebar_width", "must be between 16 and 60")
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("missing host")
	}
	return nil
}
