package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

const (
	DefaultBaseURL         = "https://router.huggingface.co/v1"
	DefaultModel           = "deepseek-ai/DeepSeek-V3-0324"
	DefaultAPIKeyEnv       = "HF_TOKEN"
	DefaultContextWindow   = 131072
	DefaultMaxOutputTokens = 16384
	DefaultTimeout         = 10
	DefaultOutputDir       = "sites"
)

// Validate checks a parsed config and fills in defaults.
func Validate(cfg *Config, projectRoot string) error {
	if cfg.Name == "" {
		return fmt.Errorf("config: 'name' is required")
	}

	p := &cfg.Provider
	if p.BaseURL == "" {
		p.BaseURL = DefaultBaseURL
	}
	if !isHTTPURL(p.BaseURL) {
		return fmt.Errorf("config: provider 'base-url' must be an http(s) URL, got %q", p.BaseURL)
	}
	if p.Model == "" {
		p.Model = DefaultModel
	}
	if p.APIKeyEnv == "" {
		p.APIKeyEnv = DefaultAPIKeyEnv
	}
	if p.ContextWindow == 0 {
		p.ContextWindow = DefaultContextWindow
	}
	if p.ContextWindow < 0 {
		return fmt.Errorf("config: provider 'context-window' must be positive, got %d", p.ContextWindow)
	}
	if p.MaxOutputTokens == 0 {
		p.MaxOutputTokens = DefaultMaxOutputTokens
	}
	if p.MaxOutputTokens < 0 {
		return fmt.Errorf("config: provider 'max-output-tokens' must be positive, got %d", p.MaxOutputTokens)
	}
	if p.MaxOutputTokens >= p.ContextWindow {
		return fmt.Errorf("config: provider 'max-output-tokens' (%d) must be smaller than 'context-window' (%d)", p.MaxOutputTokens, p.ContextWindow)
	}
	if p.Timeout == 0 {
		p.Timeout = DefaultTimeout
	}
	if p.Timeout < 0 {
		return fmt.Errorf("config: provider 'timeout' must be positive, got %d", p.Timeout)
	}

	if cfg.Endpoint != nil {
		if cfg.Endpoint.URL == "" {
			return fmt.Errorf("config: endpoint 'url' is required when 'endpoint' is set")
		}
		if !isHTTPURL(cfg.Endpoint.URL) {
			return fmt.Errorf("config: endpoint 'url' must be an http(s) URL, got %q", cfg.Endpoint.URL)
		}
	}

	if cfg.OutputDir == "" {
		cfg.OutputDir = DefaultOutputDir
	}
	if err := checkRelative("output-dir", cfg.OutputDir); err != nil {
		return err
	}
	if cfg.Store == "" {
		cfg.Store = filepath.Join(Dir, "projects.db")
	}
	if cfg.LogDir == "" {
		cfg.LogDir = filepath.Join(Dir, "logs")
	}
	if err := checkRelative("log-dir", cfg.LogDir); err != nil {
		return err
	}

	return nil
}

func isHTTPURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// checkRelative rejects paths that would escape the project root.
func checkRelative(field, p string) error {
	if filepath.IsAbs(p) {
		return fmt.Errorf("config: '%s' must be relative to the project root, got %q", field, p)
	}
	for _, part := range strings.Split(filepath.ToSlash(p), "/") {
		if part == ".." {
			return fmt.Errorf("config: '%s' must not contain '..', got %q", field, p)
		}
	}
	return nil
}
