package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Dir is the per-workspace directory holding config, store, and logs.
const Dir = ".sitegen"

// File is the config file name inside Dir.
const File = "config.yaml"

// Config is the top-level .sitegen/config.yaml structure.
type Config struct {
	Name      string    `yaml:"name"`
	Provider  Provider  `yaml:"provider"`
	Endpoint  *Endpoint `yaml:"endpoint"`
	OutputDir string    `yaml:"output-dir"`
	Store     string    `yaml:"store"`
	LogDir    string    `yaml:"log-dir"`
}

// Provider describes the OpenAI-compatible model router.
type Provider struct {
	BaseURL         string `yaml:"base-url"`
	Model           string `yaml:"model"`
	Name            string `yaml:"name"`
	APIKeyEnv       string `yaml:"api-key-env"`
	ContextWindow   int    `yaml:"context-window"`
	MaxOutputTokens int    `yaml:"max-output-tokens"`
	Timeout         int    `yaml:"timeout"` // minutes
}

// Endpoint, when set, sends prompts to a builder ask endpoint instead of
// talking to the provider directly.
type Endpoint struct {
	URL      string `yaml:"url"`
	TokenEnv string `yaml:"token-env"`
}

// Load reads and validates a config file.
func Load(path, projectRoot string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := Validate(&cfg, projectRoot); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Path returns the config file location under root.
func Path(root string) string {
	return filepath.Join(root, Dir, File)
}

// FindProjectRoot walks up from dir looking for .sitegen/config.yaml.
func FindProjectRoot(dir string) (string, error) {
	for {
		if _, err := os.Stat(Path(dir)); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no %s/%s found (searched from cwd to root); run 'sitegen init'", Dir, File)
		}
		dir = parent
	}
}

// APIKey returns the provider key from the configured environment variable.
func (c *Config) APIKey() string {
	return os.Getenv(c.Provider.APIKeyEnv)
}

// EndpointToken returns the bearer token for the builder endpoint, if any.
func (c *Config) EndpointToken() string {
	if c.Endpoint == nil || c.Endpoint.TokenEnv == "" {
		return ""
	}
	return os.Getenv(c.Endpoint.TokenEnv)
}

// StorePath resolves the project database against root.
func (c *Config) StorePath(root string) string {
	return resolve(root, c.Store)
}

// LogPath resolves the session log directory against root.
func (c *Config) LogPath(root string) string {
	return resolve(root, c.LogDir)
}

// SiteDir is where a project's pages are exported.
func (c *Config) SiteDir(root, slug string) string {
	return filepath.Join(resolve(root, c.OutputDir), slug)
}

func resolve(root, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}
