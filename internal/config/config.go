package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	APIURL      string `yaml:"api_url"`
	Repo        string `yaml:"repo"`
	Token       string `yaml:"token,omitempty"`
	Theme       string `yaml:"theme"`
	Precision   int    `yaml:"precision"`
	DownloadDir string `yaml:"download_dir,omitempty"`
	HistorySize int    `yaml:"history_size"`
	LogLevel    string `yaml:"log_level"`

	// Aliases map a shell word to the command line it expands to.
	Aliases map[string]string `yaml:"aliases,omitempty"`
}

const (
	DefaultRepo   = "tlecomte/friture"
	DefaultAPIURL = "https://api.github.com"
)

func Default() *Config {
	return &Config{
		APIURL:      DefaultAPIURL,
		Repo:        DefaultRepo,
		Theme:       "auto",
		Precision:   1,
		HistorySize: 1000,
		LogLevel:    "info",
	}
}

// Validate checks the values a user can get wrong in the YAML file.
func (c *Config) Validate() error {
	owner, name, ok := strings.Cut(c.Repo, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return fmt.Errorf("repo must be owner/name, got %q", c.Repo)
	}
	if c.APIURL == "" {
		return errors.New("api_url must not be empty")
	}
	if c.Precision < 0 {
		return fmt.Errorf("precision must not be negative, got %d", c.Precision)
	}
	if c.HistorySize < 0 {
		return fmt.Errorf("history_size must not be negative, got %d", c.HistorySize)
	}
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn or error, got %q", c.LogLevel)
	}
	for name := range c.Aliases {
		if name == "" || strings.ContainsAny(name, " \t") {
			return fmt.Errorf("alias name %q must be a single word", name)
		}
	}
	switch c.Theme {
	case "", "auto", "dark", "light":
	default:
		return fmt.Errorf("theme must be auto, dark or light, got %q", c.Theme)
	}
	return nil
}

func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".friture-cli"), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func HistoryPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history"), nil
}

func LogDir() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "logs"), nil
}

// Load reads ~/.friture-cli/config.yaml (if present) over the defaults and
// applies environment overrides.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile is Load with an explicit config file path.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	// 1. Load from file
	f, err := os.Open(path)
	if err == nil {
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	// 2. Override from Env
	if token := os.Getenv("FRITURE_GITHUB_TOKEN"); token != "" {
		cfg.Token = token
	} else if token := os.Getenv("GITHUB_TOKEN"); token != "" && cfg.Token == "" {
		cfg.Token = token
	}
	if repo := os.Getenv("FRITURE_REPO"); repo != "" {
		cfg.Repo = repo
	}
	if apiURL := os.Getenv("FRITURE_API_URL"); apiURL != "" {
		cfg.APIURL = apiURL
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to ~/.friture-cli/config.yaml
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveFile(cfg, path)
}

func SaveFile(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Write with secure permissions (0600 = owner read/write only)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	encoder := yaml.NewEncoder(f)
	encoder.SetIndent(2)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return encoder.Close()
}
