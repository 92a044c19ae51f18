// Package cli resolves konditionalctl's connection settings from a
// per-user config file, layered under explicit flags and environment
// variables.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

// Config is the on-disk shape of ~/.konditionalctl/config.yaml: a named
// set of konditionald base URLs, one of which is the default.
type Config struct {
	DefaultEnvironment string               `yaml:"default_environment"`
	Environments       map[string]EnvConfig `yaml:"environments"`
}

// EnvConfig is one named environment's connection settings.
type EnvConfig struct {
	BaseURL string `yaml:"base_url"`
}

// ConfigPath returns ~/.konditionalctl/config.yaml.
func ConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".konditionalctl", "config.yaml"), nil
}

// LoadConfig reads the config file, returning an empty config (not an
// error) if it does not exist yet.
func LoadConfig() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{Environments: make(map[string]EnvConfig)}, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	if cfg.Environments == nil {
		cfg.Environments = make(map[string]EnvConfig)
	}
	return &cfg, nil
}

// SaveConfig writes cfg to ~/.konditionalctl/config.yaml, creating the
// directory if needed.
func SaveConfig(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

// ResolveBaseURL picks the konditionald base URL to use. Priority:
// an explicit --base-url flag, then KONDITIONAL_BASE_URL, then the
// named environment (or the config file's default) in
// ~/.konditionalctl/config.yaml, then an empty string if none apply.
func ResolveBaseURL(envName, baseURLFlag string) (string, error) {
	if baseURLFlag != "" {
		return baseURLFlag, nil
	}
	if envURL := os.Getenv("KONDITIONAL_BASE_URL"); envURL != "" {
		return envURL, nil
	}

	cfg, err := LoadConfig()
	if err != nil {
		return "", err
	}
	if envName == "" {
		envName = cfg.DefaultEnvironment
	}
	if envName == "" {
		return "", nil
	}
	env, ok := cfg.Environments[envName]
	if !ok {
		return "", fmt.Errorf("environment %q not found in %s", envName, mustConfigPath())
	}
	return env.BaseURL, nil
}

// InitConfig writes a starter config file with dev/staging/prod entries.
func InitConfig() error {
	return SaveConfig(&Config{
		DefaultEnvironment: "dev",
		Environments: map[string]EnvConfig{
			"dev":     {BaseURL: "http://localhost:8080"},
			"staging": {BaseURL: "https://konditional-staging.example.com"},
			"prod":    {BaseURL: "https://konditional.example.com"},
		},
	})
}

func mustConfigPath() string {
	path, err := ConfigPath()
	if err != nil {
		return "~/.konditionalctl/config.yaml"
	}
	return path
}
