package infra

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SecretConfig is a separate YAML file holding credentials, kept out of
// the main config so the latter can be committed.
type SecretConfig struct {
	API struct {
		Coinranking struct {
			APIKey string `yaml:"api_key"`
		} `yaml:"coinranking"`
	} `yaml:"api"`
	Redis struct {
		Password string `yaml:"password"`
	} `yaml:"redis"`
}

// LoadSecretConfig reads a secrets file. A missing file is an error.
func LoadSecretConfig(path string) (*SecretConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secret config: %w", err)
	}

	var cfg SecretConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse secret config: %w", err)
	}

	return &cfg, nil
}

// applySecrets overlays non-empty secrets onto cfg.
func applySecrets(cfg *Config, s *SecretConfig) {
	if s.API.Coinranking.APIKey != "" {
		cfg.API.Coinranking.APIKey = s.API.Coinranking.APIKey
	}
	if s.Redis.Password != "" {
		cfg.Storage.Redis.Password = s.Redis.Password
	}
}
