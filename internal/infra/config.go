package infra

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	StorageSQLite = "sqlite"
	StorageRedis  = "redis"
	StorageMemory = "memory"
)

// DefaultUserAgent identifies the client to the market-data API.
func DefaultUserAgent(version string) string {
	if version == "" {
		version = "dev"
	}
	return fmt.Sprintf("coinranking-go/%s (%s; %s)", version, runtime.GOOS, runtime.GOARCH)
}

// Config holds every application setting.
// Secrets are overridden from the environment after the file is parsed.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	API struct {
		Coinranking struct {
			BaseURL               string  `yaml:"base_url"`
			APIKey                string  `yaml:"api_key"`
			ReferenceCurrencyUUID string  `yaml:"reference_currency_uuid"`
			RequestsPerSecond     float64 `yaml:"requests_per_second"`
			Burst                 int     `yaml:"burst"`
		} `yaml:"coinranking"`
		SecretsFile string `yaml:"secrets_file"`
	} `yaml:"api"`

	Catalog struct {
		PageSize int    `yaml:"page_size"`
		MaxItems int    `yaml:"max_items"`
		Sort     string `yaml:"sort"`
	} `yaml:"catalog"`

	Detail struct {
		DefaultPeriod string `yaml:"default_period"`
	} `yaml:"detail"`

	Watchlist struct {
		Window int `yaml:"window"`
	} `yaml:"watchlist"`

	Storage struct {
		Driver     string `yaml:"driver"`
		SQLitePath string `yaml:"sqlite_path"`
		Redis      struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"storage"`

	Logging struct {
		Level      string `yaml:"level"`
		Format     string `yaml:"format"`
		File       bool   `yaml:"file"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days"`
	} `yaml:"logging"`
}

// LoadConfig reads .env (if present), parses the YAML file, applies
// environment overrides and validates the result.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Failed to load .env", slog.Any("error", err))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, err
	}

	if cfg.API.Coinranking.APIKey != "" {
		// fmt instead of slog; the logger is not configured yet.
		fmt.Println("⚠️  SECURITY WARNING: API key found in config file.")
		fmt.Println("   Recommendation: use CRYPTO_COINRANKING_KEY or api.secrets_file instead.")
	}

	// Precedence: config file < secrets file < environment.
	if cfg.API.SecretsFile != "" {
		secrets, err := LoadSecretConfig(cfg.API.SecretsFile)
		if err != nil {
			return nil, err
		}
		applySecrets(cfg, secrets)
	}

	overrideWithEnv(cfg)
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// ParseConfig decodes YAML without touching the environment.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = AppName
	}
	if c.Catalog.PageSize == 0 {
		c.Catalog.PageSize = 20
	}
	if c.Catalog.MaxItems == 0 {
		c.Catalog.MaxItems = 100
	}
	if c.Detail.DefaultPeriod == "" {
		c.Detail.DefaultPeriod = "7d"
	}
	if c.Watchlist.Window == 0 {
		c.Watchlist.Window = 100
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = StorageSQLite
	}
	if c.Storage.Redis.Prefix == "" {
		c.Storage.Redis.Prefix = "coinranking:"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.MaxSizeMB == 0 {
		c.Logging.MaxSizeMB = 10
	}
	if c.Logging.MaxBackups == 0 {
		c.Logging.MaxBackups = 3
	}
	if c.Logging.MaxAgeDays == 0 {
		c.Logging.MaxAgeDays = 28
	}
}

// Validate checks configuration validity. Missing credentials or a
// malformed endpoint are fatal at startup.
func (c *Config) Validate() error {
	api := c.API.Coinranking
	if strings.TrimSpace(api.APIKey) == "" {
		return fmt.Errorf("coinranking api key is required (set CRYPTO_COINRANKING_KEY)")
	}
	u, err := url.Parse(api.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid coinranking base URL: %q", api.BaseURL)
	}
	if strings.TrimSpace(api.ReferenceCurrencyUUID) == "" {
		return fmt.Errorf("reference currency uuid is required")
	}
	if api.RequestsPerSecond < 0 || api.Burst < 0 {
		return fmt.Errorf("rate limit settings must not be negative")
	}

	if c.Catalog.PageSize <= 0 || c.Catalog.MaxItems <= 0 {
		return fmt.Errorf("catalog page size and max items must be positive")
	}
	if c.Watchlist.Window <= 0 {
		return fmt.Errorf("watchlist window must be positive")
	}

	switch c.Storage.Driver {
	case StorageSQLite, StorageMemory:
	case StorageRedis:
		if c.Storage.Redis.Addr == "" {
			return fmt.Errorf("redis storage requires an address")
		}
	default:
		return fmt.Errorf("unknown storage driver: %s", c.Storage.Driver)
	}

	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log format: %s", c.Logging.Format)
	}

	return nil
}

// overrideWithEnv applies environment values over file values.
// Environment always wins.
func overrideWithEnv(cfg *Config) {
	if key := os.Getenv("CRYPTO_COINRANKING_KEY"); key != "" {
		cfg.API.Coinranking.APIKey = key
	}
	if base := os.Getenv("CRYPTO_COINRANKING_BASE_URL"); base != "" {
		cfg.API.Coinranking.BaseURL = base
	}
	if cur := os.Getenv("CRYPTO_COINRANKING_CURRENCY"); cur != "" {
		cfg.API.Coinranking.ReferenceCurrencyUUID = cur
	}
	if driver := os.Getenv("CRYPTO_STORAGE_DRIVER"); driver != "" {
		cfg.Storage.Driver = driver
	}
	if addr := os.Getenv("CRYPTO_REDIS_ADDR"); addr != "" {
		cfg.Storage.Redis.Addr = addr
	}
	if level := os.Getenv("CRYPTO_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
}
