package config

import (
	"fmt"
	"os"

	"wallet_dashboard/internal/domain/entity"

	"gopkg.in/yaml.v3"
)

// Config holds the overall configuration for the application.
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Logging      LoggingConfig      `yaml:"logging"`
	Moralis      MoralisConfig      `yaml:"moralis"`
	CoinGecko    CoinGeckoConfig    `yaml:"coinGecko"`
	PriceService PriceServiceConfig `yaml:"priceService"`
	Portfolio    PortfolioConfig    `yaml:"portfolio"`
	// Networks overrides the compiled-in chain table when non-empty.
	Networks []entity.Network `yaml:"networks"`
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	Port         string `yaml:"port"`
	ReadTimeout  int    `yaml:"readTimeout"`
	WriteTimeout int    `yaml:"writeTimeout"`
	IdleTimeout  int    `yaml:"idleTimeout"`
}

// LoggingConfig holds the configuration for logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // "debug", "info", "warn", "error"
}

// MoralisConfig holds the configuration for the balance/history provider.
type MoralisConfig struct {
	BaseURL              string `yaml:"baseURL"`
	APIKey               string `yaml:"apiKey"`
	RequestTimeoutMillis int64  `yaml:"requestTimeoutMillis"`
	PageLimit            int    `yaml:"pageLimit"`
	HistoryLimit         int    `yaml:"historyLimit"`
}

// CoinGeckoConfig holds the configuration for the price provider.
type CoinGeckoConfig struct {
	BaseURL              string `yaml:"baseURL"`
	APIKey               string `yaml:"apiKey"`
	RequestTimeoutMillis int64  `yaml:"requestTimeoutMillis"`
}

// PriceServiceConfig holds configuration for the price resolver.
type PriceServiceConfig struct {
	CacheTTLSeconds int `yaml:"cacheTTLSeconds"`
	// MinRequestIntervalMillis spaces outbound price calls to stay under
	// free-tier rate limits. It is a fixed delay, not an error backoff.
	MinRequestIntervalMillis int64 `yaml:"minRequestIntervalMillis"`
	// ExtraSymbolIDs adds symbol -> coin id entries on top of the
	// compiled-in table.
	ExtraSymbolIDs map[string]string `yaml:"extraSymbolIds"`
}

// PortfolioConfig holds configuration for the aggregation engine.
type PortfolioConfig struct {
	FetchTimeoutMillis    int64 `yaml:"fetchTimeoutMillis"`
	MaxConcurrentRequests int   `yaml:"maxConcurrentRequests"`
}

// LoadConfig loads configuration from a YAML file, applies defaults and
// pulls provider credentials from the environment when present.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		// No config file is fine: defaults plus environment cover the
		// reference deployment.
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config data from %s: %w", path, err)
	}

	cfg.applyDefaults()

	if key := os.Getenv("MORALIS_API_KEY"); key != "" {
		cfg.Moralis.APIKey = key
	}
	if key := os.Getenv("COINGECKO_API_KEY"); key != "" {
		cfg.CoinGecko.APIKey = key
	}

	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Port == "" {
		cfg.Server.Port = ":8080"
	}
	if cfg.Server.ReadTimeout <= 0 {
		cfg.Server.ReadTimeout = 15
	}
	if cfg.Server.WriteTimeout <= 0 {
		cfg.Server.WriteTimeout = 30
	}
	if cfg.Server.IdleTimeout <= 0 {
		cfg.Server.IdleTimeout = 60
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Moralis.BaseURL == "" {
		cfg.Moralis.BaseURL = "https://deep-index.moralis.io/api/v2.2"
	}
	if cfg.Moralis.RequestTimeoutMillis <= 0 {
		cfg.Moralis.RequestTimeoutMillis = 10000
	}
	if cfg.Moralis.PageLimit <= 0 {
		cfg.Moralis.PageLimit = 100
	}
	if cfg.Moralis.HistoryLimit <= 0 {
		cfg.Moralis.HistoryLimit = 50
	}
	if cfg.CoinGecko.BaseURL == "" {
		cfg.CoinGecko.BaseURL = "https://api.coingecko.com/api/v3"
	}
	if cfg.CoinGecko.RequestTimeoutMillis <= 0 {
		cfg.CoinGecko.RequestTimeoutMillis = 10000
	}
	if cfg.PriceService.CacheTTLSeconds <= 0 {
		cfg.PriceService.CacheTTLSeconds = 60
	}
	if cfg.PriceService.MinRequestIntervalMillis < 0 {
		cfg.PriceService.MinRequestIntervalMillis = 0
	} else if cfg.PriceService.MinRequestIntervalMillis == 0 {
		cfg.PriceService.MinRequestIntervalMillis = 1000
	}
	if cfg.Portfolio.FetchTimeoutMillis <= 0 {
		cfg.Portfolio.FetchTimeoutMillis = 12000
	}
	if cfg.Portfolio.MaxConcurrentRequests <= 0 {
		cfg.Portfolio.MaxConcurrentRequests = 10
	}
}
