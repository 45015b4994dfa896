// Copyright (c) 2025 Lux Partners Limited
// SPDX-License-Identifier: MIT

// Package config loads mevscope settings from defaults, an optional YAML
// file, a .env file and the process environment, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Defaults
const (
	DefaultPort            = 3001
	DefaultEnvironment     = "development"
	DefaultFrontendURL     = "http://localhost:3000"
	DefaultLogLevel        = "info"
	DefaultExplorerURL     = "https://api.etherscan.io/api"
	DefaultSubgraphURL     = "https://api.thegraph.com/subgraphs/name/uniswap/uniswap-v2"
	DefaultGatewayTimeout  = 10 * time.Second
	DefaultRetryBackoff    = 250 * time.Millisecond
	DefaultRateLimitMax    = 100
	DefaultRateLimitWindow = 15 * time.Minute
)

// DefaultSearchers are the searcher addresses scanned by the classifier.
var DefaultSearchers = []string{
	"0xDAFEA492D9c6733ae3d56b7Ed1ADB60692c98Bc5", // Flashbots
	"0x0000000000000000000000000000000000000000",
}

// Config holds the resolved runtime configuration.
type Config struct {
	Port        int
	Environment string
	FrontendURL string
	LogLevel    string

	ExplorerURL    string
	ExplorerAPIKey string
	SubgraphURL    string

	GatewayTimeout time.Duration
	RetryBackoff   time.Duration

	RateLimitMax    int
	RateLimitWindow time.Duration

	MetricsEnabled bool
	Searchers      []string

	// MockSeed seeds the synthetic data generator. Zero means time seeded.
	MockSeed int64
}

// fileConfig is the on-disk YAML layout.
type fileConfig struct {
	Port        int    `yaml:"port"`
	Environment string `yaml:"environment"`
	FrontendURL string `yaml:"frontend_url"`
	LogLevel    string `yaml:"log_level"`

	Explorer struct {
		URL    string `yaml:"url"`
		APIKey string `yaml:"api_key"`
	} `yaml:"explorer"`

	Subgraph struct {
		URL string `yaml:"url"`
	} `yaml:"subgraph"`

	Gateway struct {
		Timeout      string `yaml:"timeout,omitempty"`
		RetryBackoff string `yaml:"retry_backoff,omitempty"`
	} `yaml:"gateway"`

	RateLimit struct {
		Max    *int   `yaml:"max"`
		Window string `yaml:"window,omitempty"`
	} `yaml:"rate_limit"`

	Metrics struct {
		Enabled *bool `yaml:"enabled"`
	} `yaml:"metrics"`

	Searchers []string `yaml:"searchers,omitempty"`
	MockSeed  int64    `yaml:"mock_seed"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Port:            DefaultPort,
		Environment:     DefaultEnvironment,
		FrontendURL:     DefaultFrontendURL,
		LogLevel:        DefaultLogLevel,
		ExplorerURL:     DefaultExplorerURL,
		SubgraphURL:     DefaultSubgraphURL,
		GatewayTimeout:  DefaultGatewayTimeout,
		RetryBackoff:    DefaultRetryBackoff,
		RateLimitMax:    DefaultRateLimitMax,
		RateLimitWindow: DefaultRateLimitWindow,
		MetricsEnabled:  true,
		Searchers:       append([]string(nil), DefaultSearchers...),
	}
}

// Load resolves configuration. path may be empty. envFiles default to ".env";
// missing env files are ignored.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var fc fileConfig
	if err := yaml.Unmarshal([]byte(expanded), &fc); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	if fc.Port != 0 {
		c.Port = fc.Port
	}
	setString(&c.Environment, fc.Environment)
	setString(&c.FrontendURL, fc.FrontendURL)
	setString(&c.LogLevel, fc.LogLevel)
	setString(&c.ExplorerURL, fc.Explorer.URL)
	setString(&c.ExplorerAPIKey, fc.Explorer.APIKey)
	setString(&c.SubgraphURL, fc.Subgraph.URL)

	if err := setDuration(&c.GatewayTimeout, "gateway.timeout", fc.Gateway.Timeout); err != nil {
		return err
	}
	if err := setDuration(&c.RetryBackoff, "gateway.retry_backoff", fc.Gateway.RetryBackoff); err != nil {
		return err
	}
	if fc.RateLimit.Max != nil {
		c.RateLimitMax = *fc.RateLimit.Max
	}
	if err := setDuration(&c.RateLimitWindow, "rate_limit.window", fc.RateLimit.Window); err != nil {
		return err
	}
	if fc.Metrics.Enabled != nil {
		c.MetricsEnabled = *fc.Metrics.Enabled
	}
	if len(fc.Searchers) > 0 {
		c.Searchers = fc.Searchers
	}
	if fc.MockSeed != 0 {
		c.MockSeed = fc.MockSeed
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("PORT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Port = n
	}

	setString(&c.Environment, os.Getenv("NODE_ENV"))
	setString(&c.Environment, os.Getenv("APP_ENV"))
	setString(&c.FrontendURL, os.Getenv("FRONTEND_URL"))
	setString(&c.LogLevel, os.Getenv("LOG_LEVEL"))
	setString(&c.ExplorerURL, os.Getenv("ETHERSCAN_BASE_URL"))
	setString(&c.ExplorerAPIKey, os.Getenv("ETHERSCAN_API_KEY"))
	setString(&c.SubgraphURL, os.Getenv("SUBGRAPH_URL"))

	if err := setDuration(&c.GatewayTimeout, "GATEWAY_TIMEOUT", os.Getenv("GATEWAY_TIMEOUT")); err != nil {
		return err
	}
	if err := setDuration(&c.RateLimitWindow, "RATE_LIMIT_WINDOW", os.Getenv("RATE_LIMIT_WINDOW")); err != nil {
		return err
	}

	if v := os.Getenv("RATE_LIMIT_MAX"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid RATE_LIMIT_MAX %q: %w", v, err)
		}
		c.RateLimitMax = n
	}
	if v := os.Getenv("METRICS_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid METRICS_ENABLED %q: %w", v, err)
		}
		c.MetricsEnabled = b
	}
	if v := os.Getenv("MOCK_SEED"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid MOCK_SEED %q: %w", v, err)
		}
		c.MockSeed = n
	}
	if v := os.Getenv("SEARCHERS"); v != "" {
		var list []string
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				list = append(list, s)
			}
		}
		c.Searchers = list
	}
	return nil
}

// Validate checks the configuration for values the server cannot run with.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.ExplorerURL == "" {
		return errors.New("explorer url is required")
	}
	if c.SubgraphURL == "" {
		return errors.New("subgraph url is required")
	}
	if c.GatewayTimeout <= 0 {
		return fmt.Errorf("gateway timeout must be positive, got %s", c.GatewayTimeout)
	}
	if c.RateLimitMax < 0 || (c.RateLimitMax > 0 && c.RateLimitWindow <= 0) {
		return fmt.Errorf("invalid rate limit %d per %s", c.RateLimitMax, c.RateLimitWindow)
	}
	if len(c.Searchers) == 0 {
		return errors.New("at least one searcher address is required")
	}
	for _, addr := range c.Searchers {
		if !common.IsHexAddress(addr) {
			return fmt.Errorf("invalid searcher address %q", addr)
		}
	}
	return nil
}

// IsProduction reports whether the environment is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, name, v string) error {
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", name, v, err)
	}
	*dst = d
	return nil
}
