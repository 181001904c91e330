// Package config loads the platform configuration: screening thresholds,
// transaction assumptions, connector settings, and file paths.
//
// Layering: built-in defaults, then the YAML config file, then an optional
// HJSON override file (analyst-edited, comments allowed), then environment
// variables for secrets.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	hjson "github.com/hjson/hjson-go/v4"
	yaml "gopkg.in/yaml.v2"

	"github.com/we-re-wolf/Aperture-LBO-Screener/pkg/core/lbo"
	"github.com/we-re-wolf/Aperture-LBO-Screener/pkg/core/screen"
)

// Config is the full platform configuration.
type Config struct {
	UniverseFile string            `yaml:"universe_file" json:"universe_file"`
	Workers      int               `yaml:"workers" json:"workers"`
	ListenAddr   string            `yaml:"listen_addr" json:"listen_addr"`
	CacheDir     string            `yaml:"cache_dir" json:"cache_dir"`
	Criteria     screen.Thresholds `yaml:"criteria" json:"criteria"`
	Assumptions  lbo.Assumptions   `yaml:"assumptions" json:"assumptions"`
	Market       EndpointConfig    `yaml:"market" json:"market"`
	SEC          EndpointConfig    `yaml:"sec" json:"sec"`
}

// EndpointConfig holds one vendor endpoint. API keys come from the
// environment, never from config files.
type EndpointConfig struct {
	BaseURL string `yaml:"base_url" json:"base_url"`
	APIKey  string `yaml:"-" json:"-"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		UniverseFile: filepath.Join("data", "universe", "russell_3000_tickers.csv"),
		Workers:      10,
		ListenAddr:   ":8080",
		CacheDir:     filepath.Join(".cache", "aperture"),
		Criteria:     screen.DefaultThresholds(),
		Assumptions:  lbo.DefaultAssumptions(),
	}
}

// Load builds the configuration from a config file path. An empty path uses
// defaults plus environment. Files ending in .hjson are parsed leniently.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".hjson":
			if err := hjson.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		}
	}
	cfg.applyEnv()
	if cfg.Workers <= 0 {
		cfg.Workers = Default().Workers
	}
	return cfg, nil
}

// applyEnv overlays environment variables: secrets always, scalars when set.
func (c *Config) applyEnv() {
	c.Market.APIKey = os.Getenv("MARKET_API_KEY")
	c.SEC.APIKey = os.Getenv("SEC_API_KEY")

	if v := os.Getenv("APERTURE_UNIVERSE_FILE"); v != "" {
		c.UniverseFile = v
	}
	if v := os.Getenv("APERTURE_LISTEN_ADDR"); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv("APERTURE_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Workers = n
		}
	}
	if v := os.Getenv("MARKET_API_URL"); v != "" {
		c.Market.BaseURL = v
	}
	if v := os.Getenv("SEC_API_URL"); v != "" {
		c.SEC.BaseURL = v
	}
}
