// Package config loads the service configuration from YAML. Command-line flags and
// environment variables are applied on top by the commands.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is returned by Validate for unusable configuration values.
var ErrInvalid = errors.New("invalid config")

// Config is the root configuration.
type Config struct {
	Node    NodeConfig    `yaml:"node"`
	Module  ModuleConfig  `yaml:"module"`
	Events  EventsConfig  `yaml:"events"`
	HTTP    HTTPConfig    `yaml:"http"`
	Cache   CacheConfig   `yaml:"cache"`
	Stream  StreamConfig  `yaml:"stream"`
	Logging LoggingConfig `yaml:"logging"`
	Token   TokenConfig   `yaml:"token"`
}

// NodeConfig locates the fullnode REST API.
type NodeConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// ModuleConfig locates the streaming module on chain.
type ModuleConfig struct {
	Address string `yaml:"address"`
	Name    string `yaml:"name"`
	// ResourceAccount holds the event stores; defaults to Address.
	ResourceAccount string `yaml:"resource_account"`
}

type EventsConfig struct {
	Limit int `yaml:"limit"`
}

// HTTPConfig controls the public API.
type HTTPConfig struct {
	Addr       string `yaml:"addr"`
	RatePerMin int    `yaml:"rate_per_min"`
	Burst      int    `yaml:"burst"`
}

// CacheConfig controls snapshot and event-log caching. An empty Redis.Addr keeps
// event logs in process memory.
type CacheConfig struct {
	TTL   time.Duration `yaml:"ttl"`
	Redis RedisConfig   `yaml:"redis"`
}

type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

// StreamConfig controls the periodic refresh of wallet snapshots.
type StreamConfig struct {
	Tick     time.Duration `yaml:"tick"`
	Accounts []string      `yaml:"accounts"`
}

// LoggingConfig controls logging output.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	Format  string `yaml:"format"`
	File    string `yaml:"file"`
	Console bool   `yaml:"console"`
}

type TokenConfig struct {
	Symbol string `yaml:"symbol"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	c := &Config{}
	c.ApplyDefaults()
	return c
}

// Load reads a YAML file, applies defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Read decodes a YAML file without defaults or validation, so callers can layer flag
// overrides first. An empty path yields an empty Config.
func Read(path string) (*Config, error) {
	var cfg Config
	if path == "" {
		return &cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

// Parse decodes YAML bytes, applies defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.Node.URL == "" {
		c.Node.URL = "https://fullnode.testnet.aptoslabs.com"
	}
	if c.Node.Timeout <= 0 {
		c.Node.Timeout = 10 * time.Second
	}
	if c.Module.Name == "" {
		c.Module.Name = "pay_me_a_river"
	}
	if c.Module.ResourceAccount == "" {
		c.Module.ResourceAccount = c.Module.Address
	}
	if c.Events.Limit <= 0 {
		c.Events.Limit = 10000
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.HTTP.RatePerMin <= 0 {
		c.HTTP.RatePerMin = 60
	}
	if c.HTTP.Burst <= 0 {
		c.HTTP.Burst = 120
	}
	if c.Cache.TTL <= 0 {
		c.Cache.TTL = 30 * time.Second
	}
	if c.Cache.Redis.KeyPrefix == "" {
		c.Cache.Redis.KeyPrefix = "lumera-streams:events"
	}
	if c.Stream.Tick <= 0 {
		c.Stream.Tick = time.Second
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Token.Symbol == "" {
		c.Token.Symbol = "APT"
	}
}

// Validate reports the first unusable value.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: nil config", ErrInvalid)
	}
	if !strings.HasPrefix(c.Node.URL, "http://") && !strings.HasPrefix(c.Node.URL, "https://") {
		return fmt.Errorf("%w: node.url must be http(s): %q", ErrInvalid, c.Node.URL)
	}
	if c.Module.Address == "" {
		return fmt.Errorf("%w: module.address is required", ErrInvalid)
	}
	if !strings.HasPrefix(c.Module.Address, "0x") {
		return fmt.Errorf("%w: module.address must be 0x-prefixed: %q", ErrInvalid, c.Module.Address)
	}
	if c.Stream.Tick < 100*time.Millisecond {
		return fmt.Errorf("%w: stream.tick below 100ms", ErrInvalid)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: logging.format must be text or json: %q", ErrInvalid, c.Logging.Format)
	}
	if c.Cache.Redis.DB < 0 {
		return fmt.Errorf("%w: cache.redis.db is negative", ErrInvalid)
	}
	return nil
}
