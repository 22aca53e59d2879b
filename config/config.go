// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvLocal is the environment in which the discovery cache is bypassed.
const EnvLocal = "local"

// Cache store backends.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config is the root configuration structure.
type Config struct {
	Environment         string         `yaml:"environment"`
	Cache               CacheConfig    `yaml:"cache"`
	DisabledBlocks      []string       `yaml:"disabled_blocks"`
	FilterMissingBlocks bool           `yaml:"filter_missing_blocks"`
	Media               MediaConfig    `yaml:"media"`
	Database            DatabaseConfig `yaml:"database"`
	Server              ServerConfig   `yaml:"server"`
	Logging             LoggingConfig  `yaml:"logging"`
	Metrics             MetricsConfig  `yaml:"metrics"`
}

// CacheConfig configures the block discovery cache. TTL is in seconds.
// Store selects the "memory" or "sqlite" backend; PurgeSchedule is the cron
// spec used to drop expired sqlite entries.
type CacheConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Key           string `yaml:"key"`
	TTL           int    `yaml:"ttl"`
	Store         string `yaml:"store"`
	PurgeSchedule string `yaml:"purge_schedule"`
}

// TTLDuration returns TTL as a duration.
func (c CacheConfig) TTLDuration() time.Duration {
	return time.Duration(c.TTL) * time.Second
}

// MediaConfig configures media URL resolution.
type MediaConfig struct {
	BaseURL string `yaml:"base_url"`
}

// DatabaseConfig configures the SQLite database used for pages and the
// sqlite cache store.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "console"
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// IsLocal reports whether the discovery cache should be bypassed.
func (c *Config) IsLocal() bool {
	return c.Environment == EnvLocal
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse builds a configuration from YAML bytes. Environment variables in the
// document are expanded and PAGEBLOCKS_* variables override its values.
func Parse(data []byte) (*Config, error) {
	data = []byte(os.ExpandEnv(string(data)))

	// absent booleans keep their defaults
	cfg := defaultBooleans()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return finish(cfg)
}

// LoadFromEnv creates configuration from defaults and environment variables.
//
// Environment variables:
//
//	PAGEBLOCKS_ENVIRONMENT            - "local" bypasses the discovery cache
//	PAGEBLOCKS_CACHE_ENABLED          - enable the discovery cache (default: true)
//	PAGEBLOCKS_CACHE_KEY              - cache key (default: pageblocks.discovery)
//	PAGEBLOCKS_CACHE_TTL              - cache TTL in seconds (default: 3600)
//	PAGEBLOCKS_CACHE_STORE            - memory or sqlite (default: memory)
//	PAGEBLOCKS_DISABLED_BLOCKS        - comma separated block keys
//	PAGEBLOCKS_FILTER_MISSING_BLOCKS  - drop sections of unknown type
//	PAGEBLOCKS_MEDIA_BASE_URL         - base URL for media references
//	PAGEBLOCKS_DATABASE_DSN           - SQLite path (default: pageblocks.db)
//	PAGEBLOCKS_SERVER_HOST            - server host (default: 0.0.0.0)
//	PAGEBLOCKS_SERVER_PORT            - server port (default: 8080)
//	PAGEBLOCKS_LOG_LEVEL              - debug, info, warn, error (default: info)
//	PAGEBLOCKS_LOG_FORMAT             - json or console (default: json)
//	PAGEBLOCKS_METRICS_ENABLED        - expose /metrics (default: true)
func LoadFromEnv() (*Config, error) {
	return finish(defaultBooleans())
}

// LoadWithFallback loads path when it exists, otherwise falls back to
// environment variables and defaults.
func LoadWithFallback(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return LoadFromEnv()
}

func defaultBooleans() *Config {
	return &Config{
		Cache:   CacheConfig{Enabled: true},
		Metrics: MetricsConfig{Enabled: true},
	}
}

func finish(cfg *Config) (*Config, error) {
	applyEnvOverrides(cfg)
	setDefaults(cfg)
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides applies PAGEBLOCKS_* environment variables. Environment
// variables always override file-based configuration.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PAGEBLOCKS_ENVIRONMENT"); v != "" {
		cfg.Environment = v
	}

	if v := os.Getenv("PAGEBLOCKS_CACHE_ENABLED"); v != "" {
		cfg.Cache.Enabled = parseBool(v)
	}
	if v := os.Getenv("PAGEBLOCKS_CACHE_KEY"); v != "" {
		cfg.Cache.Key = v
	}
	if v := os.Getenv("PAGEBLOCKS_CACHE_TTL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Cache.TTL = n
		}
	}
	if v := os.Getenv("PAGEBLOCKS_CACHE_STORE"); v != "" {
		cfg.Cache.Store = v
	}
	if v := os.Getenv("PAGEBLOCKS_CACHE_PURGE_SCHEDULE"); v != "" {
		cfg.Cache.PurgeSchedule = v
	}

	if v, ok := os.LookupEnv("PAGEBLOCKS_DISABLED_BLOCKS"); ok {
		cfg.DisabledBlocks = splitList(v)
	}
	if v := os.Getenv("PAGEBLOCKS_FILTER_MISSING_BLOCKS"); v != "" {
		cfg.FilterMissingBlocks = parseBool(v)
	}

	if v := os.Getenv("PAGEBLOCKS_MEDIA_BASE_URL"); v != "" {
		cfg.Media.BaseURL = v
	}
	if v := os.Getenv("PAGEBLOCKS_DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}

	if v := os.Getenv("PAGEBLOCKS_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("PAGEBLOCKS_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	if v := os.Getenv("PAGEBLOCKS_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("PAGEBLOCKS_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	if v := os.Getenv("PAGEBLOCKS_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}
	if v := os.Getenv("PAGEBLOCKS_METRICS_PATH"); v != "" {
		cfg.Metrics.Path = v
	}
}

// parseBool parses a boolean from common string values.
func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func setDefaults(cfg *Config) {
	if cfg.Environment == "" {
		cfg.Environment = "production"
	}

	if cfg.Cache.Key == "" {
		cfg.Cache.Key = "pageblocks.discovery"
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = 3600
	}
	if cfg.Cache.Store == "" {
		cfg.Cache.Store = StoreMemory
	}
	if cfg.Cache.PurgeSchedule == "" {
		cfg.Cache.PurgeSchedule = "@every 5m"
	}

	if cfg.Database.DSN == "" {
		cfg.Database.DSN = "pageblocks.db"
	}

	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}

func validate(cfg *Config) error {
	if cfg.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative, got %d", cfg.Cache.TTL)
	}

	validStores := map[string]bool{StoreMemory: true, StoreSQLite: true}
	if !validStores[cfg.Cache.Store] {
		return fmt.Errorf("cache.store must be 'memory' or 'sqlite', got %q", cfg.Cache.Store)
	}

	for i, key := range cfg.DisabledBlocks {
		if strings.TrimSpace(key) == "" {
			return fmt.Errorf("disabled_blocks[%d] is empty", i)
		}
	}

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", cfg.Server.Port)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("logging.format must be 'json' or 'console', got %q", cfg.Logging.Format)
	}

	if !strings.HasPrefix(cfg.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with '/', got %q", cfg.Metrics.Path)
	}
	return nil
}
