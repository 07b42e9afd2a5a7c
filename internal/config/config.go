// Package config handles TOML configuration loading with environment variable substitution.
package config

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"time"

	"github.com/BurntSushi/toml"
)

// Duration wraps time.Duration so TOML values can be written as "30s".
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the root configuration structure.
type Config struct {
	Server    ServerConfig              `toml:"server"`
	Database  DatabaseConfig            `toml:"database"`
	Providers map[string]ProviderConfig `toml:"providers"`
	Selection SelectionConfig           `toml:"selection"`
	Breaker   BreakerConfig             `toml:"breaker"`
	Cache     CacheConfig               `toml:"cache"`
	Events    EventsConfig              `toml:"events"`
}

type ServerConfig struct {
	ListenAddr  string   `toml:"listen_addr"`
	LogLevel    string   `toml:"log_level"`
	CallTimeout Duration `toml:"call_timeout"` // per-provider-call deadline
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

// ProviderConfig configures one metadata or artwork provider.
type ProviderConfig struct {
	Enabled  bool     `toml:"enabled"`
	APIKey   string   `toml:"api_key"`
	BaseURL  string   `toml:"base_url"`
	Priority int      `toml:"priority"`
	Language string   `toml:"language"`
	Timeout  Duration `toml:"timeout"`
}

// SelectionConfig tunes asset selection.
type SelectionConfig struct {
	PreferredLanguage string  `toml:"preferred_language"`
	AllowMultilingual bool    `toml:"allow_multilingual"`
	MinWidth          int     `toml:"min_width"`
	MinHeight         int     `toml:"min_height"`
	Quality           string  `toml:"quality"`
	MaxAssets         int     `toml:"max_assets"`
	SimilarityCutoff  float64 `toml:"similarity_cutoff"` // near-duplicate threshold
}

// BreakerConfig tunes the per-provider circuit breakers.
type BreakerConfig struct {
	FailureThreshold int      `toml:"failure_threshold"`
	ResetTimeout     Duration `toml:"reset_timeout"`
}

// CacheConfig tunes the metadata response cache.
type CacheConfig struct {
	TTL           Duration `toml:"ttl"`
	PruneInterval Duration `toml:"prune_interval"`
}

// EventsConfig tunes event log retention.
type EventsConfig struct {
	Retention     Duration `toml:"retention"`
	PruneInterval Duration `toml:"prune_interval"`
}

// Load reads and parses the configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Substitute environment variables
	content := substituteEnvVars(string(data))

	var cfg Config
	if _, err := toml.Decode(content, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = ":8787"
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Server.CallTimeout == 0 {
		c.Server.CallTimeout = Duration(15 * time.Second)
	}
	if c.Database.Path == "" {
		c.Database.Path = "./data/mediamine.db"
	}
	if c.Selection.PreferredLanguage == "" {
		c.Selection.PreferredLanguage = "en"
	}
	if c.Selection.Quality == "" {
		c.Selection.Quality = "any"
	}
	if c.Selection.MaxAssets == 0 {
		c.Selection.MaxAssets = 5
	}
	if c.Selection.SimilarityCutoff == 0 {
		c.Selection.SimilarityCutoff = 0.92
	}
	if c.Breaker.FailureThreshold == 0 {
		c.Breaker.FailureThreshold = 5
	}
	if c.Breaker.ResetTimeout == 0 {
		c.Breaker.ResetTimeout = Duration(60 * time.Second)
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = Duration(24 * time.Hour)
	}
	if c.Cache.PruneInterval == 0 {
		c.Cache.PruneInterval = Duration(time.Hour)
	}
	if c.Events.Retention == 0 {
		c.Events.Retention = Duration(7 * 24 * time.Hour)
	}
	if c.Events.PruneInterval == 0 {
		c.Events.PruneInterval = Duration(6 * time.Hour)
	}
}

// ProviderNames returns the configured provider names in sorted order.
func (c *Config) ProviderNames() []string {
	names := make([]string, 0, len(c.Providers))
	for name := range c.Providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadValidated loads the config and validates it, aggregating unresolved
// environment variables and validation failures into one ConfigError.
func LoadValidated(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	content := substituteEnvVars(string(data))
	missing := missingEnvVars(content)

	var cfg Config
	if _, err := toml.Decode(content, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.applyDefaults()

	cfgErr := &ConfigError{Path: path, Missing: missing, Errors: cfg.Validate()}
	if cfgErr.HasErrors() {
		return &cfg, cfgErr
	}
	return &cfg, nil
}

// missingEnvVars returns the names of ${VAR} references left unresolved.
func missingEnvVars(content string) []string {
	var missing []string
	seen := make(map[string]bool)
	for _, m := range envVarPattern.FindAllStringSubmatch(content, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			missing = append(missing, m[1])
		}
	}
	return missing
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

func substituteEnvVars(content string) string {
	return envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		varName := match[2 : len(match)-1] // Strip ${ and }
		if value, ok := os.LookupEnv(varName); ok {
			return value
		}
		return match // Leave unchanged if not found
	})
}
