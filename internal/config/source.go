package config

import (
	"context"
	"fmt"

	"github.com/skoslow/mediamine/internal/provider"
)

// ProviderSource adapts the config file into a provider.ConfigSource. It
// re-reads the file on every call so edits take effect without a restart.
type ProviderSource struct {
	path string
}

// NewProviderSource creates a source backed by the given config file.
func NewProviderSource(path string) *ProviderSource {
	return &ProviderSource{path: path}
}

// GetAll implements provider.ConfigSource.
func (s *ProviderSource) GetAll(ctx context.Context) ([]provider.Config, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg, err := Load(s.path)
	if err != nil {
		return nil, fmt.Errorf("loading provider configs: %w", err)
	}

	return cfg.ProviderConfigs(), nil
}

// ProviderConfigs converts the [providers.*] sections into runtime
// provider configurations, in sorted name order.
func (c *Config) ProviderConfigs() []provider.Config {
	configs := make([]provider.Config, 0, len(c.Providers))
	for _, name := range c.ProviderNames() {
		p := c.Providers[name]
		configs = append(configs, provider.Config{
			Name:     name,
			Enabled:  p.Enabled,
			APIKey:   p.APIKey,
			BaseURL:  p.BaseURL,
			Priority: p.Priority,
			Language: p.Language,
			Timeout:  p.Timeout.Std(),
		})
	}
	return configs
}
