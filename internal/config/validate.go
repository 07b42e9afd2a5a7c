// internal/config/validate.go
package config

import "fmt"

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true, "": true,
}

var validQualities = map[string]bool{
	"any": true, "sd": true, "hd": true, "4k": true, "": true,
}

var knownProviders = map[string]bool{
	"tmdb": true, "tvdb": true, "fanart_tv": true,
}

var authRequired = map[string]bool{
	"tmdb": true, "tvdb": true, "fanart_tv": true,
}

// Validate checks the configuration for errors.
// Returns a slice of error messages (empty if valid).
func (c *Config) Validate() []string {
	var errs []string

	if !validLogLevels[c.Server.LogLevel] {
		errs = append(errs, fmt.Sprintf("server.log_level: must be one of debug, info, warn, error; got %q", c.Server.LogLevel))
	}
	if c.Server.CallTimeout < 0 {
		errs = append(errs, "server.call_timeout: must not be negative")
	}

	if len(c.Providers) == 0 {
		errs = append(errs, "providers: at least one provider must be configured")
	}
	enabled := 0
	for _, name := range c.ProviderNames() {
		p := c.Providers[name]
		if !knownProviders[name] {
			errs = append(errs, fmt.Sprintf("providers.%s: unknown provider", name))
			continue
		}
		if p.Enabled {
			enabled++
			if authRequired[name] && p.APIKey == "" {
				errs = append(errs, fmt.Sprintf("providers.%s.api_key: required when enabled", name))
			}
		}
		if p.Priority < 0 {
			errs = append(errs, fmt.Sprintf("providers.%s.priority: must not be negative", name))
		}
		if p.Timeout < 0 {
			errs = append(errs, fmt.Sprintf("providers.%s.timeout: must not be negative", name))
		}
	}
	if len(c.Providers) > 0 && enabled == 0 {
		errs = append(errs, "providers: at least one provider must be enabled")
	}

	if !validQualities[c.Selection.Quality] {
		errs = append(errs, fmt.Sprintf("selection.quality: must be one of any, sd, hd, 4k; got %q", c.Selection.Quality))
	}
	if c.Selection.MaxAssets < 0 {
		errs = append(errs, "selection.max_assets: must not be negative")
	}
	if c.Selection.MinWidth < 0 || c.Selection.MinHeight < 0 {
		errs = append(errs, "selection: min_width and min_height must not be negative")
	}
	if c.Selection.SimilarityCutoff < 0 || c.Selection.SimilarityCutoff > 1 {
		errs = append(errs, fmt.Sprintf("selection.similarity_cutoff: must be within (0, 1], got %v", c.Selection.SimilarityCutoff))
	}

	if c.Breaker.FailureThreshold < 0 {
		errs = append(errs, "breaker.failure_threshold: must not be negative")
	}
	if c.Breaker.ResetTimeout < 0 {
		errs = append(errs, "breaker.reset_timeout: must not be negative")
	}

	return errs
}
