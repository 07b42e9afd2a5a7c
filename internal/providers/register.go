// Package providers wires the concrete provider adapters into a registry.
package providers

import (
	"github.com/skoslow/mediamine/internal/provider"
	"github.com/skoslow/mediamine/internal/providers/fanarttv"
	"github.com/skoslow/mediamine/internal/providers/tmdb"
	"github.com/skoslow/mediamine/internal/providers/tvdb"
)

// NewRegistry returns a registry with every built-in provider registered.
func NewRegistry() *provider.Registry {
	reg := provider.NewRegistry()
	reg.Register(tmdb.ProviderID, tmdb.NewAdapter, new(tmdb.Adapter).Capabilities())
	reg.Register(tvdb.ProviderID, tvdb.NewAdapter, new(tvdb.Adapter).Capabilities())
	reg.Register(fanarttv.ProviderID, fanarttv.NewAdapter, new(fanarttv.Adapter).Capabilities())
	return reg
}
