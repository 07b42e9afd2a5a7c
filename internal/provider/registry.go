package provider

import (
	"fmt"
	"sync"
)

// Registry is the catalog mapping provider ids to adapter factories and
// their immutable capabilities. It is populated once at process start,
// owned by startup code and injected into the orchestrator; after startup
// it is effectively read-only.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	caps      map[string]Capabilities
	order     []string // registration order, for deterministic listings
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		caps:      make(map[string]Capabilities),
	}
}

// Register adds a provider. Registration is idempotent; the last
// registration for an id wins.
func (r *Registry) Register(id string, factory Factory, caps Capabilities) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[id]; !exists {
		r.order = append(r.order, id)
	}
	r.factories[id] = factory
	r.caps[id] = caps
}

// Capabilities returns the descriptor for a provider id.
func (r *Registry) Capabilities(id string) (Capabilities, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	caps, ok := r.caps[id]
	return caps, ok
}

// IDs returns all registered provider ids in registration order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, len(r.order))
	copy(ids, r.order)
	return ids
}

// ForEntityType returns the capabilities of every provider supporting the
// entity type, in registration order.
func (r *Registry) ForEntityType(entity EntityType) []Capabilities {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Capabilities
	for _, id := range r.order {
		if caps := r.caps[id]; caps.SupportsEntity(entity) {
			out = append(out, caps)
		}
	}
	return out
}

// ForAssetType returns the capabilities of every provider supplying the
// asset type for the entity type, in registration order.
func (r *Registry) ForAssetType(entity EntityType, asset AssetType) []Capabilities {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Capabilities
	for _, id := range r.order {
		if caps := r.caps[id]; caps.SupportsAsset(entity, asset) {
			out = append(out, caps)
		}
	}
	return out
}

// Create instantiates a live adapter for the configured provider. The
// registry does not cache instances; callers own their lifetime.
func (r *Registry) Create(cfg Config) (Adapter, error) {
	r.mu.RLock()
	factory, ok := r.factories[cfg.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%q: %w", cfg.Name, ErrNotRegistered)
	}
	adapter, err := factory(cfg)
	if err != nil {
		return nil, fmt.Errorf("create provider %q: %w", cfg.Name, err)
	}
	return adapter, nil
}
