package metadata

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/skoslow/mediamine/internal/assets"
	"github.com/skoslow/mediamine/internal/events"
	"github.com/skoslow/mediamine/internal/provider"
)

// Fetcher is the slice of the orchestrator the service depends on.
type Fetcher interface {
	FetchMetadata(ctx context.Context, entity provider.EntityType, ids provider.ExternalIDs, opts provider.MetadataOptions) (*provider.MetadataResponse, error)
	FetchAssetCandidates(ctx context.Context, entity provider.EntityType, ids provider.ExternalIDs, assetTypes []provider.AssetType) []provider.AssetCandidate
}

// SelectionSettings tunes asset selection for enrichment.
type SelectionSettings struct {
	PreferredLanguage string
	AllowMultilingual bool
	MinWidth          int
	MinHeight         int
	Quality           provider.Quality
	MaxAssets         int
	SimilarityCutoff  float64
	ProviderPriority  []string
}

// EnrichRequest describes one entity to enrich.
type EnrichRequest struct {
	EntityType   provider.EntityType
	IDs          provider.ExternalIDs
	Fields       []string
	Language     string
	AssetTypes   []provider.AssetType
	ForceRefresh bool
}

// EnrichResult is the combined outcome of one enrichment pass.
type EnrichResult struct {
	Metadata *provider.MetadataResponse                      `json:"metadata"`
	Assets   map[provider.AssetType][]provider.AssetCandidate `json:"assets,omitempty"`
	CacheHit bool                                            `json:"-"`
}

// Service runs full metadata plus asset enrichment for library entities,
// with response caching and request coalescing.
type Service struct {
	fetcher   Fetcher
	cache     *Cache
	bus       *events.Bus
	logger    *slog.Logger
	ttl       time.Duration
	selection SelectionSettings
	group     singleflight.Group
}

// ServiceOption configures the service.
type ServiceOption func(*Service)

// WithTTL overrides the cache TTL.
func WithTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) { s.ttl = ttl }
}

// WithSelection overrides the asset selection settings.
func WithSelection(sel SelectionSettings) ServiceOption {
	return func(s *Service) { s.selection = sel }
}

// NewService creates the enrichment service. The cache and bus are
// optional - pass nil to disable caching or event publishing.
func NewService(fetcher Fetcher, cache *Cache, bus *events.Bus, logger *slog.Logger, opts ...ServiceOption) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		fetcher: fetcher,
		cache:   cache,
		bus:     bus,
		logger:  logger.With("component", "enrichment"),
		ttl:     24 * time.Hour,
		selection: SelectionSettings{
			PreferredLanguage: "en",
			AllowMultilingual: true,
			Quality:           provider.QualityAny,
			MaxAssets:         5,
			SimilarityCutoff:  0.92,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Enrich fetches metadata and selects the best assets for one entity.
// Identical concurrent requests are coalesced into a single upstream pass.
func (s *Service) Enrich(ctx context.Context, req EnrichRequest) (*EnrichResult, error) {
	key := cacheKey(req)

	v, err, _ := s.group.Do(key, func() (any, error) {
		return s.enrich(ctx, key, req)
	})
	if err != nil {
		return nil, err
	}
	return v.(*EnrichResult), nil
}

func (s *Service) enrich(ctx context.Context, key string, req EnrichRequest) (*EnrichResult, error) {
	if s.cache != nil && !req.ForceRefresh {
		cached, err := s.cache.Get(ctx, key)
		switch {
		case err == nil:
			cached.CacheHit = true
			s.publishCompleted(ctx, req.EntityType, cached)
			return cached, nil
		case !errors.Is(err, ErrCacheMiss):
			// Corrupt entry, drop it and fall through to a fresh fetch.
			s.logger.Warn("discarding unreadable cache entry", "key", key, "error", err)
			_ = s.cache.Invalidate(ctx, key)
		}
	}

	meta, err := s.fetcher.FetchMetadata(ctx, req.EntityType, req.IDs, provider.MetadataOptions{
		Fields:   req.Fields,
		Language: req.Language,
	})
	if err != nil {
		return nil, fmt.Errorf("enrich %s: %w", req.EntityType, err)
	}

	result := &EnrichResult{Metadata: meta}

	if len(req.AssetTypes) > 0 {
		candidates := s.fetcher.FetchAssetCandidates(ctx, req.EntityType, req.IDs, req.AssetTypes)
		result.Assets = s.selectAssets(req.AssetTypes, candidates)
	}

	s.publishCompleted(ctx, req.EntityType, result)

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, result, s.ttl); err != nil {
			s.logger.Warn("failed to cache enrichment result", "key", key, "error", err)
		}
	}

	return result, nil
}

// selectAssets runs selection per asset type over the pooled candidates.
func (s *Service) selectAssets(assetTypes []provider.AssetType, candidates []provider.AssetCandidate) map[provider.AssetType][]provider.AssetCandidate {
	selected := make(map[provider.AssetType][]provider.AssetCandidate)
	for _, at := range assetTypes {
		selector, err := assets.New(s.selectorConfig(at), s.logger)
		if err != nil {
			s.logger.Error("invalid selection settings", "asset_type", at, "error", err)
			continue
		}
		if best := selector.SelectBest(candidates); len(best) > 0 {
			selected[at] = best
		}
	}
	return selected
}

func (s *Service) selectorConfig(at provider.AssetType) assets.Config {
	cfg := assets.DefaultConfig(at, s.selection.MaxAssets)
	cfg.MinWidth = s.selection.MinWidth
	cfg.MinHeight = s.selection.MinHeight
	if s.selection.Quality != "" {
		cfg.QualityPreference = s.selection.Quality
	}
	if s.selection.PreferredLanguage != "" {
		cfg.PreferLanguage = s.selection.PreferredLanguage
	}
	cfg.AllowMultilingual = s.selection.AllowMultilingual
	if s.selection.SimilarityCutoff > 0 {
		cfg.PHashThreshold = s.selection.SimilarityCutoff
	}
	cfg.ProviderPriority = s.selection.ProviderPriority
	return cfg
}

func (s *Service) publishCompleted(ctx context.Context, entity provider.EntityType, result *EnrichResult) {
	if s.bus == nil || result.Metadata == nil {
		return
	}
	assetCount := 0
	for _, list := range result.Assets {
		assetCount += len(list)
	}
	_ = s.bus.Publish(ctx, &events.EnrichmentCompleted{
		BaseEvent:  events.NewBaseEvent(events.EventEnrichmentCompleted, uuid.NewString()),
		EntityType: string(entity),
		Fields:     len(result.Metadata.Fields),
		Assets:     assetCount,
		CacheHit:   result.CacheHit,
	})
}

// cacheKey builds a stable key from the request's identifying parts.
func cacheKey(req EnrichRequest) string {
	ids := make([]string, 0, len(req.IDs))
	for kind, value := range req.IDs {
		ids = append(ids, string(kind)+"="+value)
	}
	sort.Strings(ids)

	fields := append([]string(nil), req.Fields...)
	sort.Strings(fields)

	types := make([]string, 0, len(req.AssetTypes))
	for _, at := range req.AssetTypes {
		types = append(types, string(at))
	}
	sort.Strings(types)

	return strings.Join([]string{
		"enrich",
		string(req.EntityType),
		strings.Join(ids, ","),
		req.Language,
		strings.Join(fields, ","),
		strings.Join(types, ","),
	}, "|")
}
