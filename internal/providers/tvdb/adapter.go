// Package tvdb adapts the TVDB API v4 client to the common provider
// contract.
package tvdb

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hbollon/go-edlib"

	"github.com/skoslow/mediamine/internal/provider"
	"github.com/skoslow/mediamine/pkg/tvdb"
)

// ProviderID is the registry name for this adapter.
const ProviderID = "tvdb"

var metadataFields = []string{"title", "overview", "year", "status"}

// artworkTypes maps TVDB artwork type IDs to asset types. Unmapped types
// are skipped.
var artworkTypes = map[int]provider.AssetType{
	tvdb.ArtworkSeriesBanner:     provider.AssetBanner,
	tvdb.ArtworkSeriesPoster:     provider.AssetPoster,
	tvdb.ArtworkSeriesBackground: provider.AssetBackground,
	tvdb.ArtworkSeriesClearLogo:  provider.AssetLogo,
}

// Adapter exposes TheTVDB through the common provider contract.
type Adapter struct {
	client *tvdb.Client
}

// NewAdapter is the provider.Factory for TheTVDB.
func NewAdapter(cfg provider.Config) (provider.Adapter, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("tvdb: api key required")
	}
	opts := []tvdb.Option{}
	if cfg.BaseURL != "" {
		opts = append(opts, tvdb.WithBaseURL(cfg.BaseURL))
	}
	return &Adapter{client: tvdb.New(cfg.APIKey, opts...)}, nil
}

// Capabilities implements provider.Adapter.
func (a *Adapter) Capabilities() provider.Capabilities {
	return provider.Capabilities{
		ID:             ProviderID,
		Name:           "TheTVDB",
		Category:       provider.CategoryBoth,
		EntityTypes:    []provider.EntityType{provider.EntitySeries},
		MetadataFields: metadataFields,
		AssetTypes: map[provider.EntityType][]provider.AssetType{
			provider.EntitySeries: {provider.AssetPoster, provider.AssetBackground, provider.AssetBanner, provider.AssetLogo},
		},
		RequiresAuth:     true,
		RateLimit:        provider.RateLimit{RequestsPerSecond: 10, Burst: 10},
		ExternalIDLookup: []provider.IDKind{provider.IDTVDB},
		Quality: provider.QualityHints{
			Completeness: 0.75,
			ImageQuality: 0.75,
			Curated:      true,
		},
	}
}

func seriesID(ids provider.ExternalIDs) (int, error) {
	raw := ids[provider.IDTVDB]
	if raw == "" {
		return 0, fmt.Errorf("tvdb: %w: no tvdb id", provider.ErrNotSupported)
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid tvdb id %q: %w", raw, err)
	}
	return id, nil
}

// Search implements provider.Adapter.
func (a *Adapter) Search(ctx context.Context, req provider.SearchRequest) ([]provider.SearchResult, error) {
	if req.EntityType != provider.EntitySeries {
		return nil, fmt.Errorf("tvdb: %w: entity type %s", provider.ErrNotSupported, req.EntityType)
	}

	matches, err := a.client.Search(ctx, req.Query)
	if err != nil {
		return nil, fmt.Errorf("tvdb search: %w", err)
	}

	results := make([]provider.SearchResult, 0, len(matches))
	for _, m := range matches {
		if req.Year > 0 && m.Year > 0 && m.Year != req.Year {
			continue
		}
		results = append(results, provider.SearchResult{
			ProviderID: ProviderID,
			ResultID:   strconv.Itoa(m.ID),
			Title:      m.Name,
			Year:       m.Year,
			IDs:        provider.ExternalIDs{provider.IDTVDB: strconv.Itoa(m.ID)},
			Confidence: searchConfidence(req.Query, m.Name),
		})
	}
	return results, nil
}

// searchConfidence scores how closely a result name matches the query.
func searchConfidence(query, name string) float64 {
	return float64(edlib.JaroWinklerSimilarity(strings.ToLower(query), strings.ToLower(name)))
}

// GetMetadata implements provider.Adapter.
func (a *Adapter) GetMetadata(ctx context.Context, req provider.MetadataRequest) (*provider.MetadataResponse, error) {
	if req.EntityType != provider.EntitySeries {
		return nil, fmt.Errorf("tvdb: %w: entity type %s", provider.ErrNotSupported, req.EntityType)
	}

	id, err := seriesID(req.IDs)
	if err != nil {
		return nil, err
	}

	series, err := a.client.GetSeries(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("tvdb series %d: %w", id, err)
	}

	fields := map[string]string{
		"title":    series.Name,
		"overview": series.Overview,
		"status":   series.Status,
	}
	if series.Year > 0 {
		fields["year"] = strconv.Itoa(series.Year)
	}
	for k, v := range fields {
		if v == "" {
			delete(fields, k)
		}
	}
	if len(req.Fields) > 0 {
		restricted := make(map[string]string, len(req.Fields))
		for _, f := range req.Fields {
			if v, ok := fields[f]; ok {
				restricted[f] = v
			}
		}
		fields = restricted
	}

	requested := req.Fields
	if len(requested) == 0 {
		requested = metadataFields
	}
	populated := 0
	for _, f := range requested {
		if fields[f] != "" {
			populated++
		}
	}

	return &provider.MetadataResponse{
		ProviderID:   ProviderID,
		ResultID:     strconv.Itoa(id),
		Fields:       fields,
		Completeness: float64(populated) / float64(len(requested)),
		Confidence:   0.75,
		UpdatedAt:    time.Now().UTC(),
	}, nil
}

// GetAssets implements provider.Adapter.
func (a *Adapter) GetAssets(ctx context.Context, req provider.AssetRequest) ([]provider.AssetCandidate, error) {
	if req.EntityType != provider.EntitySeries {
		return nil, fmt.Errorf("tvdb: %w: entity type %s", provider.ErrNotSupported, req.EntityType)
	}

	id, err := seriesID(req.IDs)
	if err != nil {
		return nil, err
	}

	artworks, err := a.client.GetArtworks(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("tvdb artworks %d: %w", id, err)
	}

	wanted := make(map[provider.AssetType]bool, len(req.AssetTypes))
	for _, at := range req.AssetTypes {
		wanted[at] = true
	}

	var candidates []provider.AssetCandidate
	for _, art := range artworks {
		assetType, ok := artworkTypes[art.Type]
		if !ok {
			continue
		}
		if len(wanted) > 0 && !wanted[assetType] {
			continue
		}
		candidates = append(candidates, provider.AssetCandidate{
			ProviderID:   ProviderID,
			ResultID:     strconv.Itoa(art.ID),
			Type:         assetType,
			URL:          art.Image,
			ThumbnailURL: art.Thumb,
			Width:        art.Width,
			Height:       art.Height,
			Quality:      provider.QualityForDimensions(art.Width, art.Height),
			Language:     art.Language,
			VoteCount:    int(art.Score),
		})
	}
	return candidates, nil
}

// TestConnection implements provider.Adapter.
func (a *Adapter) TestConnection(ctx context.Context) error {
	// A search round-trip exercises both login and an authenticated call.
	if _, err := a.client.Search(ctx, "the"); err != nil {
		return fmt.Errorf("tvdb connection test: %w", err)
	}
	return nil
}
