package fanarttv

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/skoslow/mediamine/internal/provider"
)

// ProviderID is the registry name for this adapter.
const ProviderID = "fanart_tv"

// dimensions holds the fixed upload size fanart.tv enforces per category.
type dimensions struct {
	width, height int
}

var movieDims = map[provider.AssetType]dimensions{
	provider.AssetPoster:     {1000, 1426},
	provider.AssetBackground: {1920, 1080},
	provider.AssetLogo:       {800, 310},
	provider.AssetDisc:       {1000, 1000},
	provider.AssetBanner:     {1000, 185},
	provider.AssetThumb:      {1000, 562},
}

// assetOrder fixes the order candidates are emitted in, so repeated calls
// return identical slices and downstream tie-breaks stay stable.
var assetOrder = []provider.AssetType{
	provider.AssetPoster,
	provider.AssetBackground,
	provider.AssetLogo,
	provider.AssetDisc,
	provider.AssetBanner,
	provider.AssetThumb,
}

var showDims = map[provider.AssetType]dimensions{
	provider.AssetPoster:     {680, 1000},
	provider.AssetBackground: {1920, 1080},
	provider.AssetLogo:       {800, 310},
	provider.AssetBanner:     {758, 140},
	provider.AssetThumb:      {500, 281},
}

// Adapter exposes fanart.tv through the common provider contract. It is
// an artwork-only provider.
type Adapter struct {
	client *Client
}

// NewAdapter is the provider.Factory for fanart.tv.
func NewAdapter(cfg provider.Config) (provider.Adapter, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("fanart_tv: api key required")
	}
	opts := []Option{}
	if cfg.BaseURL != "" {
		opts = append(opts, WithBaseURL(cfg.BaseURL))
	}
	return &Adapter{client: NewClient(cfg.APIKey, opts...)}, nil
}

// Capabilities implements provider.Adapter.
func (a *Adapter) Capabilities() provider.Capabilities {
	return provider.Capabilities{
		ID:          ProviderID,
		Name:        "fanart.tv",
		Category:    provider.CategoryImages,
		EntityTypes: []provider.EntityType{provider.EntityMovie, provider.EntitySeries},
		AssetTypes: map[provider.EntityType][]provider.AssetType{
			provider.EntityMovie:  {provider.AssetPoster, provider.AssetBackground, provider.AssetLogo, provider.AssetDisc, provider.AssetBanner, provider.AssetThumb},
			provider.EntitySeries: {provider.AssetPoster, provider.AssetBackground, provider.AssetLogo, provider.AssetBanner, provider.AssetThumb},
		},
		RequiresAuth:     true,
		RateLimit:        provider.RateLimit{RequestsPerSecond: 2, Burst: 5},
		ExternalIDLookup: []provider.IDKind{provider.IDTMDB, provider.IDTVDB},
		Quality: provider.QualityHints{
			ImageQuality: 0.95,
			Curated:      true,
		},
	}
}

// Search implements provider.Adapter. fanart.tv has no search API.
func (a *Adapter) Search(ctx context.Context, req provider.SearchRequest) ([]provider.SearchResult, error) {
	return nil, fmt.Errorf("fanart_tv: %w: search", provider.ErrNotSupported)
}

// GetMetadata implements provider.Adapter. fanart.tv serves artwork only.
func (a *Adapter) GetMetadata(ctx context.Context, req provider.MetadataRequest) (*provider.MetadataResponse, error) {
	return nil, fmt.Errorf("fanart_tv: %w: metadata", provider.ErrNotSupported)
}

// GetAssets implements provider.Adapter.
func (a *Adapter) GetAssets(ctx context.Context, req provider.AssetRequest) ([]provider.AssetCandidate, error) {
	var groups map[provider.AssetType][]Image
	var dims map[provider.AssetType]dimensions

	switch req.EntityType {
	case provider.EntityMovie:
		tmdbID := req.IDs[provider.IDTMDB]
		if tmdbID == "" {
			return nil, fmt.Errorf("fanart_tv: %w: no tmdb id", provider.ErrNotSupported)
		}
		artwork, err := a.client.GetMovieArtwork(ctx, tmdbID)
		if err != nil {
			return nil, fmt.Errorf("fanart.tv movie %s: %w", tmdbID, err)
		}
		groups = map[provider.AssetType][]Image{
			provider.AssetPoster:     artwork.Posters,
			provider.AssetBackground: artwork.Background,
			provider.AssetLogo:       artwork.HDLogos,
			provider.AssetDisc:       artwork.Discs,
			provider.AssetBanner:     artwork.Banners,
			provider.AssetThumb:      artwork.Thumbs,
		}
		dims = movieDims
	case provider.EntitySeries:
		tvdbID := req.IDs[provider.IDTVDB]
		if tvdbID == "" {
			return nil, fmt.Errorf("fanart_tv: %w: no tvdb id", provider.ErrNotSupported)
		}
		artwork, err := a.client.GetShowArtwork(ctx, tvdbID)
		if err != nil {
			return nil, fmt.Errorf("fanart.tv series %s: %w", tvdbID, err)
		}
		groups = map[provider.AssetType][]Image{
			provider.AssetPoster:     artwork.Posters,
			provider.AssetBackground: artwork.Background,
			provider.AssetLogo:       artwork.HDLogos,
			provider.AssetBanner:     artwork.Banners,
			provider.AssetThumb:      artwork.Thumbs,
		}
		dims = showDims
	default:
		return nil, fmt.Errorf("fanart_tv: %w: entity type %s", provider.ErrNotSupported, req.EntityType)
	}

	wanted := make(map[provider.AssetType]bool, len(req.AssetTypes))
	for _, at := range req.AssetTypes {
		wanted[at] = true
	}

	var candidates []provider.AssetCandidate
	for _, assetType := range assetOrder {
		images := groups[assetType]
		if len(wanted) > 0 && !wanted[assetType] {
			continue
		}
		d := dims[assetType]
		for _, img := range images {
			likes, _ := strconv.Atoi(img.Likes)
			lang := img.Lang
			if lang == "00" { // fanart.tv's marker for textless artwork
				lang = ""
			}
			candidates = append(candidates, provider.AssetCandidate{
				ProviderID: ProviderID,
				ResultID:   img.ID,
				Type:       assetType,
				URL:        img.URL,
				Width:      d.width,
				Height:     d.height,
				Quality:    provider.QualityForDimensions(d.width, d.height),
				Language:   lang,
				VoteCount:  likes,
			})
		}
	}
	return candidates, nil
}

// TestConnection implements provider.Adapter.
func (a *Adapter) TestConnection(ctx context.Context) error {
	// The Matrix is a stable fixture title on fanart.tv.
	if _, err := a.client.GetMovieArtwork(ctx, "603"); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("fanart.tv connection test: %w", err)
	}
	return nil
}
