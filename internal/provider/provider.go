// Package provider defines the common contract for external metadata and
// artwork providers, and the orchestration that queries them with fallback.
package provider

import (
	"context"
	"time"
)

//go:generate mockgen -destination mocks/mock_provider.go -package mocks github.com/skoslow/mediamine/internal/provider Adapter,ConfigSource,ProgressSink

// EntityType identifies the kind of library entity being enriched.
type EntityType string

const (
	EntityMovie   EntityType = "movie"
	EntitySeries  EntityType = "series"
	EntityEpisode EntityType = "episode"
	EntityArtist  EntityType = "artist"
	EntityAlbum   EntityType = "album"
)

// AssetType identifies a kind of visual or video asset.
type AssetType string

const (
	AssetPoster     AssetType = "poster"
	AssetBackground AssetType = "background"
	AssetBanner     AssetType = "banner"
	AssetLogo       AssetType = "logo"
	AssetDisc       AssetType = "disc"
	AssetThumb      AssetType = "thumb"
	AssetTrailer    AssetType = "trailer"
)

// IDKind identifies an external identifier namespace.
type IDKind string

const (
	IDTMDB        IDKind = "tmdb"
	IDIMDB        IDKind = "imdb"
	IDTVDB        IDKind = "tvdb"
	IDMusicBrainz IDKind = "musicbrainz"
	IDAudioDB     IDKind = "audiodb"
)

// ExternalIDs maps an ID namespace to its value for one entity.
type ExternalIDs map[IDKind]string

// HasAny reports whether at least one of the given kinds is present.
func (ids ExternalIDs) HasAny(kinds []IDKind) bool {
	for _, k := range kinds {
		if ids[k] != "" {
			return true
		}
	}
	return false
}

// Quality is a coarse quality tier for an asset.
type Quality string

const (
	QualityAny Quality = "any"
	QualitySD  Quality = "sd"
	QualityHD  Quality = "hd"
	Quality4K  Quality = "4k"
)

// Rank orders quality tiers for comparison. Unknown tiers rank lowest.
func (q Quality) Rank() int {
	switch q {
	case QualitySD:
		return 1
	case QualityHD:
		return 2
	case Quality4K:
		return 3
	default:
		return 0
	}
}

// QualityForDimensions buckets an image into a quality tier by pixel count.
func QualityForDimensions(width, height int) Quality {
	pixels := width * height
	switch {
	case pixels >= 8_000_000:
		return Quality4K
	case pixels >= 2_000_000:
		return QualityHD
	case pixels > 0:
		return QualitySD
	default:
		return QualityAny
	}
}

// Category describes what a provider can supply.
type Category string

const (
	CategoryMetadata Category = "metadata"
	CategoryImages   Category = "images"
	CategoryBoth     Category = "both"
)

// HasMetadata reports whether the category includes metadata.
func (c Category) HasMetadata() bool { return c == CategoryMetadata || c == CategoryBoth }

// HasImages reports whether the category includes images.
func (c Category) HasImages() bool { return c == CategoryImages || c == CategoryBoth }

// RateLimit describes a provider's request budget.
type RateLimit struct {
	RequestsPerSecond float64
	Burst             int
}

// QualityHints describes the expected quality of a provider's data.
type QualityHints struct {
	Completeness float64 // typical metadata completeness [0,1]
	ImageQuality float64 // typical artwork quality [0,1]
	Curated      bool    // human-curated vs. user-contributed
}

// Capabilities is the static descriptor for a provider. Registered once at
// process start and never mutated afterwards.
type Capabilities struct {
	ID               string
	Name             string
	Category         Category
	EntityTypes      []EntityType
	MetadataFields   []string
	AssetTypes       map[EntityType][]AssetType
	RequiresAuth     bool
	RateLimit        RateLimit
	ExternalIDLookup []IDKind
	Quality          QualityHints
}

// SupportsEntity reports whether the provider handles the entity type.
func (c Capabilities) SupportsEntity(t EntityType) bool {
	for _, et := range c.EntityTypes {
		if et == t {
			return true
		}
	}
	return false
}

// SupportsAsset reports whether the provider supplies the asset type for
// the entity type.
func (c Capabilities) SupportsAsset(entity EntityType, asset AssetType) bool {
	for _, at := range c.AssetTypes[entity] {
		if at == asset {
			return true
		}
	}
	return false
}

// SupportsLookup reports whether any of the entity's external IDs can be
// used to query this provider.
func (c Capabilities) SupportsLookup(ids ExternalIDs) bool {
	return ids.HasAny(c.ExternalIDLookup)
}

// Config is the runtime configuration for one provider. It is loaded fresh
// on every orchestration call so UI changes take effect immediately.
type Config struct {
	Name     string
	Enabled  bool
	APIKey   string
	BaseURL  string        // override, empty for the vendor default
	Priority int           // lower values are tried earlier in the fallback chain
	Language string        // preferred content language, e.g. "en"
	Timeout  time.Duration // per-call timeout, zero for the orchestrator default
}

// ConfigSource supplies the current provider configurations.
type ConfigSource interface {
	GetAll(ctx context.Context) ([]Config, error)
}

// MetadataRequest asks a provider for metadata about one entity.
type MetadataRequest struct {
	EntityType EntityType
	IDs        ExternalIDs
	Fields     []string // requested fields, empty for everything the provider has
	Language   string
}

// AssetRequest asks a provider for asset candidates for one entity.
type AssetRequest struct {
	EntityType EntityType
	IDs        ExternalIDs
	AssetTypes []AssetType
	Language   string
}

// SearchRequest asks a provider to find entities by name.
type SearchRequest struct {
	EntityType EntityType
	Query      string
	Year       int
}

// SearchResult is one match from a provider search.
type SearchResult struct {
	ProviderID string
	ResultID   string
	Title      string
	Year       int
	IDs        ExternalIDs
	Confidence float64
}

// MetadataResponse is one provider's metadata result, or the aggregate of
// several. Responses are never mutated after creation; merging produces a
// fresh response.
type MetadataResponse struct {
	ProviderID   string
	ResultID     string
	Fields       map[string]string
	Completeness float64 // [0,1]
	Confidence   float64 // [0,1]
	UpdatedAt    time.Time
}

// AssetCandidate is one discovered image or video option. Candidates are
// immutable value objects; selection filters and orders them, it never
// modifies them.
type AssetCandidate struct {
	ProviderID   string
	ResultID     string
	Type         AssetType
	URL          string
	ThumbnailURL string
	Width        int
	Height       int
	AspectRatio  float64 // zero means derive from Width/Height
	Quality      Quality
	Language     string
	VoteCount    int
	VoteAverage  float64
	Preferred    bool // the provider's own primary choice

	// Hashes are filled in by the download pipeline, not by providers.
	ContentHash    string
	PerceptualHash string
	DifferenceHash string
}

// Ratio returns the candidate's aspect ratio, deriving it from the
// dimensions when not set explicitly.
func (a AssetCandidate) Ratio() float64 {
	if a.AspectRatio > 0 {
		return a.AspectRatio
	}
	if a.Width > 0 && a.Height > 0 {
		return float64(a.Width) / float64(a.Height)
	}
	return 0
}

// Adapter is the contract every provider implements. Adapters translate
// their vendor wire format into the common shapes; nothing vendor-specific
// leaks past this interface.
type Adapter interface {
	Capabilities() Capabilities
	Search(ctx context.Context, req SearchRequest) ([]SearchResult, error)
	GetMetadata(ctx context.Context, req MetadataRequest) (*MetadataResponse, error)
	GetAssets(ctx context.Context, req AssetRequest) ([]AssetCandidate, error)
	TestConnection(ctx context.Context) error
}

// Factory builds a live adapter from its runtime configuration.
type Factory func(cfg Config) (Adapter, error)
