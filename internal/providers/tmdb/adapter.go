package tmdb

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hbollon/go-edlib"

	"github.com/skoslow/mediamine/internal/provider"
)

// ProviderID is the registry name for this adapter.
const ProviderID = "tmdb"

var metadataFields = []string{
	"title", "overview", "tagline", "year", "release_date",
	"runtime", "status", "genres", "vote_average", "vote_count", "imdb_id",
}

// Adapter exposes the TMDB client through the common provider contract.
type Adapter struct {
	client   *Client
	language string
}

// NewAdapter is the provider.Factory for TMDB.
func NewAdapter(cfg provider.Config) (provider.Adapter, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("tmdb: api key required")
	}
	opts := []Option{}
	if cfg.BaseURL != "" {
		opts = append(opts, WithBaseURL(cfg.BaseURL))
	}
	return &Adapter{
		client:   NewClient(cfg.APIKey, opts...),
		language: cfg.Language,
	}, nil
}

// Capabilities implements provider.Adapter.
func (a *Adapter) Capabilities() provider.Capabilities {
	return provider.Capabilities{
		ID:             ProviderID,
		Name:           "The Movie Database",
		Category:       provider.CategoryBoth,
		EntityTypes:    []provider.EntityType{provider.EntityMovie, provider.EntitySeries},
		MetadataFields: metadataFields,
		AssetTypes: map[provider.EntityType][]provider.AssetType{
			provider.EntityMovie:  {provider.AssetPoster, provider.AssetBackground, provider.AssetLogo, provider.AssetTrailer},
			provider.EntitySeries: {provider.AssetPoster, provider.AssetBackground, provider.AssetLogo, provider.AssetTrailer},
		},
		RequiresAuth:     true,
		RateLimit:        provider.RateLimit{RequestsPerSecond: 40, Burst: 40},
		ExternalIDLookup: []provider.IDKind{provider.IDTMDB, provider.IDIMDB},
		Quality: provider.QualityHints{
			Completeness: 0.9,
			ImageQuality: 0.85,
			Curated:      false,
		},
	}
}

// resolveID turns the entity's external IDs into a TMDB ID, following the
// IMDB cross-reference when no native ID is present.
func (a *Adapter) resolveID(ctx context.Context, entity provider.EntityType, ids provider.ExternalIDs) (int64, error) {
	if raw := ids[provider.IDTMDB]; raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid tmdb id %q: %w", raw, err)
		}
		return id, nil
	}

	imdbID := ids[provider.IDIMDB]
	if imdbID == "" {
		return 0, fmt.Errorf("tmdb: %w: no usable external id", provider.ErrNotSupported)
	}

	found, err := a.client.FindByIMDB(ctx, imdbID)
	if err != nil {
		return 0, fmt.Errorf("resolve imdb id %s: %w", imdbID, err)
	}

	switch entity {
	case provider.EntityMovie:
		if len(found.MovieResults) > 0 {
			return found.MovieResults[0].ID, nil
		}
	case provider.EntitySeries:
		if len(found.TVResults) > 0 {
			return found.TVResults[0].ID, nil
		}
	}
	return 0, ErrNotFound
}

// Search implements provider.Adapter.
func (a *Adapter) Search(ctx context.Context, req provider.SearchRequest) ([]provider.SearchResult, error) {
	var (
		entries []SearchEntry
		err     error
	)
	switch req.EntityType {
	case provider.EntityMovie:
		entries, err = a.client.SearchMovie(ctx, req.Query, req.Year)
	case provider.EntitySeries:
		entries, err = a.client.SearchTV(ctx, req.Query, req.Year)
	default:
		return nil, fmt.Errorf("tmdb: %w: entity type %s", provider.ErrNotSupported, req.EntityType)
	}
	if err != nil {
		return nil, fmt.Errorf("tmdb search: %w", err)
	}

	results := make([]provider.SearchResult, 0, len(entries))
	for _, e := range entries {
		title := e.Title
		date := e.ReleaseDate
		if req.EntityType == provider.EntitySeries {
			title = e.Name
			date = e.FirstAirDate
		}
		results = append(results, provider.SearchResult{
			ProviderID: ProviderID,
			ResultID:   strconv.FormatInt(e.ID, 10),
			Title:      title,
			Year:       yearOf(date),
			IDs:        provider.ExternalIDs{provider.IDTMDB: strconv.FormatInt(e.ID, 10)},
			Confidence: titleConfidence(req.Query, title),
		})
	}
	return results, nil
}

// titleConfidence scores how closely a result title matches the query.
func titleConfidence(query, title string) float64 {
	sim := edlib.JaroWinklerSimilarity(strings.ToLower(query), strings.ToLower(title))
	return float64(sim)
}

// GetMetadata implements provider.Adapter.
func (a *Adapter) GetMetadata(ctx context.Context, req provider.MetadataRequest) (*provider.MetadataResponse, error) {
	id, err := a.resolveID(ctx, req.EntityType, req.IDs)
	if err != nil {
		return nil, err
	}

	language := req.Language
	if language == "" {
		language = a.language
	}

	var fields map[string]string
	switch req.EntityType {
	case provider.EntityMovie:
		movie, err := a.client.GetMovie(ctx, id, language)
		if err != nil {
			return nil, fmt.Errorf("tmdb movie %d: %w", id, err)
		}
		fields = movieFields(movie)
	case provider.EntitySeries:
		tv, err := a.client.GetTV(ctx, id, language)
		if err != nil {
			return nil, fmt.Errorf("tmdb series %d: %w", id, err)
		}
		fields = tvFields(tv)
	default:
		return nil, fmt.Errorf("tmdb: %w: entity type %s", provider.ErrNotSupported, req.EntityType)
	}

	if len(req.Fields) > 0 {
		fields = restrictFields(fields, req.Fields)
	}

	return &provider.MetadataResponse{
		ProviderID:   ProviderID,
		ResultID:     strconv.FormatInt(id, 10),
		Fields:       fields,
		Completeness: completeness(fields, req.Fields),
		Confidence:   0.85,
		UpdatedAt:    time.Now().UTC(),
	}, nil
}

func movieFields(m *Movie) map[string]string {
	fields := map[string]string{
		"title":        m.Title,
		"overview":     m.Overview,
		"tagline":      m.Tagline,
		"release_date": m.ReleaseDate,
		"imdb_id":      m.IMDBID,
	}
	if y := m.Year(); y > 0 {
		fields["year"] = strconv.Itoa(y)
	}
	if m.Runtime > 0 {
		fields["runtime"] = strconv.Itoa(m.Runtime)
	}
	if m.VoteCount > 0 {
		fields["vote_average"] = strconv.FormatFloat(m.VoteAverage, 'f', 1, 64)
		fields["vote_count"] = strconv.Itoa(m.VoteCount)
	}
	if names := genreNames(m.Genres); names != "" {
		fields["genres"] = names
	}
	return prune(fields)
}

func tvFields(t *TV) map[string]string {
	fields := map[string]string{
		"title":        t.Name,
		"overview":     t.Overview,
		"release_date": t.FirstAirDate,
		"status":       t.Status,
	}
	if y := t.Year(); y > 0 {
		fields["year"] = strconv.Itoa(y)
	}
	if t.VoteCount > 0 {
		fields["vote_average"] = strconv.FormatFloat(t.VoteAverage, 'f', 1, 64)
		fields["vote_count"] = strconv.Itoa(t.VoteCount)
	}
	if names := genreNames(t.Genres); names != "" {
		fields["genres"] = names
	}
	return prune(fields)
}

func genreNames(genres []Genre) string {
	names := make([]string, 0, len(genres))
	for _, g := range genres {
		names = append(names, g.Name)
	}
	return strings.Join(names, ", ")
}

// prune drops empty values so they never shadow another provider's data
// during merging.
func prune(fields map[string]string) map[string]string {
	for k, v := range fields {
		if v == "" {
			delete(fields, k)
		}
	}
	return fields
}

func restrictFields(fields map[string]string, wanted []string) map[string]string {
	out := make(map[string]string, len(wanted))
	for _, f := range wanted {
		if v, ok := fields[f]; ok {
			out[f] = v
		}
	}
	return out
}

func completeness(fields map[string]string, requested []string) float64 {
	if len(requested) == 0 {
		requested = metadataFields
	}
	populated := 0
	for _, f := range requested {
		if fields[f] != "" {
			populated++
		}
	}
	return float64(populated) / float64(len(requested))
}

// GetAssets implements provider.Adapter.
func (a *Adapter) GetAssets(ctx context.Context, req provider.AssetRequest) ([]provider.AssetCandidate, error) {
	id, err := a.resolveID(ctx, req.EntityType, req.IDs)
	if err != nil {
		return nil, err
	}

	wantImages := false
	wantTrailers := false
	for _, at := range req.AssetTypes {
		switch at {
		case provider.AssetTrailer:
			wantTrailers = true
		case provider.AssetPoster, provider.AssetBackground, provider.AssetLogo:
			wantImages = true
		}
	}

	var candidates []provider.AssetCandidate

	if wantImages {
		images, preferredPoster, preferredBackdrop, err := a.fetchImages(ctx, req.EntityType, id)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, imageCandidates(images.Posters, provider.AssetPoster, id, preferredPoster)...)
		candidates = append(candidates, imageCandidates(images.Backdrops, provider.AssetBackground, id, preferredBackdrop)...)
		candidates = append(candidates, imageCandidates(images.Logos, provider.AssetLogo, id, "")...)
	}

	if wantTrailers {
		trailers, err := a.fetchTrailers(ctx, req.EntityType, id)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, trailers...)
	}

	return filterByType(candidates, req.AssetTypes), nil
}

func (a *Adapter) fetchImages(ctx context.Context, entity provider.EntityType, id int64) (*Images, string, string, error) {
	switch entity {
	case provider.EntityMovie:
		movie, err := a.client.GetMovie(ctx, id, a.language)
		if err != nil {
			return nil, "", "", fmt.Errorf("tmdb movie %d: %w", id, err)
		}
		images, err := a.client.GetMovieImages(ctx, id)
		if err != nil {
			return nil, "", "", fmt.Errorf("tmdb movie images %d: %w", id, err)
		}
		return images, movie.PosterPath, movie.BackdropPath, nil
	case provider.EntitySeries:
		tv, err := a.client.GetTV(ctx, id, a.language)
		if err != nil {
			return nil, "", "", fmt.Errorf("tmdb series %d: %w", id, err)
		}
		images, err := a.client.GetTVImages(ctx, id)
		if err != nil {
			return nil, "", "", fmt.Errorf("tmdb series images %d: %w", id, err)
		}
		return images, tv.PosterPath, tv.BackdropPath, nil
	default:
		return nil, "", "", fmt.Errorf("tmdb: %w: entity type %s", provider.ErrNotSupported, entity)
	}
}

func (a *Adapter) fetchTrailers(ctx context.Context, entity provider.EntityType, id int64) ([]provider.AssetCandidate, error) {
	var (
		videos []Video
		err    error
	)
	switch entity {
	case provider.EntityMovie:
		videos, err = a.client.GetMovieVideos(ctx, id)
	case provider.EntitySeries:
		videos, err = a.client.GetTVVideos(ctx, id)
	default:
		return nil, fmt.Errorf("tmdb: %w: entity type %s", provider.ErrNotSupported, entity)
	}
	if err != nil {
		return nil, fmt.Errorf("tmdb videos %d: %w", id, err)
	}

	var candidates []provider.AssetCandidate
	for _, v := range videos {
		if v.Site != "YouTube" || v.Type != "Trailer" {
			continue
		}
		candidates = append(candidates, provider.AssetCandidate{
			ProviderID: ProviderID,
			ResultID:   v.Key,
			Type:       provider.AssetTrailer,
			URL:        "https://www.youtube.com/watch?v=" + v.Key,
			Language:   v.Language,
			Preferred:  v.Official,
		})
	}
	return candidates, nil
}

func imageCandidates(images []Image, assetType provider.AssetType, id int64, preferredPath string) []provider.AssetCandidate {
	candidates := make([]provider.AssetCandidate, 0, len(images))
	for _, img := range images {
		candidates = append(candidates, provider.AssetCandidate{
			ProviderID:   ProviderID,
			ResultID:     img.FilePath,
			Type:         assetType,
			URL:          ImageURL(img.FilePath, "original"),
			ThumbnailURL: ImageURL(img.FilePath, "w342"),
			Width:        img.Width,
			Height:       img.Height,
			AspectRatio:  img.AspectRatio,
			Quality:      provider.QualityForDimensions(img.Width, img.Height),
			Language:     img.Language,
			VoteCount:    img.VoteCount,
			VoteAverage:  img.VoteAverage,
			Preferred:    preferredPath != "" && img.FilePath == preferredPath,
		})
	}
	return candidates
}

func filterByType(candidates []provider.AssetCandidate, wanted []provider.AssetType) []provider.AssetCandidate {
	if len(wanted) == 0 {
		return candidates
	}
	keep := make(map[provider.AssetType]bool, len(wanted))
	for _, at := range wanted {
		keep[at] = true
	}
	out := candidates[:0]
	for _, c := range candidates {
		if keep[c.Type] {
			out = append(out, c)
		}
	}
	return out
}

// TestConnection implements provider.Adapter.
func (a *Adapter) TestConnection(ctx context.Context) error {
	if err := a.client.Ping(ctx); err != nil {
		return fmt.Errorf("tmdb connection test: %w", err)
	}
	return nil
}
