package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const defaultBaseURL = "https://api.themoviedb.org"
const defaultCacheTTL = 24 * time.Hour

// Sentinel errors for TMDB API responses.
var (
	ErrNotFound     = errors.New("title not found")
	ErrUnauthorized = errors.New("unauthorized: invalid API key")
	ErrRateLimited  = errors.New("rate limited: too many requests")
)

// Client is a TMDB API client with in-memory response caching.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	cache      *gocache.Cache
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithCacheTTL sets the cache TTL.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = gocache.New(ttl, 2*ttl)
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a new TMDB client.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		cache: gocache.New(defaultCacheTTL, 2*defaultCacheTTL),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// get performs a GET request against the API and decodes the JSON body
// into out, consulting the response cache first.
func (c *Client) get(ctx context.Context, endpoint string, query url.Values, out any) error {
	if query == nil {
		query = url.Values{}
	}
	query.Set("api_key", c.apiKey)

	fullURL := c.baseURL + endpoint + "?" + query.Encode()
	if cached, ok := c.cache.Get(fullURL); ok {
		return json.Unmarshal(cached.([]byte), out)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return fmt.Errorf("TMDB API error: %s", resp.Status)
	}

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	c.cache.Set(fullURL, []byte(raw), gocache.DefaultExpiration)

	return json.Unmarshal(raw, out)
}

// GetMovie fetches movie metadata by TMDB ID.
func (c *Client) GetMovie(ctx context.Context, tmdbID int64, language string) (*Movie, error) {
	query := url.Values{}
	if language != "" {
		query.Set("language", language)
	}
	var movie Movie
	if err := c.get(ctx, fmt.Sprintf("/3/movie/%d", tmdbID), query, &movie); err != nil {
		return nil, err
	}
	return &movie, nil
}

// GetTV fetches series metadata by TMDB ID.
func (c *Client) GetTV(ctx context.Context, tmdbID int64, language string) (*TV, error) {
	query := url.Values{}
	if language != "" {
		query.Set("language", language)
	}
	var tv TV
	if err := c.get(ctx, fmt.Sprintf("/3/tv/%d", tmdbID), query, &tv); err != nil {
		return nil, err
	}
	return &tv, nil
}

// GetMovieImages fetches all artwork for a movie.
func (c *Client) GetMovieImages(ctx context.Context, tmdbID int64) (*Images, error) {
	var images Images
	if err := c.get(ctx, fmt.Sprintf("/3/movie/%d/images", tmdbID), nil, &images); err != nil {
		return nil, err
	}
	return &images, nil
}

// GetTVImages fetches all artwork for a series.
func (c *Client) GetTVImages(ctx context.Context, tmdbID int64) (*Images, error) {
	var images Images
	if err := c.get(ctx, fmt.Sprintf("/3/tv/%d/images", tmdbID), nil, &images); err != nil {
		return nil, err
	}
	return &images, nil
}

// GetMovieVideos fetches trailers and other clips for a movie.
func (c *Client) GetMovieVideos(ctx context.Context, tmdbID int64) ([]Video, error) {
	var videos videosResponse
	if err := c.get(ctx, fmt.Sprintf("/3/movie/%d/videos", tmdbID), nil, &videos); err != nil {
		return nil, err
	}
	return videos.Results, nil
}

// GetTVVideos fetches trailers and other clips for a series.
func (c *Client) GetTVVideos(ctx context.Context, tmdbID int64) ([]Video, error) {
	var videos videosResponse
	if err := c.get(ctx, fmt.Sprintf("/3/tv/%d/videos", tmdbID), nil, &videos); err != nil {
		return nil, err
	}
	return videos.Results, nil
}

// FindByIMDB resolves an IMDB ID to TMDB movie and series entries.
func (c *Client) FindByIMDB(ctx context.Context, imdbID string) (*FindResult, error) {
	query := url.Values{}
	query.Set("external_source", "imdb_id")

	var found FindResult
	if err := c.get(ctx, "/3/find/"+url.PathEscape(imdbID), query, &found); err != nil {
		return nil, err
	}
	return &found, nil
}

// SearchMovie searches movies by title, optionally restricted to a year.
func (c *Client) SearchMovie(ctx context.Context, title string, year int) ([]SearchEntry, error) {
	query := url.Values{}
	query.Set("query", title)
	if year > 0 {
		query.Set("year", strconv.Itoa(year))
	}
	var resp searchResponse
	if err := c.get(ctx, "/3/search/movie", query, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// SearchTV searches series by name, optionally restricted to a year.
func (c *Client) SearchTV(ctx context.Context, name string, year int) ([]SearchEntry, error) {
	query := url.Values{}
	query.Set("query", name)
	if year > 0 {
		query.Set("first_air_date_year", strconv.Itoa(year))
	}
	var resp searchResponse
	if err := c.get(ctx, "/3/search/tv", query, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// Ping verifies the API key against the configuration endpoint.
func (c *Client) Ping(ctx context.Context) error {
	var out struct {
		Images struct {
			BaseURL string `json:"base_url"`
		} `json:"images"`
	}
	return c.get(ctx, "/3/configuration", nil, &out)
}

// ImageURL returns the full URL for an image path.
// Size can be: w92, w154, w185, w342, w500, w780, original
func ImageURL(path, size string) string {
	if path == "" {
		return ""
	}
	return "https://image.tmdb.org/t/p/" + size + path
}
