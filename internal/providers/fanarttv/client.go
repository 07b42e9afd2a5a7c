// Package fanarttv provides a client and provider adapter for the
// fanart.tv artwork API.
package fanarttv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const defaultBaseURL = "https://webservice.fanart.tv"

// Sentinel errors for fanart.tv API responses.
var (
	ErrNotFound     = errors.New("title not found")
	ErrUnauthorized = errors.New("unauthorized: invalid API key")
	ErrRateLimited  = errors.New("rate limited: too many requests")
)

// Image is one artwork entry. Likes work as community votes.
type Image struct {
	ID    string `json:"id"`
	URL   string `json:"url"`
	Lang  string `json:"lang"`
	Likes string `json:"likes"`
}

// MovieArtwork is the artwork set for a movie, keyed by fanart.tv's
// category names.
type MovieArtwork struct {
	Name       string  `json:"name"`
	TMDBID     string  `json:"tmdb_id"`
	Posters    []Image `json:"movieposter"`
	Background []Image `json:"moviebackground"`
	HDLogos    []Image `json:"hdmovielogo"`
	Discs      []Image `json:"moviedisc"`
	Banners    []Image `json:"moviebanner"`
	Thumbs     []Image `json:"moviethumb"`
}

// ShowArtwork is the artwork set for a series.
type ShowArtwork struct {
	Name       string  `json:"name"`
	TVDBID     string  `json:"thetvdb_id"`
	Posters    []Image `json:"tvposter"`
	Background []Image `json:"showbackground"`
	HDLogos    []Image `json:"hdtvlogo"`
	Banners    []Image `json:"tvbanner"`
	Thumbs     []Image `json:"tvthumb"`
}

// Client is a fanart.tv API client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a new fanart.tv client.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) get(ctx context.Context, endpoint string, out any) error {
	query := url.Values{}
	query.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint+"?"+query.Encode(), nil)
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
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return fmt.Errorf("fanart.tv API error: %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// GetMovieArtwork fetches all artwork for a movie by TMDB ID.
func (c *Client) GetMovieArtwork(ctx context.Context, tmdbID string) (*MovieArtwork, error) {
	var artwork MovieArtwork
	if err := c.get(ctx, "/v3/movies/"+url.PathEscape(tmdbID), &artwork); err != nil {
		return nil, err
	}
	return &artwork, nil
}

// GetShowArtwork fetches all artwork for a series by TVDB ID.
func (c *Client) GetShowArtwork(ctx context.Context, tvdbID string) (*ShowArtwork, error) {
	var artwork ShowArtwork
	if err := c.get(ctx, "/v3/tv/"+url.PathEscape(tvdbID), &artwork); err != nil {
		return nil, err
	}
	return &artwork, nil
}
