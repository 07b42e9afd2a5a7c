package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Client wraps HTTP calls to the mediamine server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new mediamine API client.
func NewClient(serverURL string) *Client {
	return &Client{
		baseURL: serverURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func (c *Client) get(path string, result any) error {
	resp, err := c.httpClient.Get(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server error %d: %s", resp.StatusCode, string(body))
	}

	return json.NewDecoder(resp.Body).Decode(result)
}

func (c *Client) post(path string, body any, result any) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}

	resp, err := c.httpClient.Post(c.baseURL+path, "application/json", bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server error %d: %s", resp.StatusCode, string(respBody))
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}

// API response types (mirror server types)

type StatusResponse struct {
	Status string `json:"status"`
}

type ProviderInfo struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Category     string   `json:"category"`
	EntityTypes  []string `json:"entity_types"`
	RequiresAuth bool     `json:"requires_auth"`
	Curated      bool     `json:"curated"`
}

type BreakerInfo struct {
	Key                 string `json:"key"`
	State               string `json:"state"`
	ConsecutiveFailures uint32 `json:"consecutive_failures"`
	LastFailure         string `json:"last_failure,omitempty"`
}

type ProviderTestResult struct {
	ID        string `json:"id"`
	OK        bool   `json:"ok"`
	Error     string `json:"error,omitempty"`
	ElapsedMs int64  `json:"elapsed_ms"`
}

type EnrichRequest struct {
	Type         string            `json:"type"`
	IDs          map[string]string `json:"ids"`
	Fields       []string          `json:"fields,omitempty"`
	Language     string            `json:"language,omitempty"`
	AssetTypes   []string          `json:"asset_types,omitempty"`
	ForceRefresh bool              `json:"force_refresh,omitempty"`
}

type EnrichResponse struct {
	Provider     string                 `json:"provider"`
	Fields       map[string]string      `json:"fields"`
	Completeness float64                `json:"completeness"`
	Confidence   float64                `json:"confidence"`
	Assets       map[string][]AssetInfo `json:"assets,omitempty"`
	CacheHit     bool                   `json:"cache_hit"`
}

type AssetInfo struct {
	Provider    string  `json:"provider"`
	URL         string  `json:"url"`
	Width       int     `json:"width,omitempty"`
	Height      int     `json:"height,omitempty"`
	Quality     string  `json:"quality,omitempty"`
	Language    string  `json:"language,omitempty"`
	VoteCount   int     `json:"vote_count,omitempty"`
	VoteAverage float64 `json:"vote_average,omitempty"`
	Preferred   bool    `json:"preferred,omitempty"`
}

type EventInfo struct {
	ID         int64           `json:"id"`
	EventType  string          `json:"event_type"`
	RequestID  string          `json:"request_id"`
	Payload    json.RawMessage `json:"payload"`
	OccurredAt string          `json:"occurred_at"`
}

type ListEventsResponse struct {
	Items []EventInfo `json:"items"`
	Total int         `json:"total"`
}

// Client methods

func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.get("/api/v1/status", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Providers() ([]ProviderInfo, error) {
	var resp []ProviderInfo
	if err := c.get("/api/v1/providers", &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) Breakers() ([]BreakerInfo, error) {
	var resp []BreakerInfo
	if err := c.get("/api/v1/providers/breakers", &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) TestProvider(id string) (*ProviderTestResult, error) {
	var resp ProviderTestResult
	if err := c.post("/api/v1/providers/"+url.PathEscape(id)+"/test", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Enrich(req EnrichRequest) (*EnrichResponse, error) {
	var resp EnrichResponse
	if err := c.post("/api/v1/enrich", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Events(limit int, since string) (*ListEventsResponse, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if since != "" {
		query.Set("since", since)
	}
	path := "/api/v1/events"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var resp ListEventsResponse
	if err := c.get(path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) RequestEvents(requestID string) (*ListEventsResponse, error) {
	var resp ListEventsResponse
	if err := c.get("/api/v1/events/"+url.PathEscape(requestID), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
