package v1

import "encoding/json"

// enrichRequest is the body for POST /enrich.
type enrichRequest struct {
	Type         string            `json:"type"`
	IDs          map[string]string `json:"ids"`
	Fields       []string          `json:"fields,omitempty"`
	Language     string            `json:"language,omitempty"`
	AssetTypes   []string          `json:"asset_types,omitempty"`
	ForceRefresh bool              `json:"force_refresh,omitempty"`
}

// enrichResponse is the response for POST /enrich.
type enrichResponse struct {
	Provider     string                     `json:"provider"`
	Fields       map[string]string          `json:"fields"`
	Completeness float64                    `json:"completeness"`
	Confidence   float64                    `json:"confidence"`
	Assets       map[string][]assetResponse `json:"assets,omitempty"`
	CacheHit     bool                       `json:"cache_hit"`
}

// assetResponse is the API representation of a selected asset.
type assetResponse struct {
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

// providerResponse is the API representation of a registered provider.
type providerResponse struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Category     string   `json:"category"`
	EntityTypes  []string `json:"entity_types"`
	RequiresAuth bool     `json:"requires_auth"`
	Curated      bool     `json:"curated"`
}

// providerTestResponse reports one provider connection check.
type providerTestResponse struct {
	ID        string `json:"id"`
	OK        bool   `json:"ok"`
	Error     string `json:"error,omitempty"`
	ElapsedMs int64  `json:"elapsed_ms"`
}

// breakerResponse is one circuit breaker snapshot.
type breakerResponse struct {
	Key                 string `json:"key"`
	State               string `json:"state"`
	ConsecutiveFailures uint32 `json:"consecutive_failures"`
	LastFailure         string `json:"last_failure,omitempty"`
}

// eventResponse is the API representation of a persisted event.
type eventResponse struct {
	ID         int64           `json:"id"`
	EventType  string          `json:"event_type"`
	RequestID  string          `json:"request_id"`
	Payload    json.RawMessage `json:"payload"`
	OccurredAt string          `json:"occurred_at"`
}

// listEventsResponse is the response for GET /events.
type listEventsResponse struct {
	Items []eventResponse `json:"items"`
	Total int             `json:"total"`
}
