package events

// Event type constants
const (
	EventProviderFetchStarted   = "provider.fetch.started"
	EventProviderFetchCompleted = "provider.fetch.completed"
	EventProviderFetchFailed    = "provider.fetch.failed"
	EventProviderFetchTimedOut  = "provider.fetch.timed_out"
	EventFallbackActivated      = "provider.fallback.activated"
	EventEnrichmentCompleted    = "enrichment.completed"
)

// ProviderFetchStarted is emitted when the orchestrator dispatches one
// provider call.
type ProviderFetchStarted struct {
	BaseEvent
	Provider   string `json:"provider"`
	Operation  string `json:"operation"` // "metadata" or "assets"
	EntityType string `json:"entity_type"`
}

// ProviderFetchCompleted is emitted when a provider call succeeds.
type ProviderFetchCompleted struct {
	BaseEvent
	Provider   string `json:"provider"`
	Operation  string `json:"operation"`
	EntityType string `json:"entity_type"`
	Candidates int    `json:"candidates,omitempty"` // asset calls only
	ElapsedMS  int64  `json:"elapsed_ms"`
}

// ProviderFetchFailed is emitted when a provider call fails or times
// out. TimedOut distinguishes deadline expiry from vendor errors.
type ProviderFetchFailed struct {
	BaseEvent
	Provider   string `json:"provider"`
	Operation  string `json:"operation"`
	EntityType string `json:"entity_type"`
	Error      string `json:"error"`
	TimedOut   bool   `json:"timed_out,omitempty"`
	ElapsedMS  int64  `json:"elapsed_ms"`
}

// FallbackActivated is emitted once per request when at least one
// provider failed but others carried the request.
type FallbackActivated struct {
	BaseEvent
	Operation       string   `json:"operation"`
	EntityType      string   `json:"entity_type"`
	Failed          []string `json:"failed"`
	Succeeded       int      `json:"succeeded,omitempty"`
	CandidatesFound int      `json:"candidates_found,omitempty"`
	Total           int      `json:"total"`
}

// EnrichmentCompleted is emitted by the enrichment service when a full
// metadata+assets pass for one entity finishes.
type EnrichmentCompleted struct {
	BaseEvent
	EntityType string `json:"entity_type"`
	Fields     int    `json:"fields"`
	Assets     int    `json:"assets"`
	CacheHit   bool   `json:"cache_hit"`
}
