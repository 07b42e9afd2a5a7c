// Package v1 implements the native REST API.
package v1

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/skoslow/mediamine/internal/events"
	"github.com/skoslow/mediamine/internal/metadata"
	"github.com/skoslow/mediamine/internal/provider"
)

// Enricher is the slice of the enrichment service the API depends on.
type Enricher interface {
	Enrich(ctx context.Context, req metadata.EnrichRequest) (*metadata.EnrichResult, error)
}

// BreakerReporter exposes circuit breaker snapshots.
type BreakerReporter interface {
	BreakerStats() map[string]provider.BreakerStats
}

// Deps holds the server's dependencies. Optional dependencies may be nil;
// their endpoints answer 503 until configured.
type Deps struct {
	Enricher Enricher
	Registry *provider.Registry
	Source   provider.ConfigSource
	Breakers BreakerReporter
	EventLog *events.EventLog
	Logger   *slog.Logger
}

// Server is the v1 API server.
type Server struct {
	deps   Deps
	logger *slog.Logger
}

// New creates a new v1 API server.
func New(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		deps:   deps,
		logger: logger.With("component", "api"),
	}
}

// RegisterRoutes registers API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	// Enrichment
	mux.HandleFunc("POST /api/v1/enrich", s.requireEnricher(s.enrich))

	// Providers
	mux.HandleFunc("GET /api/v1/providers", s.listProviders)
	mux.HandleFunc("GET /api/v1/providers/breakers", s.listBreakers)
	mux.HandleFunc("POST /api/v1/providers/{id}/test", s.testProvider)

	// Events
	mux.HandleFunc("GET /api/v1/events", s.requireEventLog(s.listEvents))
	mux.HandleFunc("GET /api/v1/events/{request_id}", s.requireEventLog(s.listRequestEvents))

	// System
	mux.HandleFunc("GET /api/v1/status", s.getStatus)
}

// Error response
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, code int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: message, Code: errCode})
}

func writeJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(data)
}

// queryInt extracts an optional integer from query string.
func queryInt(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return i
}

func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
