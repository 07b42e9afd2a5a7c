package v1

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/skoslow/mediamine/internal/provider"
)

func (s *Server) listProviders(w http.ResponseWriter, r *http.Request) {
	if s.deps.Registry == nil {
		writeJSON(w, http.StatusOK, []providerResponse{})
		return
	}

	ids := s.deps.Registry.IDs()
	resp := make([]providerResponse, 0, len(ids))
	for _, id := range ids {
		caps, ok := s.deps.Registry.Capabilities(id)
		if !ok {
			continue
		}
		entities := make([]string, len(caps.EntityTypes))
		for i, et := range caps.EntityTypes {
			entities[i] = string(et)
		}
		resp = append(resp, providerResponse{
			ID:           caps.ID,
			Name:         caps.Name,
			Category:     string(caps.Category),
			EntityTypes:  entities,
			RequiresAuth: caps.RequiresAuth,
			Curated:      caps.Quality.Curated,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) listBreakers(w http.ResponseWriter, r *http.Request) {
	if s.deps.Breakers == nil {
		writeJSON(w, http.StatusOK, []breakerResponse{})
		return
	}

	stats := s.deps.Breakers.BreakerStats()
	resp := make([]breakerResponse, 0, len(stats))
	for key, st := range stats {
		b := breakerResponse{
			Key:                 key,
			State:               st.State,
			ConsecutiveFailures: st.ConsecutiveFailures,
		}
		if !st.LastFailure.IsZero() {
			b.LastFailure = st.LastFailure.UTC().Format(time.RFC3339)
		}
		resp = append(resp, b)
	}
	sort.Slice(resp, func(i, j int) bool { return resp[i].Key < resp[j].Key })

	writeJSON(w, http.StatusOK, resp)
}

// testConnectionTimeout bounds one provider connection check.
const testConnectionTimeout = 15 * time.Second

func (s *Server) testProvider(w http.ResponseWriter, r *http.Request) {
	if s.deps.Registry == nil || s.deps.Source == nil {
		writeError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Provider registry not configured")
		return
	}

	id := r.PathValue("id")

	configs, err := s.deps.Source.GetAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "CONFIG_ERROR", err.Error())
		return
	}

	var cfg *provider.Config
	for i := range configs {
		if configs[i].Name == id {
			cfg = &configs[i]
			break
		}
	}
	if cfg == nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "provider not configured: "+id)
		return
	}

	adapter, err := s.deps.Registry.Create(*cfg)
	if err != nil {
		writeError(w, http.StatusBadRequest, "CREATE_FAILED", err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), testConnectionTimeout)
	defer cancel()

	start := time.Now()
	testErr := adapter.TestConnection(ctx)
	elapsed := time.Since(start)

	resp := providerTestResponse{
		ID:        id,
		OK:        testErr == nil,
		ElapsedMs: elapsed.Milliseconds(),
	}
	if testErr != nil {
		resp.Error = testErr.Error()
		s.logger.Warn("provider connection test failed", "provider", id, "error", testErr)
	}

	writeJSON(w, http.StatusOK, resp)
}
