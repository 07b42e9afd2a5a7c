package v1

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/skoslow/mediamine/internal/metadata"
	"github.com/skoslow/mediamine/internal/provider"
)

var validEntityTypes = map[provider.EntityType]bool{
	provider.EntityMovie:   true,
	provider.EntitySeries:  true,
	provider.EntityEpisode: true,
	provider.EntityArtist:  true,
	provider.EntityAlbum:   true,
}

func (s *Server) enrich(w http.ResponseWriter, r *http.Request) {
	var req enrichRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}

	entity := provider.EntityType(req.Type)
	if !validEntityTypes[entity] {
		writeError(w, http.StatusBadRequest, "INVALID_TYPE", "unknown entity type: "+req.Type)
		return
	}

	ids := make(provider.ExternalIDs, len(req.IDs))
	for kind, value := range req.IDs {
		if value != "" {
			ids[provider.IDKind(kind)] = value
		}
	}
	if len(ids) == 0 {
		writeError(w, http.StatusBadRequest, "MISSING_IDS", "at least one external ID is required")
		return
	}

	assetTypes := make([]provider.AssetType, 0, len(req.AssetTypes))
	for _, at := range req.AssetTypes {
		assetTypes = append(assetTypes, provider.AssetType(at))
	}

	result, err := s.deps.Enricher.Enrich(r.Context(), metadata.EnrichRequest{
		EntityType:   entity,
		IDs:          ids,
		Fields:       req.Fields,
		Language:     req.Language,
		AssetTypes:   assetTypes,
		ForceRefresh: req.ForceRefresh,
	})
	if err != nil {
		var fetchErr *provider.FetchError
		if errors.As(err, &fetchErr) {
			writeError(w, http.StatusBadGateway, "ALL_PROVIDERS_FAILED", err.Error())
			return
		}
		s.logger.Error("enrich failed", "entity", entity, "error", err)
		writeError(w, http.StatusInternalServerError, "ENRICH_ERROR", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, enrichToResponse(result))
}

func enrichToResponse(result *metadata.EnrichResult) enrichResponse {
	resp := enrichResponse{
		Provider:     result.Metadata.ProviderID,
		Fields:       result.Metadata.Fields,
		Completeness: result.Metadata.Completeness,
		Confidence:   result.Metadata.Confidence,
		CacheHit:     result.CacheHit,
	}
	if len(result.Assets) > 0 {
		resp.Assets = make(map[string][]assetResponse, len(result.Assets))
		for at, candidates := range result.Assets {
			list := make([]assetResponse, len(candidates))
			for i, c := range candidates {
				list[i] = assetResponse{
					Provider:    c.ProviderID,
					URL:         c.URL,
					Width:       c.Width,
					Height:      c.Height,
					Quality:     string(c.Quality),
					Language:    c.Language,
					VoteCount:   c.VoteCount,
					VoteAverage: c.VoteAverage,
					Preferred:   c.Preferred,
				}
			}
			resp.Assets[string(at)] = list
		}
	}
	return resp
}
