package v1

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/skoslow/mediamine/internal/events"
)

func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	since := time.Now().Add(-24 * time.Hour)
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_SINCE", "since must be RFC 3339")
			return
		}
		since = parsed
	}

	limit := queryInt(r, "limit", 100)
	if limit < 0 {
		writeError(w, http.StatusBadRequest, "INVALID_LIMIT", "limit must be non-negative")
		return
	}
	const maxLimit = 1000
	if limit > maxLimit {
		limit = maxLimit
	}

	recorded, err := s.deps.EventLog.Since(since)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "EVENT_ERROR", err.Error())
		return
	}
	if len(recorded) > limit {
		recorded = recorded[len(recorded)-limit:]
	}

	writeJSON(w, http.StatusOK, eventsToResponse(recorded))
}

func (s *Server) listRequestEvents(w http.ResponseWriter, r *http.Request) {
	requestID := r.PathValue("request_id")
	if requestID == "" {
		writeError(w, http.StatusBadRequest, "MISSING_REQUEST_ID", "request_id path parameter is required")
		return
	}

	recorded, err := s.deps.EventLog.ForRequest(requestID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "EVENT_ERROR", err.Error())
		return
	}
	if len(recorded) == 0 {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "no events for request")
		return
	}

	writeJSON(w, http.StatusOK, eventsToResponse(recorded))
}

func eventsToResponse(recorded []events.RawEvent) listEventsResponse {
	resp := listEventsResponse{
		Items: make([]eventResponse, len(recorded)),
		Total: len(recorded),
	}
	for i, e := range recorded {
		resp.Items[i] = eventResponse{
			ID:         e.ID,
			EventType:  e.EventType,
			RequestID:  e.RequestID,
			Payload:    json.RawMessage(e.Payload),
			OccurredAt: e.OccurredAt.UTC().Format(time.RFC3339),
		}
	}
	return resp
}
