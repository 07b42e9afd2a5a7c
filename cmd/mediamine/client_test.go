package main

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Status_Success(t *testing.T) {
	srv := newMockServer(t).
		ExpectPath("/api/v1/status").
		ExpectGET().
		RespondJSON(StatusResponse{Status: "ok"}).
		Build()
	defer srv.Close()

	client := NewClient(srv.URL)
	resp, err := client.Status()
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
}

func TestClient_Status_ServerError(t *testing.T) {
	srv := newMockServer(t).
		ExpectPath("/api/v1/status").
		ExpectGET().
		RespondError(http.StatusInternalServerError, "database connection failed").
		Build()
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.Status()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
	assert.Contains(t, err.Error(), "database connection failed")
}

func TestClient_Providers_Success(t *testing.T) {
	srv := newMockServer(t).
		ExpectPath("/api/v1/providers").
		ExpectGET().
		RespondJSON([]ProviderInfo{
			{ID: "tmdb", Name: "The Movie Database", Category: "both", EntityTypes: []string{"movie", "series"}, RequiresAuth: true},
			{ID: "fanart_tv", Name: "fanart.tv", Category: "images", Curated: true},
		}).
		Build()
	defer srv.Close()

	client := NewClient(srv.URL)
	resp, err := client.Providers()
	require.NoError(t, err)
	require.Len(t, resp, 2)
	assert.Equal(t, "tmdb", resp[0].ID)
	assert.Equal(t, []string{"movie", "series"}, resp[0].EntityTypes)
	assert.True(t, resp[1].Curated)
}

func TestClient_Breakers_Success(t *testing.T) {
	srv := newMockServer(t).
		ExpectPath("/api/v1/providers/breakers").
		ExpectGET().
		RespondJSON([]BreakerInfo{
			{Key: "tvdb/metadata", State: "open", ConsecutiveFailures: 5, LastFailure: "2026-03-01T12:00:00Z"},
		}).
		Build()
	defer srv.Close()

	client := NewClient(srv.URL)
	resp, err := client.Breakers()
	require.NoError(t, err)
	require.Len(t, resp, 1)
	assert.Equal(t, "open", resp[0].State)
	assert.Equal(t, uint32(5), resp[0].ConsecutiveFailures)
}

func TestClient_Enrich_Success(t *testing.T) {
	var received EnrichRequest

	srv := newMockServer(t).
		ExpectPath("/api/v1/enrich").
		ExpectPOST().
		Handler(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
			respondJSON(t, w, EnrichResponse{
				Provider:     "tmdb",
				Fields:       map[string]string{"title": "The Matrix"},
				Completeness: 0.9,
				Confidence:   0.85,
				Assets: map[string][]AssetInfo{
					"poster": {{Provider: "tmdb", URL: "https://img.test/p.jpg", Quality: "hd"}},
				},
			})
		}).
		Build()
	defer srv.Close()

	client := NewClient(srv.URL)
	resp, err := client.Enrich(EnrichRequest{
		Type:       "movie",
		IDs:        map[string]string{"tmdb": "603"},
		AssetTypes: []string{"poster"},
	})
	require.NoError(t, err)

	// Verify the request body was sent as-is
	assert.Equal(t, "movie", received.Type)
	assert.Equal(t, "603", received.IDs["tmdb"])
	assert.Equal(t, []string{"poster"}, received.AssetTypes)

	// Verify response parsing
	assert.Equal(t, "tmdb", resp.Provider)
	assert.Equal(t, "The Matrix", resp.Fields["title"])
	require.Len(t, resp.Assets["poster"], 1)
	assert.Equal(t, "hd", resp.Assets["poster"][0].Quality)
}

func TestClient_Enrich_AllProvidersFailed(t *testing.T) {
	srv := newMockServer(t).
		ExpectPath("/api/v1/enrich").
		ExpectPOST().
		RespondError(http.StatusBadGateway, `{"error":"all 2 metadata providers failed for movie","code":"ALL_PROVIDERS_FAILED"}`).
		Build()
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.Enrich(EnrichRequest{Type: "movie", IDs: map[string]string{"tmdb": "1"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	assert.Contains(t, err.Error(), "ALL_PROVIDERS_FAILED")
}

func TestClient_Events_QueryParams(t *testing.T) {
	var receivedQuery string

	srv := newMockServer(t).
		ExpectGET().
		Handler(func(w http.ResponseWriter, r *http.Request) {
			receivedQuery = r.URL.RawQuery
			respondJSON(t, w, ListEventsResponse{Total: 0})
		}).
		Build()
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.Events(10, "2026-03-01T00:00:00Z")
	require.NoError(t, err)

	assert.Contains(t, receivedQuery, "limit=10")
	assert.Contains(t, receivedQuery, "since=2026-03-01T00%3A00%3A00Z")
}

func TestClient_RequestEvents_Success(t *testing.T) {
	srv := newMockServer(t).
		ExpectPath("/api/v1/events/req-42").
		ExpectGET().
		RespondJSON(ListEventsResponse{
			Items: []EventInfo{
				{ID: 1, EventType: "provider.fetch.started", RequestID: "req-42", OccurredAt: "2026-03-01T12:00:00Z"},
				{ID: 2, EventType: "provider.fetch.completed", RequestID: "req-42", OccurredAt: "2026-03-01T12:00:01Z"},
			},
			Total: 2,
		}).
		Build()
	defer srv.Close()

	client := NewClient(srv.URL)
	resp, err := client.RequestEvents("req-42")
	require.NoError(t, err)
	require.Equal(t, 2, resp.Total)
	assert.Equal(t, "provider.fetch.started", resp.Items[0].EventType)
}
