package tvdb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skoslow/mediamine/internal/provider"
)

// newTestAdapter wires an adapter to a stub TVDB API that accepts any
// login and serves the given handlers.
func newTestAdapter(t *testing.T, handlers map[string]http.HandlerFunc) *Adapter {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "success", "data": {"token": "test-token"}}`))
	})
	for path, handler := range handlers {
		mux.HandleFunc(path, handler)
	}

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	adapter, err := NewAdapter(provider.Config{
		Name:    ProviderID,
		Enabled: true,
		APIKey:  "test-key",
		BaseURL: srv.URL,
	})
	require.NoError(t, err)
	return adapter.(*Adapter)
}

func TestAdapter_RequiresAPIKey(t *testing.T) {
	_, err := NewAdapter(provider.Config{Name: ProviderID})
	require.Error(t, err)
}

func TestAdapter_GetMetadata(t *testing.T) {
	adapter := newTestAdapter(t, map[string]http.HandlerFunc{
		"/series/121361": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{
				"status": "success",
				"data": {
					"id": 121361,
					"name": "Game of Thrones",
					"status": {"name": "Ended"},
					"overview": "Seven noble families fight for control.",
					"firstAired": "2011-04-17"
				}
			}`))
		},
	})

	resp, err := adapter.GetMetadata(context.Background(), provider.MetadataRequest{
		EntityType: provider.EntitySeries,
		IDs:        provider.ExternalIDs{provider.IDTVDB: "121361"},
	})
	require.NoError(t, err)

	assert.Equal(t, ProviderID, resp.ProviderID)
	assert.Equal(t, "Game of Thrones", resp.Fields["title"])
	assert.Equal(t, "2011", resp.Fields["year"])
	assert.Equal(t, "Ended", resp.Fields["status"])
	assert.InDelta(t, 1.0, resp.Completeness, 1e-9)
}

func TestAdapter_GetMetadata_MovieUnsupported(t *testing.T) {
	adapter := newTestAdapter(t, nil)

	_, err := adapter.GetMetadata(context.Background(), provider.MetadataRequest{
		EntityType: provider.EntityMovie,
		IDs:        provider.ExternalIDs{provider.IDTVDB: "121361"},
	})
	require.ErrorIs(t, err, provider.ErrNotSupported)
}

func TestAdapter_GetMetadata_NoTVDBID(t *testing.T) {
	adapter := newTestAdapter(t, nil)

	_, err := adapter.GetMetadata(context.Background(), provider.MetadataRequest{
		EntityType: provider.EntitySeries,
		IDs:        provider.ExternalIDs{provider.IDIMDB: "tt0944947"},
	})
	require.ErrorIs(t, err, provider.ErrNotSupported)
}

func TestAdapter_GetAssets(t *testing.T) {
	adapter := newTestAdapter(t, map[string]http.HandlerFunc{
		"/series/121361/artworks": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{
				"status": "success",
				"data": {
					"artworks": [
						{"id": 1, "image": "https://artworks.thetvdb.com/p1.jpg", "thumbnail": "https://artworks.thetvdb.com/p1_t.jpg", "type": 2, "language": "eng", "score": 100500, "width": 680, "height": 1000},
						{"id": 2, "image": "https://artworks.thetvdb.com/bg1.jpg", "type": 3, "score": 5000, "width": 1920, "height": 1080},
						{"id": 3, "image": "https://artworks.thetvdb.com/icon.jpg", "type": 5, "score": 10, "width": 512, "height": 512}
					]
				}
			}`))
		},
	})

	candidates, err := adapter.GetAssets(context.Background(), provider.AssetRequest{
		EntityType: provider.EntitySeries,
		IDs:        provider.ExternalIDs{provider.IDTVDB: "121361"},
		AssetTypes: []provider.AssetType{provider.AssetPoster, provider.AssetBackground},
	})
	require.NoError(t, err)
	require.Len(t, candidates, 2, "unmapped and unrequested artwork types are dropped")

	assert.Equal(t, provider.AssetPoster, candidates[0].Type)
	assert.Equal(t, "https://artworks.thetvdb.com/p1.jpg", candidates[0].URL)
	assert.Equal(t, "eng", candidates[0].Language)
	assert.Equal(t, provider.QualitySD, candidates[0].Quality)

	assert.Equal(t, provider.AssetBackground, candidates[1].Type)
	assert.Equal(t, provider.QualityHD, candidates[1].Quality)
}

func TestAdapter_Search(t *testing.T) {
	adapter := newTestAdapter(t, map[string]http.HandlerFunc{
		"/search": func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "game of thrones", r.URL.Query().Get("query"))
			w.Write([]byte(`{
				"status": "success",
				"data": [
					{"objectID": "series-121361", "name": "Game of Thrones", "year": "2011", "tvdb_id": "121361"},
					{"objectID": "series-372610", "name": "Game of Thrones: The Last Watch", "year": "2019", "tvdb_id": "372610"}
				]
			}`))
		},
	})

	results, err := adapter.Search(context.Background(), provider.SearchRequest{
		EntityType: provider.EntitySeries,
		Query:      "game of thrones",
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "121361", results[0].IDs[provider.IDTVDB])
	assert.Equal(t, 2011, results[0].Year)
	assert.Greater(t, results[0].Confidence, results[1].Confidence)
}

func TestAdapter_Search_YearFilter(t *testing.T) {
	adapter := newTestAdapter(t, map[string]http.HandlerFunc{
		"/search": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{
				"status": "success",
				"data": [
					{"name": "Game of Thrones", "year": "2011", "tvdb_id": "121361"},
					{"name": "Game of Thrones: The Last Watch", "year": "2019", "tvdb_id": "372610"}
				]
			}`))
		},
	})

	results, err := adapter.Search(context.Background(), provider.SearchRequest{
		EntityType: provider.EntitySeries,
		Query:      "game of thrones",
		Year:       2011,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Game of Thrones", results[0].Title)
}

func TestAdapter_Capabilities(t *testing.T) {
	adapter := newTestAdapter(t, nil)
	caps := adapter.Capabilities()

	assert.Equal(t, ProviderID, caps.ID)
	assert.True(t, caps.SupportsEntity(provider.EntitySeries))
	assert.False(t, caps.SupportsEntity(provider.EntityMovie))
	assert.True(t, caps.SupportsAsset(provider.EntitySeries, provider.AssetBanner))
	assert.Equal(t, []provider.IDKind{provider.IDTVDB}, caps.ExternalIDLookup)
	assert.True(t, caps.Quality.Curated)
}
