package tmdb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_GetMovie(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/3/movie/603", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": 603,
			"imdb_id": "tt0133093",
			"title": "The Matrix",
			"overview": "A computer hacker learns the truth.",
			"release_date": "1999-03-30",
			"poster_path": "/matrix.jpg",
			"backdrop_path": "/matrix-bg.jpg",
			"vote_average": 8.2,
			"vote_count": 24000,
			"runtime": 136,
			"genres": [{"id": 28, "name": "Action"}, {"id": 878, "name": "Science Fiction"}]
		}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))

	movie, err := client.GetMovie(context.Background(), 603, "en")
	require.NoError(t, err)
	assert.Equal(t, "The Matrix", movie.Title)
	assert.Equal(t, "tt0133093", movie.IMDBID)
	assert.Equal(t, 1999, movie.Year())
	assert.Equal(t, 136, movie.Runtime)
	require.Len(t, movie.Genres, 2)

	// Second call is served from the cache.
	_, err = client.GetMovie(context.Background(), 603, "en")
	require.NoError(t, err)
	assert.Equal(t, int64(1), hits.Load())
}

func TestClient_GetMovie_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))

	_, err := client.GetMovie(context.Background(), 999999, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, ErrUnauthorized},
		{"rate limited", http.StatusTooManyRequests, ErrRateLimited},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			client := NewClient("test-key", WithBaseURL(srv.URL))
			_, err := client.GetMovie(context.Background(), 603, "")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestClient_GetMovieImages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/3/movie/603/images", r.URL.Path)
		w.Write([]byte(`{
			"backdrops": [{"file_path": "/bg.jpg", "width": 3840, "height": 2160, "aspect_ratio": 1.778, "vote_count": 12, "vote_average": 5.5}],
			"posters": [{"file_path": "/p1.jpg", "width": 2000, "height": 3000, "iso_639_1": "en", "vote_count": 200, "vote_average": 6.1}],
			"logos": []
		}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))

	images, err := client.GetMovieImages(context.Background(), 603)
	require.NoError(t, err)
	require.Len(t, images.Posters, 1)
	assert.Equal(t, "/p1.jpg", images.Posters[0].FilePath)
	assert.Equal(t, "en", images.Posters[0].Language)
	require.Len(t, images.Backdrops, 1)
	assert.Equal(t, 3840, images.Backdrops[0].Width)
}

func TestClient_FindByIMDB(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/3/find/tt0133093", r.URL.Path)
		assert.Equal(t, "imdb_id", r.URL.Query().Get("external_source"))
		w.Write([]byte(`{"movie_results": [{"id": 603, "title": "The Matrix", "release_date": "1999-03-30"}], "tv_results": []}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))

	found, err := client.FindByIMDB(context.Background(), "tt0133093")
	require.NoError(t, err)
	require.Len(t, found.MovieResults, 1)
	assert.Equal(t, int64(603), found.MovieResults[0].ID)
}

func TestClient_SearchMovie(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/3/search/movie", r.URL.Path)
		assert.Equal(t, "matrix", r.URL.Query().Get("query"))
		assert.Equal(t, "1999", r.URL.Query().Get("year"))
		w.Write([]byte(`{"results": [{"id": 603, "title": "The Matrix", "release_date": "1999-03-30"}]}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))

	entries, err := client.SearchMovie(context.Background(), "matrix", 1999)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "The Matrix", entries[0].Title)
}

func TestImageURL(t *testing.T) {
	assert.Equal(t, "https://image.tmdb.org/t/p/original/p.jpg", ImageURL("/p.jpg", "original"))
	assert.Equal(t, "", ImageURL("", "original"))
}
