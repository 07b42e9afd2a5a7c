package metadata

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/skoslow/mediamine/internal/migrations"
	"github.com/skoslow/mediamine/internal/provider"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(migrations.InitialSQL)
	require.NoError(t, err)

	return db
}

func matrixResult() *EnrichResult {
	return &EnrichResult{
		Metadata: &provider.MetadataResponse{
			ProviderID:   "tmdb",
			Fields:       map[string]string{"title": "The Matrix", "year": "1999"},
			Completeness: 1.0,
			Confidence:   0.95,
			UpdatedAt:    time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		},
		Assets: map[provider.AssetType][]provider.AssetCandidate{
			provider.AssetPoster: {{
				ProviderID: "fanart_tv",
				ResultID:   "101",
				Type:       provider.AssetPoster,
				URL:        "https://assets.fanart.tv/p1.jpg",
				Width:      1000,
				Height:     1426,
				Language:   "en",
				VoteCount:  14,
			}},
		},
	}
}

func TestCache_RoundTrip(t *testing.T) {
	cache := NewCache(setupTestDB(t))
	ctx := context.Background()

	want := matrixResult()
	require.NoError(t, cache.Set(ctx, "enrich|movie|tmdb=603", want, time.Hour))

	got, err := cache.Get(ctx, "enrich|movie|tmdb=603")
	require.NoError(t, err)
	assert.Equal(t, want.Metadata.Fields, got.Metadata.Fields)
	assert.Equal(t, want.Assets, got.Assets)
	assert.False(t, got.CacheHit, "hit marker is never persisted")
}

func TestCache_Get_Miss(t *testing.T) {
	cache := NewCache(setupTestDB(t))

	_, err := cache.Get(context.Background(), "enrich|movie|tmdb=999999")
	require.ErrorIs(t, err, ErrCacheMiss)
}

func TestCache_Get_ExpiredIsMiss(t *testing.T) {
	cache := NewCache(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "enrich|movie|tmdb=603", matrixResult(), 30*time.Millisecond))
	time.Sleep(60 * time.Millisecond)

	_, err := cache.Get(ctx, "enrich|movie|tmdb=603")
	require.ErrorIs(t, err, ErrCacheMiss)
}

func TestCache_Set_ReplacesAndExtendsTTL(t *testing.T) {
	cache := NewCache(setupTestDB(t))
	ctx := context.Background()

	stale := matrixResult()
	stale.Metadata.Fields["title"] = "The Matrix Reloaded"
	require.NoError(t, cache.Set(ctx, "enrich|movie|tmdb=603", stale, 30*time.Millisecond))

	require.NoError(t, cache.Set(ctx, "enrich|movie|tmdb=603", matrixResult(), time.Hour))
	time.Sleep(60 * time.Millisecond)

	got, err := cache.Get(ctx, "enrich|movie|tmdb=603")
	require.NoError(t, err)
	assert.Equal(t, "The Matrix", got.Metadata.Fields["title"])
}

func TestCache_Get_UnreadableEntry(t *testing.T) {
	db := setupTestDB(t)
	cache := NewCache(db)
	ctx := context.Background()

	// A row written by an older build may no longer decode.
	_, err := db.ExecContext(ctx,
		"INSERT INTO metadata_cache (key, value, expires_at) VALUES (?, ?, ?)",
		"enrich|movie|tmdb=603", "{not json", time.Now().Add(time.Hour))
	require.NoError(t, err)

	_, err = cache.Get(ctx, "enrich|movie|tmdb=603")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}

func TestCache_Invalidate(t *testing.T) {
	cache := NewCache(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "enrich|movie|tmdb=603", matrixResult(), time.Hour))
	require.NoError(t, cache.Invalidate(ctx, "enrich|movie|tmdb=603"))

	_, err := cache.Get(ctx, "enrich|movie|tmdb=603")
	require.ErrorIs(t, err, ErrCacheMiss)

	// Invalidating an absent key is not an error.
	require.NoError(t, cache.Invalidate(ctx, "enrich|movie|tmdb=603"))
}

func TestCache_Prune(t *testing.T) {
	cache := NewCache(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "enrich|movie|tmdb=603", matrixResult(), 30*time.Millisecond))
	require.NoError(t, cache.Set(ctx, "enrich|movie|tmdb=604", matrixResult(), 30*time.Millisecond))
	require.NoError(t, cache.Set(ctx, "enrich|series|tvdb=121361", matrixResult(), time.Hour))
	time.Sleep(60 * time.Millisecond)

	pruned, err := cache.Prune(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), pruned)

	_, err = cache.Get(ctx, "enrich|series|tvdb=121361")
	require.NoError(t, err)
}

func TestCache_Prune_NothingExpired(t *testing.T) {
	cache := NewCache(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "enrich|movie|tmdb=603", matrixResult(), time.Hour))

	pruned, err := cache.Prune(ctx)
	require.NoError(t, err)
	assert.Zero(t, pruned)

	_, err = cache.Get(ctx, "enrich|movie|tmdb=603")
	require.NoError(t, err)
}
