package assets

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skoslow/mediamine/internal/provider"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newSelector(t *testing.T, cfg Config) *Selector {
	t.Helper()
	s, err := New(cfg, testLogger())
	require.NoError(t, err)
	return s
}

func posterCandidate(id string, w, h, votes int, avg float64) provider.AssetCandidate {
	return provider.AssetCandidate{
		ProviderID:  id,
		Type:        provider.AssetPoster,
		URL:         "https://example.com/" + id,
		Width:       w,
		Height:      h,
		Quality:     provider.QualityHD,
		VoteCount:   votes,
		VoteAverage: avg,
	}
}

func TestSelectBest_PicksHighestResolutionAndVotes(t *testing.T) {
	candidates := []provider.AssetCandidate{
		posterCandidate("tmdb", 1000, 1500, 50, 7.0),
		posterCandidate("tmdb", 2000, 3000, 200, 9.0),
		posterCandidate("tmdb", 1500, 2250, 100, 8.0),
	}

	s := newSelector(t, DefaultConfig(provider.AssetPoster, 1))
	got := s.SelectBest(candidates)

	require.Len(t, got, 1)
	assert.Equal(t, 2000, got[0].Width)
	assert.Equal(t, 200, got[0].VoteCount)
}

func TestSelectBest_ProviderPriorityBeatsRawVotes(t *testing.T) {
	a := posterCandidate("tmdb", 1000, 1500, 200, 9.0)
	b := posterCandidate("fanart_tv", 1000, 1500, 150, 8.5)

	cfg := DefaultConfig(provider.AssetPoster, 1)
	cfg.ProviderPriority = []string{"fanart_tv", "tmdb"}
	s := newSelector(t, cfg)

	got := s.SelectBest([]provider.AssetCandidate{a, b})
	require.Len(t, got, 1)
	assert.Equal(t, "fanart_tv", got[0].ProviderID)
}

func TestSelectBest_NeverExceedsMaxCount(t *testing.T) {
	var candidates []provider.AssetCandidate
	for i := 0; i < 20; i++ {
		candidates = append(candidates, posterCandidate("tmdb", 1000+i, 1500+i, i, 5))
	}

	s := newSelector(t, DefaultConfig(provider.AssetPoster, 3))
	got := s.SelectBest(candidates)
	assert.LessOrEqual(t, len(got), 3)
}

func TestSelectBest_MinDimensionFilter(t *testing.T) {
	candidates := []provider.AssetCandidate{
		posterCandidate("tmdb", 500, 750, 100, 8),
		posterCandidate("tmdb", 2000, 3000, 10, 5),
	}

	cfg := DefaultConfig(provider.AssetPoster, 5)
	cfg.MinWidth = 1000
	cfg.MinHeight = 1500
	s := newSelector(t, cfg)

	got := s.SelectBest(candidates)
	require.Len(t, got, 1)
	for _, c := range got {
		assert.GreaterOrEqual(t, c.Width, 1000)
		assert.GreaterOrEqual(t, c.Height, 1500)
	}
}

func TestSelectBest_QualityPreferenceFilter(t *testing.T) {
	sd := posterCandidate("tmdb", 300, 450, 100, 9)
	sd.Quality = provider.QualitySD
	hd := posterCandidate("tmdb", 1000, 1500, 10, 5)
	fourK := posterCandidate("tmdb", 2800, 4200, 5, 5)
	fourK.Quality = provider.Quality4K

	cfg := DefaultConfig(provider.AssetPoster, 5)
	cfg.QualityPreference = provider.QualityHD
	s := newSelector(t, cfg)

	got := s.SelectBest([]provider.AssetCandidate{sd, hd, fourK})
	require.Len(t, got, 2)
	for _, c := range got {
		assert.GreaterOrEqual(t, c.Quality.Rank(), provider.QualityHD.Rank())
	}
}

func TestSelectBest_LanguageFilterWhenMonolingual(t *testing.T) {
	en := posterCandidate("tmdb", 1000, 1500, 10, 5)
	en.Language = "en"
	de := posterCandidate("tmdb", 1000, 1500, 100, 9)
	de.Language = "de"
	untagged := posterCandidate("tmdb", 1000, 1500, 1, 2)

	cfg := DefaultConfig(provider.AssetPoster, 5)
	cfg.AllowMultilingual = false
	s := newSelector(t, cfg)

	got := s.SelectBest([]provider.AssetCandidate{en, de, untagged})
	require.Len(t, got, 2)
	for _, c := range got {
		assert.NotEqual(t, "de", c.Language)
	}
}

func TestSelectBest_RegionalVariantMatchesPreferredLanguage(t *testing.T) {
	us := posterCandidate("tmdb", 1000, 1500, 10, 5)
	us.Language = "en-US"

	cfg := DefaultConfig(provider.AssetPoster, 1)
	cfg.AllowMultilingual = false
	s := newSelector(t, cfg)

	got := s.SelectBest([]provider.AssetCandidate{us})
	assert.Len(t, got, 1)
}

func TestSelectBest_DeduplicatesNearIdenticalImages(t *testing.T) {
	best := posterCandidate("fanart_tv", 2000, 3000, 200, 9)
	best.PerceptualHash = "aabbccddeeff0011"
	dup := posterCandidate("tmdb", 1800, 2700, 150, 8)
	dup.PerceptualHash = "aabbccddeeff0012" // 15/16 chars match = 0.9375
	distinct := posterCandidate("tmdb", 1500, 2250, 100, 7)
	distinct.PerceptualHash = "0123456789abcdef"

	s := newSelector(t, DefaultConfig(provider.AssetPoster, 5))
	got := s.SelectBest([]provider.AssetCandidate{best, dup, distinct})

	require.Len(t, got, 2)
	// Highest-scoring representative of the duplicate cluster survives.
	assert.Equal(t, "fanart_tv", got[0].ProviderID)
	for i := range got {
		for j := i + 1; j < len(got); j++ {
			assert.Less(t, candidateSimilarity(got[i], got[j]), s.cfg.PHashThreshold)
		}
	}
}

func TestSelectBest_DifferingHashLengthsAreNotDuplicates(t *testing.T) {
	a := posterCandidate("tmdb", 2000, 3000, 200, 9)
	a.PerceptualHash = "aabbccdd"
	b := posterCandidate("tmdb", 1800, 2700, 150, 8)
	b.PerceptualHash = "aabbccddeeff0011"

	s := newSelector(t, DefaultConfig(provider.AssetPoster, 5))
	got := s.SelectBest([]provider.AssetCandidate{a, b})
	assert.Len(t, got, 2)
}

func TestSelectBest_PreferredFlagBreaksCloseRaces(t *testing.T) {
	plain := posterCandidate("tmdb", 1000, 1500, 50, 7)
	flagged := posterCandidate("tmdb", 1000, 1500, 50, 7)
	flagged.Preferred = true
	flagged.URL = "https://example.com/primary"

	s := newSelector(t, DefaultConfig(provider.AssetPoster, 1))
	got := s.SelectBest([]provider.AssetCandidate{plain, flagged})
	require.Len(t, got, 1)
	assert.Equal(t, "https://example.com/primary", got[0].URL)
}

func TestSelectBest_NothingSurvivingFilterIsNormal(t *testing.T) {
	tiny := posterCandidate("tmdb", 100, 150, 5, 3)

	cfg := DefaultConfig(provider.AssetPoster, 5)
	cfg.MinWidth = 1000
	s := newSelector(t, cfg)

	assert.Empty(t, s.SelectBest([]provider.AssetCandidate{tiny}))
	assert.Empty(t, s.SelectBest(nil))
}

func TestSelectBest_IgnoresOtherAssetTypes(t *testing.T) {
	p := posterCandidate("tmdb", 1000, 1500, 50, 7)
	bg := posterCandidate("tmdb", 1920, 1080, 50, 7)
	bg.Type = provider.AssetBackground

	s := newSelector(t, DefaultConfig(provider.AssetPoster, 5))
	got := s.SelectBest([]provider.AssetCandidate{p, bg})
	require.Len(t, got, 1)
	assert.Equal(t, provider.AssetPoster, got[0].Type)
}

func TestSelectBest_Deterministic(t *testing.T) {
	candidates := []provider.AssetCandidate{
		posterCandidate("tmdb", 1000, 1500, 50, 7.0),
		posterCandidate("fanart_tv", 2000, 3000, 200, 9.0),
		posterCandidate("tvdb", 1500, 2250, 100, 8.0),
	}

	s := newSelector(t, DefaultConfig(provider.AssetPoster, 2))
	first := s.SelectBest(candidates)
	second := s.SelectBest(candidates)
	assert.Equal(t, first, second)
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig(provider.AssetPoster, 5)
	cfg.MaxCount = -1
	_, err := New(cfg, testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max count")

	cfg = DefaultConfig(provider.AssetPoster, 5)
	cfg.PHashThreshold = 1.5
	_, err = New(cfg, testLogger())
	assert.Error(t, err)
}

func TestAspectScore(t *testing.T) {
	tests := []struct {
		name      string
		assetType provider.AssetType
		ratio     float64
		want      float64
	}{
		{"perfect poster", provider.AssetPoster, 2.0 / 3.0, 100},
		{"square as poster", provider.AssetPoster, 1.0, 100 - (1.0-2.0/3.0)*200},
		{"wildly off", provider.AssetPoster, 5.0, 0},
		{"perfect background", provider.AssetBackground, 16.0 / 9.0, 100},
		{"unknown type", provider.AssetTrailer, 1.78, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, aspectScore(tt.assetType, tt.ratio), 1e-9)
		})
	}
}

func TestVoteScore(t *testing.T) {
	both := posterCandidate("tmdb", 0, 0, 200, 9.0)
	assert.InDelta(t, 95, voteScore(both), 1e-9)

	avgOnly := posterCandidate("tmdb", 0, 0, 0, 8.0)
	assert.InDelta(t, 80, voteScore(avgOnly), 1e-9)

	neither := posterCandidate("tmdb", 0, 0, 0, 0)
	assert.Zero(t, voteScore(neither))
}
