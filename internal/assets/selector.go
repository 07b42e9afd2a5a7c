// Package assets turns pooled provider asset candidates into a bounded,
// deduplicated, quality-ranked selection per asset type.
package assets

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"golang.org/x/text/language"

	"github.com/skoslow/mediamine/internal/provider"
)

// Scoring weights. The total score is a weighted sum of sub-scores in
// [0,100], plus small additive boosts.
const (
	weightResolution = 0.25
	weightVotes      = 0.30
	weightLanguage   = 0.20
	weightProvider   = 0.15
	weightAspect     = 0.10

	preferredBoost = 10.0 // the provider flagged this as its primary choice
)

const fourKPixels = 3840.0 * 2160.0

// providerQuality ranks sources by typical artwork quality. Curated
// sources beat community-sourced ones.
var providerQuality = map[string]float64{
	"fanart_tv":   0.95,
	"tmdb":        0.85,
	"tvdb":        0.75,
	"audiodb":     0.60,
	"musicbrainz": 0.60,
}

const defaultProviderQuality = 0.5

// idealRatios holds the target aspect ratio per asset type.
var idealRatios = map[provider.AssetType]float64{
	provider.AssetPoster:     2.0 / 3.0,
	provider.AssetBackground: 16.0 / 9.0,
	provider.AssetThumb:      16.0 / 9.0,
	provider.AssetBanner:     5.0,
	provider.AssetLogo:       2.58,
	provider.AssetDisc:       1.0,
}

// Config controls one selection pass.
type Config struct {
	AssetType         provider.AssetType
	MaxCount          int
	MinWidth          int // zero disables the check
	MinHeight         int // zero disables the check
	QualityPreference provider.Quality
	PreferLanguage    string
	AllowMultilingual bool
	PHashThreshold    float64
	ProviderPriority  []string // optional, earlier entries get a bigger boost
}

// DefaultConfig returns the standard selection settings for an asset type.
func DefaultConfig(assetType provider.AssetType, maxCount int) Config {
	return Config{
		AssetType:         assetType,
		MaxCount:          maxCount,
		QualityPreference: provider.QualityAny,
		PreferLanguage:    "en",
		AllowMultilingual: true,
		PHashThreshold:    0.92,
	}
}

func (c Config) validate() error {
	if c.MaxCount <= 0 {
		return fmt.Errorf("selection: max count must be positive, got %d", c.MaxCount)
	}
	if c.MinWidth < 0 || c.MinHeight < 0 {
		return fmt.Errorf("selection: min dimensions must not be negative")
	}
	if c.PHashThreshold <= 0 || c.PHashThreshold > 1 {
		return fmt.Errorf("selection: phash threshold must be in (0,1], got %v", c.PHashThreshold)
	}
	return nil
}

// Selector scores and selects asset candidates. Selection is
// deterministic and side-effect-free: the same candidates and config
// always produce the same result.
type Selector struct {
	cfg Config
	log *slog.Logger
}

// New creates a selector. Missing config fields get their defaults;
// invalid configuration (such as a non-positive MaxCount) is a
// programmer error and rejected here, never during selection.
func New(cfg Config, log *slog.Logger) (*Selector, error) {
	if log == nil {
		log = slog.Default()
	}
	if cfg.PreferLanguage == "" {
		cfg.PreferLanguage = "en"
	}
	if cfg.QualityPreference == "" {
		cfg.QualityPreference = provider.QualityAny
	}
	if cfg.PHashThreshold == 0 {
		cfg.PHashThreshold = 0.92
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Selector{cfg: cfg, log: log.With("component", "selector", "asset_type", cfg.AssetType)}, nil
}

// SelectBest filters, scores, deduplicates and truncates the pooled
// candidates. An empty result is a normal outcome, not an error.
func (s *Selector) SelectBest(candidates []provider.AssetCandidate) []provider.AssetCandidate {
	filtered := s.filter(candidates)
	if len(filtered) == 0 {
		return nil
	}

	type scored struct {
		candidate provider.AssetCandidate
		score     float64
	}
	ranked := make([]scored, len(filtered))
	for i, c := range filtered {
		ranked[i] = scored{candidate: c, score: s.score(c)}
	}
	// Stable: equal scores keep pool order, which is fallback order.
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	// Greedy dedup in score order keeps the best representative of each
	// near-duplicate cluster.
	kept := make([]provider.AssetCandidate, 0, s.cfg.MaxCount)
	for _, r := range ranked {
		if len(kept) == s.cfg.MaxCount {
			break
		}
		duplicate := false
		for _, k := range kept {
			if candidateSimilarity(r.candidate, k) >= s.cfg.PHashThreshold {
				duplicate = true
				break
			}
		}
		if !duplicate {
			kept = append(kept, r.candidate)
		}
	}
	return kept
}

func (s *Selector) filter(candidates []provider.AssetCandidate) []provider.AssetCandidate {
	var out []provider.AssetCandidate
	for _, c := range candidates {
		if c.Type != s.cfg.AssetType {
			continue
		}
		if s.cfg.MinWidth > 0 && c.Width < s.cfg.MinWidth {
			continue
		}
		if s.cfg.MinHeight > 0 && c.Height < s.cfg.MinHeight {
			continue
		}
		if s.cfg.QualityPreference != provider.QualityAny &&
			c.Quality.Rank() < s.cfg.QualityPreference.Rank() {
			continue
		}
		if !s.cfg.AllowMultilingual && c.Language != "" &&
			!languageMatches(c.Language, s.cfg.PreferLanguage) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func (s *Selector) score(c provider.AssetCandidate) float64 {
	total := weightResolution*resolutionScore(c) +
		weightVotes*voteScore(c) +
		weightLanguage*s.languageScore(c) +
		weightProvider*providerScore(c.ProviderID) +
		weightAspect*aspectScore(s.cfg.AssetType, c.Ratio())

	if c.Preferred {
		total += preferredBoost
	}
	total += s.priorityBoost(c.ProviderID)
	return total
}

// resolutionScore scales pixel count against a 4K ceiling.
func resolutionScore(c provider.AssetCandidate) float64 {
	pixels := float64(c.Width) * float64(c.Height)
	return math.Min(pixels/fourKPixels, 1) * 100
}

// voteScore blends community vote count and average when both are
// present; an average alone is used at full weight; neither contributes
// zero.
func voteScore(c provider.AssetCandidate) float64 {
	switch {
	case c.VoteCount > 0 && c.VoteAverage > 0:
		return math.Min(float64(c.VoteCount)/100, 1)*50 + (c.VoteAverage/10)*50
	case c.VoteAverage > 0:
		return (c.VoteAverage / 10) * 100
	default:
		return 0
	}
}

// languageScore gives full marks for a match or for untagged artwork
// (benefit of the doubt), nothing for a mismatch.
func (s *Selector) languageScore(c provider.AssetCandidate) float64 {
	if c.Language == "" {
		return 100
	}
	if languageMatches(c.Language, s.cfg.PreferLanguage) {
		return 100
	}
	return 0
}

func providerScore(id string) float64 {
	q, ok := providerQuality[id]
	if !ok {
		q = defaultProviderQuality
	}
	return q * 100
}

// aspectScore penalizes deviation from the asset type's ideal ratio.
func aspectScore(assetType provider.AssetType, ratio float64) float64 {
	ideal, ok := idealRatios[assetType]
	if !ok || ratio <= 0 {
		return 0
	}
	return math.Max(0, 100-math.Abs(ideal-ratio)*200)
}

func (s *Selector) priorityBoost(id string) float64 {
	for i, p := range s.cfg.ProviderPriority {
		if p == id {
			return float64(len(s.cfg.ProviderPriority)-i) * 2
		}
	}
	return 0
}

// languageMatches compares two language tags by base language, so "en"
// matches "en-US". Unparseable tags fall back to case-insensitive
// equality.
func languageMatches(a, b string) bool {
	ta, errA := language.Parse(a)
	tb, errB := language.Parse(b)
	if errA != nil || errB != nil {
		return strings.EqualFold(a, b)
	}
	baseA, _ := ta.Base()
	baseB, _ := tb.Base()
	return baseA == baseB
}
