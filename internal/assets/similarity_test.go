package assets

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/skoslow/mediamine/internal/provider"
)

func TestHashSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "aabbccdd", "aabbccdd", 1.0},
		{"one char differs", "aabbccdd", "aabbccde", 0.875},
		{"completely different", "00000000", "ffffffff", 0.0},
		{"length mismatch", "aabb", "aabbccdd", 0.0},
		{"empty left", "", "aabbccdd", 0.0},
		{"both empty", "", "", 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, hashSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestCandidateSimilarity_FallsBackToDifferenceHash(t *testing.T) {
	a := provider.AssetCandidate{DifferenceHash: "12345678"}
	b := provider.AssetCandidate{DifferenceHash: "12345678"}
	assert.InDelta(t, 1.0, candidateSimilarity(a, b), 1e-9)

	// pHash present on both takes precedence over dHash.
	a.PerceptualHash = "aaaaaaaa"
	b.PerceptualHash = "bbbbbbbb"
	assert.InDelta(t, 0.0, candidateSimilarity(a, b), 1e-9)

	// No hashes at all: not comparable, never a duplicate.
	assert.Zero(t, candidateSimilarity(provider.AssetCandidate{}, provider.AssetCandidate{}))
}
