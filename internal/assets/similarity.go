package assets

import (
	"github.com/hbollon/go-edlib"

	"github.com/skoslow/mediamine/internal/provider"
)

// hashSimilarity is the fraction of matching characters between two hash
// strings of equal length. Hashes of differing length are not comparable
// and score 0, which keeps both candidates. This deliberately matches on
// characters rather than hash bits: dedup only needs "near-identical"
// detection, and the coarser comparison never merges images a bit-level
// Hamming distance would keep apart.
func hashSimilarity(a, b string) float64 {
	if a == "" || b == "" || len(a) != len(b) {
		return 0
	}
	dist, err := edlib.HammingDistance(a, b)
	if err != nil {
		return 0
	}
	return 1 - float64(dist)/float64(len(a))
}

// candidateSimilarity compares two candidates by perceptual hash,
// falling back to difference hash when neither carries a pHash.
func candidateSimilarity(a, b provider.AssetCandidate) float64 {
	if a.PerceptualHash != "" && b.PerceptualHash != "" {
		return hashSimilarity(a.PerceptualHash, b.PerceptualHash)
	}
	return hashSimilarity(a.DifferenceHash, b.DifferenceHash)
}
