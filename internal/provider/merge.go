package provider

import "time"

// AggregateProviderID marks a MetadataResponse produced by merging
// several provider responses.
const AggregateProviderID = "aggregate"

// mergeResponses combines responses under the aggregate_all strategy.
// For each field present in any response the value is taken from the
// response with the highest confidence among those providing it; ties go
// to the earliest response in fallback order. Confidence is judged per
// response, not per field: a high-confidence response wins every field it
// carries even if another source happens to be stronger on one of them.
//
// The merge is deterministic and order-independent for a fixed fallback
// order: inputs are never mutated and the same set of responses always
// produces the same aggregate.
func mergeResponses(responses []*MetadataResponse, requested []string) *MetadataResponse {
	merged := &MetadataResponse{
		ProviderID: AggregateProviderID,
		Fields:     make(map[string]string),
	}

	confidence := make(map[string]float64) // field -> winning response confidence
	var maxConfidence float64
	var latest time.Time

	for _, resp := range responses {
		if resp.Confidence > maxConfidence {
			maxConfidence = resp.Confidence
		}
		if resp.UpdatedAt.After(latest) {
			latest = resp.UpdatedAt
		}
		for field, value := range resp.Fields {
			if value == "" {
				continue
			}
			prev, exists := confidence[field]
			// Strict comparison keeps the earliest provider on ties.
			if !exists || resp.Confidence > prev {
				merged.Fields[field] = value
				confidence[field] = resp.Confidence
			}
		}
	}

	// Completeness is the fraction of requested fields populated across
	// all merged sources. With no explicit request the union of provided
	// fields is the baseline.
	if len(requested) == 0 {
		seen := make(map[string]bool)
		for _, resp := range responses {
			for field := range resp.Fields {
				if !seen[field] {
					seen[field] = true
					requested = append(requested, field)
				}
			}
		}
	}
	if len(requested) > 0 {
		populated := 0
		for _, field := range requested {
			if merged.Fields[field] != "" {
				populated++
			}
		}
		merged.Completeness = float64(populated) / float64(len(requested))
	}

	merged.Confidence = clamp01(maxConfidence)
	merged.Completeness = clamp01(merged.Completeness)
	merged.UpdatedAt = latest
	return merged
}
