package domain

import "strings"

// NormalizeObservation substitutes unknown for a blank Extreme Event Type.
// A type made only of whitespace counts as blank; other labels are kept
// verbatim.
func NormalizeObservation(o Observation, unknown string) Observation {
	if strings.TrimSpace(o.ExtremeEventType) == "" {
		o.ExtremeEventType = unknown
	}
	return o
}

// FillUnknownEventType normalizes every observation in place and returns the
// number of event types that were filled.
func FillUnknownEventType(obs []Observation, unknown string) int {
	if unknown == "" {
		unknown = DefaultUnknownEventType
	}
	filled := 0
	for i := range obs {
		if strings.TrimSpace(obs[i].ExtremeEventType) == "" {
			filled++
		}
		obs[i] = NormalizeObservation(obs[i], unknown)
	}
	return filled
}

// ChunkResult is the outcome of transforming one chunk.
type ChunkResult struct {
	Kept    []Observation
	Dropped map[string]int
	Filled  int
}

// TransformChunk fills unknown event types, filters outliers over metrics in
// order, and validates the survivors.
func TransformChunk(obs []Observation, unknown string, metrics []Metric) (ChunkResult, error) {
	filled := FillUnknownEventType(obs, unknown)
	kept, dropped := FilterChunk(obs, metrics...)
	res := ChunkResult{Kept: kept, Dropped: dropped, Filled: filled}
	for _, o := range kept {
		if err := o.Validate(); err != nil {
			return ChunkResult{Dropped: dropped, Filled: filled}, err
		}
	}
	return res, nil
}
