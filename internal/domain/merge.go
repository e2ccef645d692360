package domain

import (
	"fmt"
	"math"
)

// MergeCase names how one observation was folded into the fact tables.
type MergeCase int

const (
	// CaseNoMatch inserts a new row into both fact tables.
	CaseNoMatch MergeCase = iota
	// CaseEventsMatched averages the matched extreme-events fact and inserts a
	// new climate-indicators row, even if an indicators fact also matched.
	CaseEventsMatched
	// CaseIndicatorsMatched averages the matched climate-indicators fact and
	// inserts a new extreme-events row.
	CaseIndicatorsMatched
	// CaseBothMatched averages both matched facts. Only produced by MergeSymmetric.
	CaseBothMatched
)

func (c MergeCase) String() string {
	switch c {
	case CaseNoMatch:
		return "no_match"
	case CaseEventsMatched:
		return "events_matched"
	case CaseIndicatorsMatched:
		return "indicators_matched"
	case CaseBothMatched:
		return "both_matched"
	default:
		return fmt.Sprintf("MergeCase(%d)", int(c))
	}
}

// MergePolicy selects how a row matching both facts is handled.
type MergePolicy string

const (
	// MergeLegacy checks events first and stops there.
	MergeLegacy MergePolicy = "legacy"
	// MergeSymmetric averages every fact that matched.
	MergeSymmetric MergePolicy = "symmetric"
)

// ParseMergePolicy validates a policy name.
func ParseMergePolicy(s string) (MergePolicy, error) {
	switch MergePolicy(s) {
	case MergeLegacy, MergeSymmetric:
		return MergePolicy(s), nil
	default:
		return "", fmt.Errorf("unknown merge policy %q (want %q or %q)", s, MergeLegacy, MergeSymmetric)
	}
}

// DecideMergeCase picks the merge path from the two natural-key lookups.
func DecideMergeCase(eventsMatch, indicatorsMatch bool, policy MergePolicy) MergeCase {
	switch {
	case eventsMatch && indicatorsMatch && policy == MergeSymmetric:
		return CaseBothMatched
	case eventsMatch:
		return CaseEventsMatched
	case indicatorsMatch:
		return CaseIndicatorsMatched
	default:
		return CaseNoMatch
	}
}

// AverageCount returns round((old+new)/2), rounding halves to even.
func AverageCount(old, new int64) int64 {
	return int64(math.RoundToEven(float64(old+new) / 2))
}

// AverageFloat returns (old+new)/2.
func AverageFloat(old, new float64) float64 {
	return (old + new) / 2
}
