package core

import (
	"cmp"
	"slices"
)

// CompareMatches orders matches by score descending, then strategy priority,
// then kind (FAQ before document), then item ID ascending.
func CompareMatches(a, b MatchResult) int {
	if a.Score != b.Score {
		if a.Score > b.Score {
			return -1
		}
		return 1
	}
	if c := cmp.Compare(a.Strategy, b.Strategy); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Item.Kind(), b.Item.Kind()); c != 0 {
		return c
	}
	return cmp.Compare(a.Item.ItemID(), b.Item.ItemID())
}

// SortMatches ranks matches in place and returns them.
func SortMatches(matches []MatchResult) []MatchResult {
	slices.SortStableFunc(matches, CompareMatches)
	return matches
}

// TopMatches returns at most n ranked matches whose score is at least floor.
func TopMatches(matches []MatchResult, floor float32, n int) []MatchResult {
	kept := make([]MatchResult, 0, len(matches))
	for _, m := range matches {
		if m.Score >= floor {
			kept = append(kept, m)
		}
	}
	SortMatches(kept)
	if n > 0 && len(kept) > n {
		kept = kept[:n]
	}
	return kept
}

// ClampScore bounds a similarity score to [0,1].
func ClampScore(s float32) float32 {
	switch {
	case s < 0:
		return 0
	case s > 1:
		return 1
	default:
		return s
	}
}
