package steps

import (
	"sort"

	"github.com/tripgo-dev/tripgo/pkg/provider"
)

// MatchResult scores a single destination against the user's preferences.
type MatchResult struct {
	Destination     provider.Destination `json:"destination"`
	MatchScore      float64              `json:"match_score"`
	MatchingFactors []string             `json:"matching_factors"`
}

// MatchReport is the output of the preference-matching analysis.
type MatchReport struct {
	Matches       []MatchResult `json:"matches"`
	TotalAnalyzed int           `json:"total_analyzed"`
	Scores        []float64     `json:"scores"`
}

// highPopularity is the threshold above which popularity counts as a
// matching factor.
const highPopularity = 8.0

// MatchDestinations scores every destination against the preferences and
// returns them best-first. The sort is stable so ties keep input order.
func MatchDestinations(destinations []provider.Destination, prefs Preferences) MatchReport {
	matches := make([]MatchResult, 0, len(destinations))
	for _, dest := range destinations {
		matches = append(matches, MatchResult{
			Destination:     dest,
			MatchScore:      CalculateMatchScore(dest, prefs),
			MatchingFactors: MatchingFactors(dest, prefs),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].MatchScore > matches[j].MatchScore
	})

	scores := make([]float64, len(matches))
	for i, m := range matches {
		scores[i] = m.MatchScore
	}

	return MatchReport{
		Matches:       matches,
		TotalAnalyzed: len(destinations),
		Scores:        scores,
	}
}

// CalculateMatchScore computes a destination's match score: base 0.5,
// +0.3 for a preference/category match, plus a popularity component of
// (popularity/10)*0.2, capped at 1.0.
func CalculateMatchScore(dest provider.Destination, prefs Preferences) float64 {
	score := 0.5

	if prefs.Nature && dest.Category == "nature" {
		score += 0.3
	}
	if prefs.Culture && dest.Category == "culture" {
		score += 0.3
	}

	score += dest.Popularity / 10.0 * 0.2

	if score > 1.0 {
		score = 1.0
	}
	return score
}

// MatchingFactors lists the human-readable reasons a destination scored,
// derived from the same rules as CalculateMatchScore.
func MatchingFactors(dest provider.Destination, prefs Preferences) []string {
	var factors []string
	if prefs.Nature && dest.Category == "nature" {
		factors = append(factors, "자연 선호도 일치")
	}
	if dest.Popularity > highPopularity {
		factors = append(factors, "높은 인기도")
	}
	return factors
}
