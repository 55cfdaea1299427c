// Package steps contains the individual analysis steps of the travel
// recommendation workflow. Every step is a pure function over its inputs
// so steps stay independently testable.
package steps

import (
	"regexp"
	"strconv"
	"strings"
)

// Defaults applied when the user input names no budget or duration.
const (
	DefaultBudget   = 1_000_000
	DefaultDuration = 3
)

// Preferences holds the travel preferences derived from free-text user input.
// Produced once per workflow run and immutable afterwards.
type Preferences struct {
	Nature          bool `json:"nature"`
	Culture         bool `json:"culture"`
	Food            bool `json:"food"`
	BudgetConscious bool `json:"budget_conscious"`
	Luxury          bool `json:"luxury"`
	Family          bool `json:"family"`
	Solo            bool `json:"solo"`

	// Budget is the extracted total budget in won.
	Budget int `json:"extracted_budget"`
	// Duration is the extracted trip length in days.
	Duration int `json:"extracted_duration"`
}

var (
	budgetPattern   = regexp.MustCompile(`(\d+)만원`)
	durationPattern = regexp.MustCompile(`(\d+)박\s*(\d+)일`)
)

// AnalyzePreferences derives preference flags from user input via keyword
// matching, plus numeric budget ("N만원") and duration ("N박 M일") extraction.
func AnalyzePreferences(userInput string) Preferences {
	return Preferences{
		Nature:          containsAny(userInput, "자연", "힐링"),
		Culture:         containsAny(userInput, "문화", "역사"),
		Food:            containsAny(userInput, "맛집", "음식"),
		BudgetConscious: containsAny(userInput, "저렴", "절약"),
		Luxury:          containsAny(userInput, "럭셔리", "고급"),
		Family:          strings.Contains(userInput, "가족"),
		Solo:            containsAny(userInput, "혼자", "솔로"),
		Budget:          ExtractBudget(userInput),
		Duration:        ExtractDuration(userInput),
	}
}

// ExtractBudget parses a "N만원" amount into won. Missing or malformed
// amounts default to DefaultBudget.
func ExtractBudget(text string) int {
	m := budgetPattern.FindStringSubmatch(text)
	if m == nil {
		return DefaultBudget
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return DefaultBudget
	}
	return n * 10_000
}

// ExtractDuration parses a "N박 M일" trip length into days (M). Missing or
// malformed lengths default to DefaultDuration.
func ExtractDuration(text string) int {
	m := durationPattern.FindStringSubmatch(text)
	if m == nil {
		return DefaultDuration
	}
	days, err := strconv.Atoi(m[2])
	if err != nil {
		return DefaultDuration
	}
	return days
}

// BuildSearchQuery turns preference flags into a provider search query.
// With no category flags set it falls back to a generic popular-destination
// query.
func BuildSearchQuery(prefs Preferences) string {
	var parts []string
	if prefs.Nature {
		parts = append(parts, "자연 경관")
	}
	if prefs.Culture {
		parts = append(parts, "문화 관광")
	}
	if prefs.Food {
		parts = append(parts, "맛집")
	}
	if len(parts) == 0 {
		return "인기 여행지"
	}
	return strings.Join(parts, " ")
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
