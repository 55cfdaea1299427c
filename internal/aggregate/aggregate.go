// Package aggregate assembles the per-step outputs of a workflow run into
// the final recommendation objects and the response envelope returned to
// the dispatcher. All functions are deterministic and side-effect free.
package aggregate

import (
	"fmt"
	"time"

	"github.com/tripgo-dev/tripgo/internal/steps"
	"github.com/tripgo-dev/tripgo/pkg/provider"
)

// MaxRecommendations caps the recommendation list length.
const MaxRecommendations = 3

// Defaults used when a degraded parallel sub-analysis produced fewer
// entries than there are destinations.
const (
	defaultMatchScore     = 0.8
	baseConfidence        = 0.85
	confidenceStepPenalty = 0.05
)

// Analysis bundles the three parallel sub-analysis results.
// A sub-analysis that failed is present with its zero value.
type Analysis struct {
	PreferenceMatching steps.MatchReport `json:"preference_matching"`
	BudgetOptimization steps.BudgetPlan  `json:"budget_optimization"`
	ItineraryPlanning  []steps.Itinerary `json:"itinerary_planning"`
}

// Recommendation is the terminal artifact of a workflow run.
// Immutable once created.
type Recommendation struct {
	ID              string           `json:"id"`
	Destination     string           `json:"destination"`
	Title           string           `json:"title"`
	Description     string           `json:"description"`
	MatchScore      float64          `json:"match_score"`
	BudgetBreakdown steps.BudgetPlan `json:"budget_breakdown"`
	Itinerary       steps.Itinerary  `json:"itinerary"`
	Confidence      float64          `json:"confidence"`
	GeneratedAt     time.Time        `json:"generated_at"`
}

// BuildRecommendations creates one recommendation for each of the top
// destinations, at most MaxRecommendations. Scores and itineraries are
// taken positionally from the analysis, falling back to defaults when a
// degraded sub-analysis produced fewer entries. The budget breakdown is
// shared across all recommendations.
func BuildRecommendations(sessionID string, destinations []provider.Destination, analysis Analysis, now time.Time) []Recommendation {
	limit := len(destinations)
	if limit > MaxRecommendations {
		limit = MaxRecommendations
	}

	recommendations := make([]Recommendation, 0, limit)
	for i := 0; i < limit; i++ {
		dest := destinations[i]

		score := defaultMatchScore
		if i < len(analysis.PreferenceMatching.Scores) {
			score = analysis.PreferenceMatching.Scores[i]
		}

		var itinerary steps.Itinerary
		if i < len(analysis.ItineraryPlanning) {
			itinerary = analysis.ItineraryPlanning[i]
		}

		description := dest.Description
		if description == "" {
			description = "아름다운 여행지입니다."
		}

		recommendations = append(recommendations, Recommendation{
			ID:              fmt.Sprintf("rec_%s_%d", sessionID, i+1),
			Destination:     dest.Name,
			Title:           fmt.Sprintf("%s 여행", dest.Name),
			Description:     description,
			MatchScore:      score,
			BudgetBreakdown: analysis.BudgetOptimization,
			Itinerary:       itinerary,
			Confidence:      baseConfidence - confidenceStepPenalty*float64(i),
			GeneratedAt:     now,
		})
	}

	return recommendations
}

// Result is the complete output of a workflow run.
type Result struct {
	Preferences     steps.Preferences      `json:"preferences"`
	Destinations    []provider.Destination `json:"destinations"`
	Analysis        Analysis               `json:"analysis"`
	Recommendations []Recommendation       `json:"recommendations"`
}

// Assemble merges a workflow result into the response envelope returned to
// the dispatcher. Recommendation order is preserved exactly as ranked.
func Assemble(result *Result) map[string]any {
	return map[string]any{
		"preferences":     result.Preferences,
		"destinations":    result.Destinations,
		"analysis":        result.Analysis,
		"recommendations": result.Recommendations,
		"total_count":     len(result.Recommendations),
	}
}
