package steps

import (
	"math"
	"testing"

	"github.com/tripgo-dev/tripgo/pkg/provider"
)

func TestCalculateMatchScore(t *testing.T) {
	tests := []struct {
		name  string
		dest  provider.Destination
		prefs Preferences
		want  float64
	}{
		{
			name:  "nature match with high popularity",
			dest:  provider.Destination{Name: "제주도", Category: "nature", Popularity: 9.5},
			prefs: Preferences{Nature: true},
			want:  0.99, // 0.5 + 0.3 + 0.19
		},
		{
			name:  "no category match",
			dest:  provider.Destination{Name: "부산", Category: "city", Popularity: 8.7},
			prefs: Preferences{Nature: true},
			want:  0.674, // 0.5 + 0.174
		},
		{
			name:  "culture match",
			dest:  provider.Destination{Name: "경주", Category: "culture", Popularity: 8.2},
			prefs: Preferences{Culture: true},
			want:  0.964, // 0.5 + 0.3 + 0.164
		},
		{
			name:  "capped at one",
			dest:  provider.Destination{Name: "이상향", Category: "nature", Popularity: 10.0},
			prefs: Preferences{Nature: true},
			want:  1.0,
		},
		{
			name:  "no preferences at all",
			dest:  provider.Destination{Name: "강릉", Category: "nature", Popularity: 8.0},
			prefs: Preferences{},
			want:  0.66, // 0.5 + 0.16
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateMatchScore(tt.dest, tt.prefs)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("score = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMatchScoreBounds(t *testing.T) {
	prefSets := []Preferences{
		{},
		{Nature: true},
		{Culture: true},
		{Nature: true, Culture: true, Food: true, Luxury: true},
	}

	for _, dest := range provider.DefaultCatalog() {
		for _, prefs := range prefSets {
			score := CalculateMatchScore(dest, prefs)
			if score < 0.0 || score > 1.0 {
				t.Errorf("score %v out of [0,1] for %s with %+v", score, dest.Name, prefs)
			}
		}
	}
}

func TestMatchDestinations_Ordering(t *testing.T) {
	destinations := provider.DefaultCatalog()
	report := MatchDestinations(destinations, Preferences{Nature: true})

	if report.TotalAnalyzed != len(destinations) {
		t.Errorf("TotalAnalyzed = %d, want %d", report.TotalAnalyzed, len(destinations))
	}
	if len(report.Scores) != len(report.Matches) {
		t.Fatalf("scores/matches length mismatch: %d vs %d", len(report.Scores), len(report.Matches))
	}

	// Best-first, and the scores list mirrors the match order.
	for i := 1; i < len(report.Matches); i++ {
		if report.Matches[i].MatchScore > report.Matches[i-1].MatchScore {
			t.Errorf("matches not sorted at index %d", i)
		}
	}
	for i, m := range report.Matches {
		if report.Scores[i] != m.MatchScore {
			t.Errorf("scores[%d] = %v, want %v", i, report.Scores[i], m.MatchScore)
		}
	}

	if report.Matches[0].Destination.Name != "제주도" {
		t.Errorf("expected 제주도 best match, got %s", report.Matches[0].Destination.Name)
	}
}

func TestMatchDestinations_StableTies(t *testing.T) {
	destinations := []provider.Destination{
		{Name: "A", Category: "city", Popularity: 7.0},
		{Name: "B", Category: "city", Popularity: 7.0},
		{Name: "C", Category: "city", Popularity: 7.0},
	}

	report := MatchDestinations(destinations, Preferences{})
	for i, want := range []string{"A", "B", "C"} {
		if report.Matches[i].Destination.Name != want {
			t.Errorf("tie order broken at %d: got %s, want %s", i, report.Matches[i].Destination.Name, want)
		}
	}
}

func TestMatchingFactors(t *testing.T) {
	jeju := provider.Destination{Name: "제주도", Category: "nature", Popularity: 9.5}

	factors := MatchingFactors(jeju, Preferences{Nature: true})
	if len(factors) != 2 {
		t.Fatalf("expected 2 factors, got %v", factors)
	}
	if factors[0] != "자연 선호도 일치" || factors[1] != "높은 인기도" {
		t.Errorf("unexpected factors: %v", factors)
	}

	// Popularity exactly at the threshold does not count.
	edge := provider.Destination{Name: "강릉", Category: "nature", Popularity: 8.0}
	factors = MatchingFactors(edge, Preferences{})
	if len(factors) != 0 {
		t.Errorf("expected no factors, got %v", factors)
	}
}

func TestMatchDestinations_Empty(t *testing.T) {
	report := MatchDestinations(nil, Preferences{Nature: true})
	if report.TotalAnalyzed != 0 || len(report.Matches) != 0 || len(report.Scores) != 0 {
		t.Errorf("expected empty report, got %+v", report)
	}
}
