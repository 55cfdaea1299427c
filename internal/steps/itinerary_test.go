package steps

import (
	"strings"
	"testing"

	"github.com/tripgo-dev/tripgo/pkg/provider"
)

func TestGenerateItinerary(t *testing.T) {
	jeju := provider.Destination{Name: "제주도", Category: "nature", Popularity: 9.5}

	it := GenerateItinerary(jeju, 3)

	if it.Destination != "제주도" {
		t.Errorf("Destination = %q", it.Destination)
	}
	if it.Duration != 3 {
		t.Errorf("Duration = %d, want 3", it.Duration)
	}
	if len(it.DailyPlan) != 3 {
		t.Fatalf("expected 3 days, got %d", len(it.DailyPlan))
	}

	for i, day := range it.DailyPlan {
		if day.Day != i+1 {
			t.Errorf("day %d numbered %d", i, day.Day)
		}
		if len(day.Activities) == 0 {
			t.Errorf("day %d has no activities", day.Day)
		}
		for _, activity := range day.Activities {
			if !strings.Contains(activity, "제주도") {
				t.Errorf("activity %q does not name the destination", activity)
			}
		}
	}
}

func TestGenerateItinerary_UnknownCategory(t *testing.T) {
	dest := provider.Destination{Name: "울릉도", Category: "island", Popularity: 7.0}

	it := GenerateItinerary(dest, 2)
	if len(it.DailyPlan) != 2 {
		t.Fatalf("expected 2 days, got %d", len(it.DailyPlan))
	}
	if len(it.DailyPlan[0].Activities) != len(defaultActivities) {
		t.Errorf("expected default activities for unknown category")
	}
}

func TestGenerateItinerary_MinimumOneDay(t *testing.T) {
	dest := provider.Destination{Name: "부산", Category: "city", Popularity: 8.7}

	it := GenerateItinerary(dest, 0)
	if len(it.DailyPlan) != 1 {
		t.Errorf("expected 1 day for zero duration, got %d", len(it.DailyPlan))
	}
}

func TestDraftItineraries_PreservesOrder(t *testing.T) {
	destinations := provider.DefaultCatalog()

	itineraries := DraftItineraries(destinations, 2)
	if len(itineraries) != len(destinations) {
		t.Fatalf("expected %d itineraries, got %d", len(destinations), len(itineraries))
	}
	for i, it := range itineraries {
		if it.Destination != destinations[i].Name {
			t.Errorf("itinerary %d for %q, want %q", i, it.Destination, destinations[i].Name)
		}
	}
}
