package steps

import (
	"fmt"

	"github.com/tripgo-dev/tripgo/pkg/provider"
)

// DayPlan is a single day of an itinerary.
type DayPlan struct {
	Day        int      `json:"day"`
	Activities []string `json:"activities"`
}

// Itinerary is a per-destination daily plan for the trip duration.
type Itinerary struct {
	Destination string    `json:"destination"`
	Duration    int       `json:"duration"`
	DailyPlan   []DayPlan `json:"daily_plan"`
}

// activityTemplates flavors daily activities by destination category.
var activityTemplates = map[string][]string{
	"nature":  {"자연 탐방", "트레킹", "해변 산책"},
	"culture": {"유적지 관람", "박물관 투어", "전통 체험"},
	"city":    {"도시 투어", "맛집 탐방", "쇼핑"},
}

var defaultActivities = []string{"시내 관광", "맛집 탐방", "휴식"}

// GenerateItinerary builds a daily plan for one destination over the given
// duration. Durations below one day produce a single-day plan.
func GenerateItinerary(dest provider.Destination, duration int) Itinerary {
	if duration < 1 {
		duration = 1
	}

	activities, ok := activityTemplates[dest.Category]
	if !ok {
		activities = defaultActivities
	}

	plan := make([]DayPlan, duration)
	for day := 0; day < duration; day++ {
		daily := make([]string, len(activities))
		for i, activity := range activities {
			daily[i] = fmt.Sprintf("%s - %s %d", dest.Name, activity, day+1)
		}
		plan[day] = DayPlan{Day: day + 1, Activities: daily}
	}

	return Itinerary{
		Destination: dest.Name,
		Duration:    duration,
		DailyPlan:   plan,
	}
}

// DraftItineraries builds one itinerary per destination, preserving input
// order.
func DraftItineraries(destinations []provider.Destination, duration int) []Itinerary {
	itineraries := make([]Itinerary, 0, len(destinations))
	for _, dest := range destinations {
		itineraries = append(itineraries, GenerateItinerary(dest, duration))
	}
	return itineraries
}
