// Package workflow drives the travel recommendation pipeline: two
// sequential analysis phases, one parallel fork/join phase, and a final
// assembly phase, with strict forward-only state transitions.
package workflow

// State is a named stage of the workflow state machine.
type State string

const (
	StateInitialized               State = "initialized"
	StateAnalyzingPreferences      State = "analyzing_preferences"
	StateSearchingDestinations     State = "searching_destinations"
	StateMatchingPreferences       State = "matching_preferences"
	StateOptimizingBudget          State = "optimizing_budget"
	StateGeneratingItinerary       State = "generating_itinerary"
	StateFinalizingRecommendations State = "finalizing_recommendations"
	StateCompleted                 State = "completed"
	StateError                     State = "error"
)

// forwardOrder assigns each non-terminal state its position in the strict
// forward progression. StateError is reachable from any non-terminal state.
var forwardOrder = map[State]int{
	StateInitialized:               0,
	StateAnalyzingPreferences:      1,
	StateSearchingDestinations:     2,
	StateMatchingPreferences:       3,
	StateOptimizingBudget:          4,
	StateGeneratingItinerary:       5,
	StateFinalizingRecommendations: 6,
	StateCompleted:                 7,
}

// Terminal reports whether no further transition may leave the state.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateError
}

// CanTransition reports whether moving from s to next respects the strict
// forward order (the error escape is always allowed from a non-terminal
// state).
func (s State) CanTransition(next State) bool {
	if s.Terminal() {
		return false
	}
	if next == StateError {
		return true
	}
	from, ok := forwardOrder[s]
	if !ok {
		return false
	}
	to, ok := forwardOrder[next]
	if !ok {
		return false
	}
	return to > from
}

// Progress returns the completion percentage reached once the workflow has
// passed the given state, aligned to the four phase boundaries.
func (s State) Progress() int {
	switch s {
	case StateAnalyzingPreferences:
		return 25
	case StateSearchingDestinations:
		return 50
	case StateMatchingPreferences, StateOptimizingBudget, StateGeneratingItinerary:
		return 75
	case StateFinalizingRecommendations, StateCompleted:
		return 100
	default:
		return 0
	}
}
