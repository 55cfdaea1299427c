// Package provider supplies destination candidates to the recommendation
// workflow. Implementations must be safe for concurrent use; an empty
// result set is a valid answer, not an error.
package provider

import (
	"context"
)

// Destination is a single travel destination candidate.
type Destination struct {
	// Name is the destination name (e.g. "제주도").
	Name string `json:"name"`
	// Category classifies the destination (nature, city, culture, ...).
	Category string `json:"category"`
	// Popularity is a 0-10 popularity rating.
	Popularity float64 `json:"popularity"`
	// Description is an optional human-readable summary.
	Description string `json:"description,omitempty"`
}

// Provider searches for destination candidates matching a free-text query.
type Provider interface {
	// Search returns candidates for the query, best matches first.
	// An empty slice means nothing matched.
	Search(ctx context.Context, query string) ([]Destination, error)
}
