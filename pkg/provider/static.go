package provider

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// GenericQuery is the fallback query used when a request carries no
// category preferences. It matches the full catalog, popularity-ordered.
const GenericQuery = "인기 여행지"

// StaticProvider serves destinations from an in-process catalog.
// It is the default provider for demos and tests.
type StaticProvider struct {
	mu      sync.RWMutex
	catalog []Destination
}

// DefaultCatalog returns the built-in destination catalog.
func DefaultCatalog() []Destination {
	return []Destination{
		{Name: "제주도", Category: "nature", Popularity: 9.5, Description: "화산섬의 자연 경관과 해변"},
		{Name: "부산", Category: "city", Popularity: 8.7, Description: "해운대와 항구 도시의 활기"},
		{Name: "경주", Category: "culture", Popularity: 8.2, Description: "신라 천년의 역사 유적"},
		{Name: "강릉", Category: "nature", Popularity: 8.0, Description: "동해안 해변과 커피 거리"},
	}
}

// NewStaticProvider creates a provider over the given catalog.
// A nil catalog uses DefaultCatalog.
func NewStaticProvider(catalog []Destination) *StaticProvider {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &StaticProvider{catalog: catalog}
}

// queryTerms maps query keywords to catalog categories.
var queryTerms = map[string]string{
	"자연": "nature",
	"경관": "nature",
	"문화": "culture",
	"관광": "culture",
	"도시": "city",
	"맛집": "food",
}

// Search filters the catalog by query terms. Destinations whose category
// matches a requested term rank first; both partitions are ordered by
// popularity. Queries naming no known category (including GenericQuery)
// return the whole catalog ordered by popularity.
func (p *StaticProvider) Search(ctx context.Context, query string) ([]Destination, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	categories := make(map[string]bool)
	for term, category := range queryTerms {
		if strings.Contains(query, term) {
			categories[category] = true
		}
	}

	var matched, rest []Destination
	for _, dest := range p.catalog {
		if categories[dest.Category] {
			matched = append(matched, dest)
		} else {
			rest = append(rest, dest)
		}
	}

	byPopularity := func(s []Destination) {
		sort.SliceStable(s, func(i, j int) bool {
			return s[i].Popularity > s[j].Popularity
		})
	}
	byPopularity(matched)
	byPopularity(rest)

	return append(matched, rest...), nil
}

// Add appends a destination to the catalog.
func (p *StaticProvider) Add(dest Destination) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.catalog = append(p.catalog, dest)
}
