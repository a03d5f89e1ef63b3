// Package scrape defines the source-adapter contract and the shared scraping
// machinery: the paginated fetch loop, the bounded ancestor walk that locates
// a listing's card text, and the adapter registry.
package scrape

import (
	"context"
	"sort"

	"imoradar/internal/domain/models"
)

// Fetcher is the slice of the fetch client adapters depend on.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
	PolitePause(ctx context.Context) error
}

// Query carries one scrape request as every adapter sees it.
type Query struct {
	District     string
	DistrictSlug string
	Pages        int
	Typology     string
	SearchType   models.SearchType
}

// Adapter is the capability contract every site variant satisfies. Scrape
// paginates the site for the query and returns normalized listings, already
// deduplicated by URL within the adapter's own output.
type Adapter interface {
	Name() string
	Scrape(ctx context.Context, q Query) ([]models.Listing, error)
}

// Registry is the fixed map of known adapters, built once at startup and
// injected into the orchestrator.
type Registry struct {
	byName map[string]Adapter
	order  []string
}

func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{byName: make(map[string]Adapter, len(adapters))}
	for _, a := range adapters {
		if _, dup := r.byName[a.Name()]; dup {
			continue
		}
		r.byName[a.Name()] = a
		r.order = append(r.order, a.Name())
	}
	return r
}

func (r *Registry) Get(name string) (Adapter, bool) {
	a, ok := r.byName[name]
	return a, ok
}

// Names returns every registered adapter id in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Select resolves the requested source ids against the registry: unknown ids
// are dropped, an empty request means all adapters. The returned names are
// sorted so they can key the query cache deterministically.
func (r *Registry) Select(names []string) ([]Adapter, []string) {
	if len(names) == 0 {
		names = r.Names()
	}
	var (
		adapters []Adapter
		kept     []string
		seen     = make(map[string]bool, len(names))
	)
	for _, n := range names {
		if seen[n] {
			continue
		}
		seen[n] = true
		if a, ok := r.byName[n]; ok {
			adapters = append(adapters, a)
			kept = append(kept, n)
		}
	}
	sort.Strings(kept)
	return adapters, kept
}
