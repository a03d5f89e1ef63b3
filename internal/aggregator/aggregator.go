// Package aggregator orchestrates one listings query end to end: cache
// lookup, store sufficiency check, concurrent scraping across site adapters,
// merge, persistence, then filtering, sorting and stats over the result.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"imoradar/internal/domain/models"
	"imoradar/internal/extract"
	"imoradar/internal/scrape"
)

const (
	maxScrapeWorkers = 8
	defaultLimit     = 200
	maxLimit         = 1000
	minLimit         = 10
	maxPages         = 10

	recomputeTimeout = 30 * time.Second
)

// ErrNoSources means the requested source set resolved to nothing known.
var ErrNoSources = errors.New("no known sources")

// Store is the persistence slice the orchestrator needs. limit == 0 on
// QueryListings means no limit.
type Store interface {
	Upsert(ctx context.Context, listings []models.Listing) error
	QueryListings(ctx context.Context, district string, st models.SearchType, typology string, limit int) ([]models.Listing, error)
	RecomputeDailyStats(ctx context.Context) error
}

// Request is one listings query after HTTP-level decoding.
type Request struct {
	District   string
	Pages      int
	Sources    []string
	Typology   string
	SearchType models.SearchType
	Sort       models.SortKey
	Limit      int
	Filters    models.Filters
}

type Options struct {
	Registry        *scrape.Registry
	Store           Store
	Cache           *Cache
	Logger          *slog.Logger
	DefaultDistrict string
	DefaultPages    int
}

type Service struct {
	registry        *scrape.Registry
	store           Store
	cache           *Cache
	log             *slog.Logger
	defaultDistrict string
	defaultPages    int

	// statsMu serializes the daily-stat recomputes fired after each persist.
	statsMu sync.Mutex
	// recomputing lets tests and shutdown wait for in-flight recomputes.
	recomputing sync.WaitGroup
}

func New(opts Options) *Service {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	district := opts.DefaultDistrict
	if district == "" {
		district = "Leiria"
	}
	pages := opts.DefaultPages
	if pages < 1 {
		pages = 2
	}
	cache := opts.Cache
	if cache == nil {
		cache = NewCache(256, 10*time.Minute)
	}
	return &Service{
		registry:        opts.Registry,
		store:           opts.Store,
		cache:           cache,
		log:             log,
		defaultDistrict: district,
		defaultPages:    pages,
	}
}

// Result is one served query: the resolved query identity plus the filtered,
// sorted listings and their stats.
type Result struct {
	District   string
	SearchType models.SearchType
	Typology   string
	Listings   []models.Listing
	Stats      models.Stats
}

// GetListings serves one query. Scraping happens only when neither the cache
// nor the store can satisfy it; a broken store degrades to scrape-only.
func (s *Service) GetListings(ctx context.Context, req Request) (Result, error) {
	district := ResolveDistrict(req.District, s.defaultDistrict)
	slug := extract.Slugify(district)
	typology := extract.NormalizeTypology(req.Typology)
	st := req.SearchType
	if st != models.SearchBuy {
		st = models.SearchRent
	}

	pages := req.Pages
	if pages < 1 {
		pages = s.defaultPages
	}
	if pages > maxPages {
		pages = maxPages
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit < minLimit {
		limit = minLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	adapters, sources := s.registry.Select(req.Sources)
	if len(adapters) == 0 {
		return Result{}, fmt.Errorf("aggregator: %w: %v", ErrNoSources, req.Sources)
	}

	key := cacheKey(district, slug, pages, sources, typology, st, limit)
	merged, hit := s.cache.Get(key)
	if hit {
		s.log.Debug("cache hit", "key", key, "listings", len(merged))
	} else {
		var err error
		merged, err = s.collect(ctx, district, slug, pages, adapters, typology, st, limit)
		if err != nil {
			return Result{}, err
		}
		s.cache.Add(key, merged)
	}

	// Work on a copy so post filters never mutate the cached slice.
	items := append([]models.Listing(nil), merged...)
	items = filterBySources(items, sources)
	items = filterByTypology(items, typology)
	items = applyFilters(items, req.Filters)
	sortListings(items, req.Sort)
	if len(items) > limit {
		items = items[:limit]
	}
	return Result{
		District:   district,
		SearchType: st,
		Typology:   typology,
		Listings:   items,
		Stats:      computeStats(items),
	}, nil
}

// collect produces the merged result set for one cache-missed query.
func (s *Service) collect(ctx context.Context, district, slug string, pages int, adapters []scrape.Adapter, typology string, st models.SearchType, limit int) ([]models.Listing, error) {
	stored, err := s.store.QueryListings(ctx, district, st, typology, 0)
	if err != nil {
		s.log.Warn("store query failed, falling back to scrape", "district", district, "err", err)
		stored = nil
	}
	if len(stored) >= limit {
		s.log.Debug("store satisfies query", "district", district, "stored", len(stored), "limit", limit)
		return stored, nil
	}

	q := scrape.Query{
		District:     district,
		DistrictSlug: slug,
		Pages:        pages,
		Typology:     typology,
		SearchType:   st,
	}
	scraped := s.fanOut(ctx, adapters, q)
	if len(stored) == 0 && len(scraped) == 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	classify(scraped, typology, st)
	if len(scraped) > 0 {
		s.persist(ctx, scraped)
	}

	// Store rows win on URL collisions: they carry history-backed fields.
	merged := append([]models.Listing(nil), stored...)
	merged = append(merged, scraped...)
	return scrape.DedupeByURL(merged), nil
}

// Scan scrapes every requested source and persists the results, bypassing
// the cache and the store sufficiency check. The scan binary uses it to seed
// and refresh the store on a schedule.
func (s *Service) Scan(ctx context.Context, req Request) (int, error) {
	district := ResolveDistrict(req.District, s.defaultDistrict)
	typology := extract.NormalizeTypology(req.Typology)
	st := req.SearchType
	if st != models.SearchBuy {
		st = models.SearchRent
	}
	pages := req.Pages
	if pages < 1 {
		pages = s.defaultPages
	}
	if pages > maxPages {
		pages = maxPages
	}
	adapters, _ := s.registry.Select(req.Sources)
	if len(adapters) == 0 {
		return 0, fmt.Errorf("aggregator: %w: %v", ErrNoSources, req.Sources)
	}

	scraped := s.fanOut(ctx, adapters, scrape.Query{
		District:     district,
		DistrictSlug: extract.Slugify(district),
		Pages:        pages,
		Typology:     typology,
		SearchType:   st,
	})
	classify(scraped, typology, st)
	if len(scraped) > 0 {
		s.persist(ctx, scraped)
	}
	return len(scraped), ctx.Err()
}

type sourceResult struct {
	source   string
	listings []models.Listing
	err      error
}

// fanOut scrapes every adapter concurrently under a bounded worker pool. One
// failing source never takes down the query; it is logged and skipped.
func (s *Service) fanOut(ctx context.Context, adapters []scrape.Adapter, q scrape.Query) []models.Listing {
	width := len(adapters)
	if width > maxScrapeWorkers {
		width = maxScrapeWorkers
	}
	sem := make(chan struct{}, width)
	results := make(chan sourceResult, len(adapters))

	var wg sync.WaitGroup
	for _, a := range adapters {
		wg.Add(1)
		go func(a scrape.Adapter) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			ls, err := a.Scrape(ctx, q)
			results <- sourceResult{source: a.Name(), listings: ls, err: err}
		}(a)
	}
	wg.Wait()
	close(results)

	var out []models.Listing
	for r := range results {
		if r.err != nil {
			s.log.Warn("source scrape failed", "source", r.source, "district", q.District, "err", r.err)
			continue
		}
		s.log.Info("source scraped", "source", r.source, "district", q.District, "listings", len(r.listings))
		out = append(out, r.listings...)
	}
	return out
}

// classify fills the typology and search type of freshly scraped listings
// before they reach the store.
func classify(items []models.Listing, queryTypology string, st models.SearchType) {
	for i := range items {
		l := &items[i]
		if l.Typology == "" {
			if t := extract.ExtractTypology(l.Title + " " + l.Snippet); t != "" {
				l.Typology = t
			} else {
				l.Typology = queryTypology
			}
		}
		l.Typology = extract.NormalizeTypology(l.Typology)
		if l.SearchType == "" {
			l.SearchType = st
		}
	}
}

// persist upserts scraped listings and kicks off a serialized daily-stat
// recompute. A failing store never fails the query.
func (s *Service) persist(ctx context.Context, items []models.Listing) {
	if err := s.store.Upsert(ctx, items); err != nil {
		s.log.Error("store upsert failed", "listings", len(items), "err", err)
		return
	}
	s.recomputing.Add(1)
	go func() {
		defer s.recomputing.Done()
		s.statsMu.Lock()
		defer s.statsMu.Unlock()
		rctx, cancel := context.WithTimeout(context.Background(), recomputeTimeout)
		defer cancel()
		if err := s.store.RecomputeDailyStats(rctx); err != nil {
			s.log.Error("daily stat recompute failed", "err", err)
		}
	}()
}

// Wait blocks until background stat recomputes finish. Called on shutdown.
func (s *Service) Wait() {
	s.recomputing.Wait()
}
