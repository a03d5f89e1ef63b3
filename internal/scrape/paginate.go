package scrape

import (
	"context"

	"imoradar/internal/domain/models"
)

// Paginate drives one adapter's page loop: build the page URL, fetch it,
// parse it, pause politely before the next page, and dedupe the accumulated
// listings by URL. A fetch failure aborts this adapter only; the orchestrator
// isolates it from sibling sources.
func Paginate(
	ctx context.Context,
	f Fetcher,
	pages int,
	buildURL func(page int) string,
	parse func(html string) []models.Listing,
) ([]models.Listing, error) {
	var out []models.Listing
	for page := 1; page <= pages; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		html, err := f.Fetch(ctx, buildURL(page))
		if err != nil {
			return nil, err
		}
		out = append(out, parse(html)...)

		if page < pages {
			if err := f.PolitePause(ctx); err != nil {
				return nil, err
			}
		}
	}
	return DedupeByURL(out), nil
}

// DedupeByURL keeps the first listing seen for each URL, preserving order.
// Listings with an empty URL are dropped.
func DedupeByURL(in []models.Listing) []models.Listing {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, l := range in {
		if l.URL == "" || seen[l.URL] {
			continue
		}
		seen[l.URL] = true
		out = append(out, l)
	}
	return out
}
