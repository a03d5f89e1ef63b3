package aggregator

import (
	"sort"
	"strings"

	"imoradar/internal/domain/models"
	"imoradar/internal/extract"
)

// temporaryKeywords flag short-stay and sublet ads that pollute long-term
// rental comparisons.
var temporaryKeywords = []string{
	"temporário",
	"temporario",
	"subloc",
	"curta duração",
	"curta duracao",
}

func isTemporary(l models.Listing) bool {
	txt := strings.ToLower(l.Title + " " + l.Snippet)
	for _, kw := range temporaryKeywords {
		if strings.Contains(txt, kw) {
			return true
		}
	}
	return false
}

func filterBySources(items []models.Listing, sources []string) []models.Listing {
	if len(sources) == 0 {
		return items
	}
	allowed := make(map[string]struct{}, len(sources))
	for _, s := range sources {
		allowed[s] = struct{}{}
	}
	out := items[:0]
	for _, l := range items {
		if _, ok := allowed[l.Source]; ok {
			out = append(out, l)
		}
	}
	return out
}

// filterByTypology keeps listings whose text mentions exactly the requested
// typology; T2 never matches a T2+1. A wildcard keeps everything.
func filterByTypology(items []models.Listing, typology string) []models.Listing {
	if typology == "" || typology == "T*" {
		return items
	}
	out := items[:0]
	for _, l := range items {
		if extract.MatchesTypology(l.Title+" "+l.Snippet, typology) {
			out = append(out, l)
		}
	}
	return out
}

func applyFilters(items []models.Listing, f models.Filters) []models.Listing {
	out := items[:0]
	for _, l := range items {
		if f.MinPrice != nil && (l.PriceEUR == nil || *l.PriceEUR < *f.MinPrice) {
			continue
		}
		if f.MaxPrice != nil && (l.PriceEUR == nil || *l.PriceEUR > *f.MaxPrice) {
			continue
		}
		if f.MinArea != nil && (l.AreaM2 == nil || *l.AreaM2 < *f.MinArea) {
			continue
		}
		if f.MaxArea != nil && (l.AreaM2 == nil || *l.AreaM2 > *f.MaxArea) {
			continue
		}
		if f.OnlyWithEURM2 && l.EURM2 == nil {
			continue
		}
		if f.ExcludeTemporary && isTemporary(l) {
			continue
		}
		out = append(out, l)
	}
	return out
}

// sortListings orders in place. Rows missing the sort field land after every
// row that has it, for ascending and descending alike; ties keep their
// incoming order.
func sortListings(items []models.Listing, key models.SortKey) {
	var field func(models.Listing) *float64
	desc := false
	switch key {
	case models.SortPriceAsc:
		field = func(l models.Listing) *float64 { return l.PriceEUR }
	case models.SortPriceDesc:
		field = func(l models.Listing) *float64 { return l.PriceEUR }
		desc = true
	case models.SortEURM2Desc:
		field = func(l models.Listing) *float64 { return l.EURM2 }
		desc = true
	default:
		field = func(l models.Listing) *float64 { return l.EURM2 }
	}
	sort.SliceStable(items, func(i, j int) bool {
		a, b := field(items[i]), field(items[j])
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		case desc:
			return *a > *b
		default:
			return *a < *b
		}
	})
}

func computeStats(items []models.Listing) models.Stats {
	st := models.Stats{
		Count:    len(items),
		BySource: make(map[string]int),
	}
	var known []float64
	for _, l := range items {
		st.BySource[l.Source]++
		if l.EURM2 != nil {
			known = append(known, *l.EURM2)
		}
	}
	if len(known) > 0 {
		sort.Float64s(known)
		mid := len(known) / 2
		var m float64
		if len(known)%2 == 1 {
			m = known[mid]
		} else {
			m = (known[mid-1] + known[mid]) / 2
		}
		m = extract.Round2(m)
		st.MedianEURM2 = &m
	}
	return st
}
