// Package sites holds the six site adapters. Each one encodes a single
// site's URL scheme and page layout; all of them emit the same normalized
// listing record through the helpers here.
package sites

import (
	"net/url"
	"strings"

	"imoradar/internal/domain/models"
	"imoradar/internal/extract"
	"imoradar/internal/scrape"
)

// All builds the full adapter set backed by one shared fetcher.
func All(f scrape.Fetcher) []scrape.Adapter {
	return []scrape.Adapter{
		NewIdealista(f),
		NewImovirtual(f),
		NewSupercasa(f),
		NewCasaSapo(f),
		NewRemax(f),
		NewOLX(f),
	}
}

func mustBase(raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		panic("sites: bad base url " + raw)
	}
	return u
}

// listingFrom runs the extraction utilities over a card's text and builds
// the normalized record. Cards yielding neither a price nor an area are
// noise and rejected. €/m² is derived from the other two values when the
// page does not state it.
func listingFrom(source string, q scrape.Query, title, absURL, txt string) (models.Listing, bool) {
	price := extract.ParseEuro(txt)
	area := extract.ParseArea(txt)
	eurm2 := extract.ParseEuroPerM2(txt)
	if eurm2 == nil {
		eurm2 = extract.PricePerArea(price, area)
	}

	if price == nil && area == nil {
		return models.Listing{}, false
	}

	typ := extract.ExtractTypology(txt)
	if typ == "" {
		typ = extract.ExtractTypology(title)
	}

	return models.Listing{
		URL:        absURL,
		Source:     source,
		District:   q.District,
		Title:      title,
		PriceEUR:   price,
		AreaM2:     area,
		EURM2:      eurm2,
		Snippet:    scrape.Snippet(txt),
		Typology:   typ,
		SearchType: q.SearchType,
	}, true
}

// typologySegment renders a concrete typology as a lowercase URL segment
// ("t2"); the wildcard and combined forms have no path representation on
// these sites, so ok is false and callers omit the segment.
func typologySegment(typology string) (seg string, ok bool) {
	t := extract.NormalizeTypology(typology)
	if t == "T*" || strings.Contains(t, "+") {
		return "", false
	}
	return strings.ToLower(t), true
}

func hasEuro(txt string) bool { return strings.Contains(txt, "€") }

func hasArea(txt string) bool {
	return strings.Contains(txt, "m²") || strings.Contains(txt, "Área")
}
