package models

import "time"

type SearchType string

const (
	SearchRent SearchType = "rent"
	SearchBuy  SearchType = "buy"
)

func ParseSearchType(s string) SearchType {
	if s == string(SearchBuy) {
		return SearchBuy
	}
	return SearchRent
}

// Listing is the normalized record every source adapter produces. URL is the
// only natural key; two listings with the same URL are the same listing.
type Listing struct {
	URL        string     `json:"url"`
	Source     string     `json:"source"`
	District   string     `json:"district"`
	Title      string     `json:"title"`
	PriceEUR   *float64   `json:"price_eur"`
	AreaM2     *float64   `json:"area_m2"`
	EURM2      *float64   `json:"eur_m2"`
	Snippet    string     `json:"snippet"`
	Typology   string     `json:"typology"`
	SearchType SearchType `json:"search_type"`
	FirstSeen  time.Time  `json:"first_seen"`
	LastSeen   time.Time  `json:"last_seen"`
}

type SortKey string

const (
	SortEURM2Asc  SortKey = "eur_m2_asc"
	SortEURM2Desc SortKey = "eur_m2_desc"
	SortPriceAsc  SortKey = "price_asc"
	SortPriceDesc SortKey = "price_desc"
)

func ParseSortKey(s string) SortKey {
	switch SortKey(s) {
	case SortEURM2Desc, SortPriceAsc, SortPriceDesc:
		return SortKey(s)
	default:
		return SortEURM2Asc
	}
}

// Filters are the post-merge numeric and heuristic filters of a query.
// Nil pointer fields mean "no bound".
type Filters struct {
	MinPrice         *float64 `json:"min_price,omitempty"`
	MaxPrice         *float64 `json:"max_price,omitempty"`
	MinArea          *float64 `json:"min_area,omitempty"`
	MaxArea          *float64 `json:"max_area,omitempty"`
	OnlyWithEURM2    bool     `json:"only_with_eurm2"`
	ExcludeTemporary bool     `json:"exclude_temporary"`
}

// Stats summarizes one served result set.
type Stats struct {
	Count       int            `json:"count"`
	BySource    map[string]int `json:"by_source"`
	MedianEURM2 *float64       `json:"median_eur_m2"`
}

// DailyStat is one row of the daily aggregate table, keyed by
// (date, district, search_type, typology).
type DailyStat struct {
	Date        string  `json:"date"`
	District    string  `json:"district"`
	SearchType  string  `json:"search_type"`
	Typology    string  `json:"typology"`
	AvgEURM2    float64 `json:"avg_eur_m2"`
	AvgPriceEUR float64 `json:"avg_price_eur"`
	Count       int     `json:"count"`
}

// YieldStat compares rent and buy price-per-area for one district.
// GrossYield is (avg rent €/m² · 12) / avg buy €/m².
type YieldStat struct {
	District   string  `json:"district"`
	RentEURM2  float64 `json:"rent_m2"`
	BuyEURM2   float64 `json:"buy_m2"`
	GrossYield float64 `json:"yield"`
}
