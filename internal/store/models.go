package store

import "time"

// ListingRow is the persisted shape of one listing, keyed by URL.
type ListingRow struct {
	URL        string    `gorm:"column:url;primaryKey;size:512"`
	Source     string    `gorm:"column:source;size:32;index"`
	District   string    `gorm:"column:district;size:64;index:idx_listings_query"`
	Title      string    `gorm:"column:title"`
	PriceEUR   *float64  `gorm:"column:price_eur"`
	AreaM2     *float64  `gorm:"column:area_m2"`
	EURM2      *float64  `gorm:"column:eur_m2"`
	Snippet    string    `gorm:"column:snippet"`
	Typology   string    `gorm:"column:typology;size:8;index:idx_listings_query"`
	SearchType string    `gorm:"column:search_type;size:8;index:idx_listings_query"`
	FirstSeen  time.Time `gorm:"column:first_seen"`
	LastSeen   time.Time `gorm:"column:last_seen;index"`
}

func (ListingRow) TableName() string { return "listings" }

// PriceHistoryRow records one observed price of a listing. Rows are append
// only; a new one appears only when the observed price changes.
type PriceHistoryRow struct {
	ID       uint      `gorm:"column:id;primaryKey"`
	URL      string    `gorm:"column:url;size:512;index"`
	PriceEUR float64   `gorm:"column:price_eur"`
	EURM2    *float64  `gorm:"column:eur_m2"`
	SeenAt   time.Time `gorm:"column:seen_at"`
}

func (PriceHistoryRow) TableName() string { return "price_history" }

// DailyStatRow is one daily aggregate, keyed by
// (date, district, search_type, typology). Recomputes overwrite in place.
type DailyStatRow struct {
	Date        string  `gorm:"column:date;primaryKey;size:10"`
	District    string  `gorm:"column:district;primaryKey;size:64"`
	SearchType  string  `gorm:"column:search_type;primaryKey;size:8"`
	Typology    string  `gorm:"column:typology;primaryKey;size:8"`
	AvgEURM2    float64 `gorm:"column:avg_eur_m2"`
	AvgPriceEUR float64 `gorm:"column:avg_price_eur"`
	Count       int     `gorm:"column:count"`
}

func (DailyStatRow) TableName() string { return "daily_stats" }
