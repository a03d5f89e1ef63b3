// Package store persists listings, their price history and the daily
// aggregates on PostgreSQL.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"imoradar/internal/domain/models"
	"imoradar/internal/extract"
)

const (
	openAttempts = 5
	yieldWindow  = 30 // days of daily stats feeding the yield view
)

type Store struct {
	db  *gorm.DB
	log *slog.Logger
}

// Open connects, pings with retries and migrates the schema. The database is
// often still booting when the service starts, hence the retry loop.
func Open(ctx context.Context, url string, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}
	var (
		db  *gorm.DB
		err error
	)
	for attempt := 1; attempt <= openAttempts; attempt++ {
		db, err = connect(ctx, url)
		if err == nil {
			break
		}
		log.Warn("database not ready", "attempt", attempt, "err", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * time.Second):
		}
	}
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	if err := db.WithContext(ctx).AutoMigrate(&ListingRow{}, &PriceHistoryRow{}, &DailyStatRow{}); err != nil {
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	return &Store{db: db, log: log}, nil
}

func connect(ctx context.Context, url string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(url), &gorm.Config{
		Logger: gormlogger.Discard,
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, err
	}
	return db, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Upsert writes one batch of scraped listings inside a single transaction.
// Revisits refresh last_seen and mutable fields; a price change additionally
// appends a history row. A concrete typology on file is never replaced by a
// wildcard.
func (s *Store) Upsert(ctx context.Context, listings []models.Listing) error {
	if len(listings) == 0 {
		return nil
	}
	now := time.Now().UTC()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, l := range listings {
			if l.URL == "" {
				continue
			}
			if err := upsertOne(tx, l, now); err != nil {
				return fmt.Errorf("store: upsert %s: %w", l.URL, err)
			}
		}
		return nil
	})
}

func upsertOne(tx *gorm.DB, l models.Listing, now time.Time) error {
	var existing ListingRow
	err := tx.Where("url = ?", l.URL).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		row := rowFromListing(l)
		row.FirstSeen = now
		row.LastSeen = now
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		if l.PriceEUR != nil {
			return appendHistory(tx, l, now)
		}
		return nil
	}
	if err != nil {
		return err
	}

	priceChanged := l.PriceEUR != nil &&
		(existing.PriceEUR == nil || *existing.PriceEUR != *l.PriceEUR)

	updated := rowFromListing(l)
	updated.FirstSeen = existing.FirstSeen
	updated.LastSeen = now
	if keepTypology(existing.Typology, updated.Typology) {
		updated.Typology = existing.Typology
	}
	if err := tx.Model(&ListingRow{}).Where("url = ?", l.URL).
		Select("*").Omit("url").Updates(&updated).Error; err != nil {
		return err
	}
	if priceChanged {
		return appendHistory(tx, l, now)
	}
	return nil
}

// keepTypology reports whether the stored typology should survive the update.
func keepTypology(stored, incoming string) bool {
	if stored == "" || stored == "T*" {
		return false
	}
	return incoming == "" || incoming == "T*"
}

func appendHistory(tx *gorm.DB, l models.Listing, now time.Time) error {
	return tx.Create(&PriceHistoryRow{
		URL:      l.URL,
		PriceEUR: *l.PriceEUR,
		EURM2:    l.EURM2,
		SeenAt:   now,
	}).Error
}

// QueryListings returns stored listings for one query, newest sightings
// first. A wildcard or empty typology matches every row; limit == 0 means no
// limit.
func (s *Store) QueryListings(ctx context.Context, district string, st models.SearchType, typology string, limit int) ([]models.Listing, error) {
	q := s.db.WithContext(ctx).Model(&ListingRow{}).
		Where("district = ? AND search_type = ?", district, string(st))
	if typology != "" && typology != "T*" {
		q = q.Where("typology IN ?", []string{typology, "T*"})
	}
	q = q.Order("last_seen DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []ListingRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("store: query listings: %w", err)
	}
	out := make([]models.Listing, 0, len(rows))
	for _, r := range rows {
		out = append(out, listingFromRow(r))
	}
	return out, nil
}

// PricePoint is one observation on a listing's price timeline.
type PricePoint struct {
	PriceEUR float64   `json:"price_eur"`
	EURM2    *float64  `json:"eur_m2"`
	SeenAt   time.Time `json:"seen_at"`
}

// PriceHistory returns the listing on file, if any, and its recorded price
// points oldest first.
func (s *Store) PriceHistory(ctx context.Context, url string) (*models.Listing, []PricePoint, error) {
	var rows []PriceHistoryRow
	err := s.db.WithContext(ctx).
		Where("url = ?", url).Order("seen_at ASC").Find(&rows).Error
	if err != nil {
		return nil, nil, fmt.Errorf("store: price history: %w", err)
	}
	points := make([]PricePoint, 0, len(rows))
	for _, r := range rows {
		points = append(points, PricePoint{PriceEUR: r.PriceEUR, EURM2: r.EURM2, SeenAt: r.SeenAt})
	}

	var listing *models.Listing
	var row ListingRow
	err = s.db.WithContext(ctx).Where("url = ?", url).First(&row).Error
	switch {
	case err == nil:
		l := listingFromRow(row)
		listing = &l
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil, fmt.Errorf("store: price history: %w", err)
	}
	return listing, points, nil
}

func rowFromListing(l models.Listing) ListingRow {
	return ListingRow{
		URL:        l.URL,
		Source:     l.Source,
		District:   l.District,
		Title:      l.Title,
		PriceEUR:   l.PriceEUR,
		AreaM2:     l.AreaM2,
		EURM2:      l.EURM2,
		Snippet:    l.Snippet,
		Typology:   l.Typology,
		SearchType: string(l.SearchType),
	}
}

func listingFromRow(r ListingRow) models.Listing {
	return models.Listing{
		URL:        r.URL,
		Source:     r.Source,
		District:   r.District,
		Title:      r.Title,
		PriceEUR:   r.PriceEUR,
		AreaM2:     r.AreaM2,
		EURM2:      r.EURM2,
		Snippet:    r.Snippet,
		Typology:   r.Typology,
		SearchType: models.SearchType(r.SearchType),
		FirstSeen:  r.FirstSeen,
		LastSeen:   r.LastSeen,
	}
}

// RecomputeDailyStats rebuilds today's aggregates from listings seen today
// whose price per area is known. Re-running it on the same day overwrites, so
// repeated scrapes stay idempotent.
func (s *Store) RecomputeDailyStats(ctx context.Context) error {
	now := time.Now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	date := dayStart.Format("2006-01-02")

	var groups []DailyStatRow
	err := s.db.WithContext(ctx).Model(&ListingRow{}).
		Select("district, search_type, typology, AVG(eur_m2) AS avg_eur_m2, AVG(price_eur) AS avg_price_eur, COUNT(*) AS count").
		Where("eur_m2 IS NOT NULL AND last_seen >= ?", dayStart).
		Group("district, search_type, typology").
		Scan(&groups).Error
	if err != nil {
		return fmt.Errorf("store: aggregate daily stats: %w", err)
	}
	if len(groups) == 0 {
		return nil
	}
	upsert := clause.OnConflict{
		Columns: []clause.Column{
			{Name: "date"}, {Name: "district"}, {Name: "search_type"}, {Name: "typology"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"avg_eur_m2", "avg_price_eur", "count"}),
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range groups {
			g := &groups[i]
			g.Date = date
			g.AvgEURM2 = extract.Round2(g.AvgEURM2)
			g.AvgPriceEUR = extract.Round2(g.AvgPriceEUR)
			if err := tx.Clauses(upsert).Create(g).Error; err != nil {
				return fmt.Errorf("store: save daily stat: %w", err)
			}
		}
		return nil
	})
}

// HistoricalStats returns up to days of daily aggregates for one query,
// oldest first. days <= 0 means the full recorded range.
func (s *Store) HistoricalStats(ctx context.Context, district string, st models.SearchType, typology string, days int) ([]models.DailyStat, error) {
	q := s.db.WithContext(ctx).Model(&DailyStatRow{}).
		Where("district = ? AND search_type = ?", district, string(st))
	if typology != "" && typology != "T*" {
		q = q.Where("typology = ?", typology)
	}
	if days > 0 {
		cutoff := time.Now().UTC().AddDate(0, 0, -days).Format("2006-01-02")
		q = q.Where("date >= ?", cutoff)
	}
	var rows []DailyStatRow
	if err := q.Order("date ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("store: historical stats: %w", err)
	}
	out := make([]models.DailyStat, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.DailyStat{
			Date:        r.Date,
			District:    r.District,
			SearchType:  r.SearchType,
			Typology:    r.Typology,
			AvgEURM2:    r.AvgEURM2,
			AvgPriceEUR: r.AvgPriceEUR,
			Count:       r.Count,
		})
	}
	return out, nil
}

// Yields derives a gross rental yield per district from the recent daily
// aggregates: average rent €/m² over the window, annualized, against the
// average buy €/m².
func (s *Store) Yields(ctx context.Context) ([]models.YieldStat, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -yieldWindow).Format("2006-01-02")
	var rows []DailyStatRow
	err := s.db.WithContext(ctx).Model(&DailyStatRow{}).
		Where("date >= ?", cutoff).Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("store: yields: %w", err)
	}

	type acc struct {
		sum float64
		n   int
	}
	rent := make(map[string]*acc)
	buy := make(map[string]*acc)
	for _, r := range rows {
		m := rent
		if r.SearchType == string(models.SearchBuy) {
			m = buy
		}
		a := m[r.District]
		if a == nil {
			a = &acc{}
			m[r.District] = a
		}
		a.sum += r.AvgEURM2
		a.n++
	}

	var districts []string
	for d := range rent {
		if _, ok := buy[d]; ok {
			districts = append(districts, d)
		}
	}
	sort.Strings(districts)

	var out []models.YieldStat
	for _, district := range districts {
		r := rent[district].sum / float64(rent[district].n)
		b := buy[district].sum / float64(buy[district].n)
		if r <= 0 || b <= 0 {
			continue
		}
		out = append(out, models.YieldStat{
			District:   district,
			RentEURM2:  extract.Round2(r),
			BuyEURM2:   extract.Round2(b),
			GrossYield: extract.Round2(r * 12 / b * 100),
		})
	}
	return out, nil
}
