package store

import (
	"context"
	"os"
	"testing"

	"imoradar/internal/domain/models"
)

func fl(v float64) *float64 { return &v }

func TestKeepTypology(t *testing.T) {
	tests := []struct {
		stored, incoming string
		want             bool
	}{
		{"T2", "T*", true},
		{"T2", "", true},
		{"T2", "T3", false},
		{"T*", "T2", false},
		{"T*", "T*", false},
		{"", "T2", false},
	}
	for _, tt := range tests {
		if got := keepTypology(tt.stored, tt.incoming); got != tt.want {
			t.Errorf("keepTypology(%q, %q) = %v, want %v", tt.stored, tt.incoming, got, tt.want)
		}
	}
}

func TestListingRowRoundTrip(t *testing.T) {
	in := models.Listing{
		URL:        "https://olx.pt/ad/1",
		Source:     "olx",
		District:   "Leiria",
		Title:      "Apartamento T2",
		PriceEUR:   fl(725),
		AreaM2:     fl(68),
		EURM2:      fl(10.66),
		Snippet:    "Apartamento T2 no centro",
		Typology:   "T2",
		SearchType: models.SearchRent,
	}
	out := listingFromRow(rowFromListing(in))
	if out.URL != in.URL || out.Typology != in.Typology || out.SearchType != in.SearchType {
		t.Fatalf("round trip changed identity fields: %+v", out)
	}
	if *out.PriceEUR != 725 || *out.AreaM2 != 68 || *out.EURM2 != 10.66 {
		t.Fatalf("round trip changed numeric fields: %+v", out)
	}
}

// openTestStore connects to the database named by TEST_DATABASE_URL and
// skips when it is not set.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	s, err := Open(context.Background(), url, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		s.db.Exec("DELETE FROM price_history")
		s.db.Exec("DELETE FROM daily_stats")
		s.db.Exec("DELETE FROM listings")
		s.Close()
	})
	return s
}

func TestUpsertLifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	l := models.Listing{
		URL:        "https://olx.pt/ad/lifecycle",
		Source:     "olx",
		District:   "Leiria",
		Title:      "Apartamento T2",
		PriceEUR:   fl(700),
		AreaM2:     fl(70),
		EURM2:      fl(10),
		Typology:   "T2",
		SearchType: models.SearchRent,
	}
	if err := s.Upsert(ctx, []models.Listing{l}); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	_, points, err := s.PriceHistory(ctx, l.URL)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(points) != 1 || points[0].PriceEUR != 700 {
		t.Fatalf("history after insert = %+v, want one 700 point", points)
	}

	// Same price again: no new history row, wildcard must not clobber T2.
	l.Typology = "T*"
	if err := s.Upsert(ctx, []models.Listing{l}); err != nil {
		t.Fatalf("revisit upsert: %v", err)
	}
	stored, points, err := s.PriceHistory(ctx, l.URL)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(points) != 1 {
		t.Fatalf("unchanged price grew history to %d rows", len(points))
	}
	if stored == nil || stored.Typology != "T2" {
		t.Fatalf("wildcard overwrote concrete typology: %+v", stored)
	}

	// Price drop: exactly one more history row.
	l.PriceEUR = fl(650)
	if err := s.Upsert(ctx, []models.Listing{l}); err != nil {
		t.Fatalf("price change upsert: %v", err)
	}
	_, points, err = s.PriceHistory(ctx, l.URL)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(points) != 2 || points[1].PriceEUR != 650 {
		t.Fatalf("history after price change = %+v", points)
	}
}

func TestQueryListingsFiltersAndStats(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	batch := []models.Listing{
		{URL: "https://x/1", Source: "olx", District: "Leiria", Typology: "T2", SearchType: models.SearchRent, PriceEUR: fl(700), EURM2: fl(10)},
		{URL: "https://x/2", Source: "olx", District: "Leiria", Typology: "T3", SearchType: models.SearchRent, PriceEUR: fl(900), EURM2: fl(12)},
		{URL: "https://x/3", Source: "olx", District: "Leiria", Typology: "T*", SearchType: models.SearchRent, PriceEUR: fl(800), EURM2: fl(11)},
		{URL: "https://x/4", Source: "olx", District: "Porto", Typology: "T2", SearchType: models.SearchRent, PriceEUR: fl(950), EURM2: fl(14)},
		{URL: "https://x/5", Source: "olx", District: "Leiria", Typology: "T2", SearchType: models.SearchBuy, PriceEUR: fl(120000), EURM2: fl(1500)},
	}
	if err := s.Upsert(ctx, batch); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := s.QueryListings(ctx, "Leiria", models.SearchRent, "T2", 0)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	// T2 plus the wildcard row.
	if len(got) != 2 {
		t.Fatalf("got %d rows, want 2", len(got))
	}

	got, err = s.QueryListings(ctx, "Leiria", models.SearchRent, "T*", 0)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("wildcard got %d rows, want 3", len(got))
	}

	if err := s.RecomputeDailyStats(ctx); err != nil {
		t.Fatalf("recompute: %v", err)
	}
	if err := s.RecomputeDailyStats(ctx); err != nil {
		t.Fatalf("second recompute: %v", err)
	}
	stats, err := s.HistoricalStats(ctx, "Leiria", models.SearchRent, "T2", 7)
	if err != nil {
		t.Fatalf("historical: %v", err)
	}
	if len(stats) != 1 {
		t.Fatalf("got %d stat rows, want 1 despite double recompute", len(stats))
	}
	if stats[0].Count != 1 || stats[0].AvgEURM2 != 10 {
		t.Fatalf("stat = %+v", stats[0])
	}

	yields, err := s.Yields(ctx)
	if err != nil {
		t.Fatalf("yields: %v", err)
	}
	if len(yields) != 1 || yields[0].District != "Leiria" {
		t.Fatalf("yields = %+v", yields)
	}
	// avg rent 11 €/m², buy 1500 €/m²: 11·12/1500 = 8.8%.
	if yields[0].GrossYield != 8.8 {
		t.Fatalf("gross yield = %v, want 8.8", yields[0].GrossYield)
	}
}
