package history

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"imoradar/internal/domain/models"
	"imoradar/internal/extract"
	"imoradar/internal/http-server/query"
	"imoradar/internal/http-server/respond"
	"imoradar/internal/store"
)

// StatsReader is the slice of the store the history handlers depend on.
type StatsReader interface {
	HistoricalStats(ctx context.Context, district string, st models.SearchType, typology string, days int) ([]models.DailyStat, error)
	PriceHistory(ctx context.Context, url string) (*models.Listing, []store.PricePoint, error)
	Yields(ctx context.Context) ([]models.YieldStat, error)
}

type Options struct {
	Log             *slog.Logger
	Stats           StatsReader
	DefaultDistrict string
	Timeout         time.Duration
}

const defaultDays = 90

func normalize(opts Options) Options {
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.DefaultDistrict == "" {
		opts.DefaultDistrict = "Leiria"
	}
	return opts
}

// NewStatsHandler serves the daily aggregate series of one district query.
func NewStatsHandler(opts Options) http.HandlerFunc {
	opts = normalize(opts)

	type result struct {
		District   string             `json:"district"`
		SearchType string             `json:"search_type"`
		Typology   string             `json:"typology"`
		Days       int                `json:"days"`
		Stats      []models.DailyStat `json:"stats"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			respond.WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "GET only")
			return
		}
		if opts.Stats == nil {
			opts.Log.Error("history handler misconfigured: StatsReader is nil")
			respond.WriteInternalError(w)
			return
		}

		district := opts.DefaultDistrict
		if v, ok := query.Str(r, "district"); ok {
			district = v
		}
		st := models.SearchRent
		if v, ok := query.Str(r, "search_type"); ok {
			st = models.ParseSearchType(v)
		}
		typology := ""
		if v, ok := query.Str(r, "typology"); ok {
			typology = extract.NormalizeTypology(v)
		}
		days := defaultDays
		if v, present, err := query.Int(r, "days"); err != nil {
			respond.WriteError(w, http.StatusBadRequest, "bad_request", err.Error())
			return
		} else if present {
			days = v
		}

		ctx, cancel := context.WithTimeout(r.Context(), opts.Timeout)
		defer cancel()

		stats, err := opts.Stats.HistoricalStats(ctx, district, st, typology, days)
		if err != nil {
			opts.Log.Error("HistoricalStats failed", "district", district, "err", err)
			respond.WriteInternalError(w)
			return
		}
		if stats == nil {
			stats = []models.DailyStat{}
		}
		respond.WriteJSON(w, http.StatusOK, result{
			District:   district,
			SearchType: string(st),
			Typology:   typology,
			Days:       days,
			Stats:      stats,
		})
	}
}

// NewPricesHandler serves the recorded price timeline of one listing URL.
func NewPricesHandler(opts Options) http.HandlerFunc {
	opts = normalize(opts)

	type result struct {
		URL     string             `json:"url"`
		Listing *models.Listing    `json:"listing"`
		Prices  []store.PricePoint `json:"prices"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			respond.WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "GET only")
			return
		}
		if opts.Stats == nil {
			opts.Log.Error("prices handler misconfigured: StatsReader is nil")
			respond.WriteInternalError(w)
			return
		}
		url, ok := query.Str(r, "url")
		if !ok {
			respond.WriteError(w, http.StatusBadRequest, "bad_request", "url is required")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), opts.Timeout)
		defer cancel()

		listing, prices, err := opts.Stats.PriceHistory(ctx, url)
		if err != nil {
			opts.Log.Error("PriceHistory failed", "url", url, "err", err)
			respond.WriteInternalError(w)
			return
		}
		if prices == nil {
			prices = []store.PricePoint{}
		}
		respond.WriteJSON(w, http.StatusOK, result{URL: url, Listing: listing, Prices: prices})
	}
}

// NewYieldsHandler serves the gross rental yield per district.
func NewYieldsHandler(opts Options) http.HandlerFunc {
	opts = normalize(opts)

	type result struct {
		Yields []models.YieldStat `json:"yields"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			respond.WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "GET only")
			return
		}
		if opts.Stats == nil {
			opts.Log.Error("yields handler misconfigured: StatsReader is nil")
			respond.WriteInternalError(w)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), opts.Timeout)
		defer cancel()

		yields, err := opts.Stats.Yields(ctx)
		if err != nil {
			opts.Log.Error("Yields failed", "err", err)
			respond.WriteInternalError(w)
			return
		}
		if yields == nil {
			yields = []models.YieldStat{}
		}
		respond.WriteJSON(w, http.StatusOK, result{Yields: yields})
	}
}
