package listings

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"imoradar/internal/aggregator"
	"imoradar/internal/domain/models"
	"imoradar/internal/http-server/query"
	"imoradar/internal/http-server/respond"
)

// Getter is the slice of the aggregator the handler depends on.
type Getter interface {
	GetListings(ctx context.Context, req aggregator.Request) (aggregator.Result, error)
}

type Options struct {
	Log     *slog.Logger
	Getter  Getter
	Timeout time.Duration
}

type Result struct {
	FetchedAt   string           `json:"fetched_at"`
	District    string           `json:"district"`
	SearchType  string           `json:"search_type"`
	Typology    string           `json:"typology"`
	Count       int              `json:"count"`
	BySource    map[string]int   `json:"by_source"`
	MedianEURM2 *float64         `json:"median_eur_m2"`
	Listings    []models.Listing `json:"listings"`
}

func NewGetHandler(opts Options) http.HandlerFunc {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 90 * time.Second
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			respond.WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "GET only")
			return
		}
		if opts.Getter == nil {
			log.Error("listings handler misconfigured: Getter is nil")
			respond.WriteInternalError(w)
			return
		}

		req, err := decode(r)
		if err != nil {
			respond.WriteError(w, http.StatusBadRequest, "bad_request", err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), opts.Timeout)
		defer cancel()

		res, err := opts.Getter.GetListings(ctx, req)
		if err != nil {
			if errors.Is(err, aggregator.ErrNoSources) {
				respond.WriteError(w, http.StatusBadRequest, "bad_request", err.Error())
				return
			}
			log.Error("GetListings failed", "district", req.District, "err", err)
			respond.WriteInternalError(w)
			return
		}
		if res.Listings == nil {
			res.Listings = []models.Listing{}
		}

		respond.WriteJSON(w, http.StatusOK, Result{
			FetchedAt:   time.Now().UTC().Format(time.RFC3339),
			District:    res.District,
			SearchType:  string(res.SearchType),
			Typology:    res.Typology,
			Count:       res.Stats.Count,
			BySource:    res.Stats.BySource,
			MedianEURM2: res.Stats.MedianEURM2,
			Listings:    res.Listings,
		})
	}
}

func decode(r *http.Request) (aggregator.Request, error) {
	var req aggregator.Request

	req.District, _ = query.Str(r, "district")
	req.Typology, _ = query.Str(r, "typology")
	req.Sources = query.CSV(r, "sources")
	if v, ok := query.Str(r, "search_type"); ok {
		req.SearchType = models.ParseSearchType(v)
	}
	if v, ok := query.Str(r, "sort"); ok {
		req.Sort = models.ParseSortKey(v)
	}

	if v, present, err := query.Int(r, "pages"); err != nil {
		return req, err
	} else if present {
		req.Pages = v
	}
	if v, present, err := query.Int(r, "limit"); err != nil {
		return req, err
	} else if present {
		req.Limit = v
	}

	// Short-stay ads are filtered unless the caller opts back in.
	f := models.Filters{ExcludeTemporary: true}
	if v, present, err := query.Float(r, "min_price"); err != nil {
		return req, err
	} else if present {
		f.MinPrice = &v
	}
	if v, present, err := query.Float(r, "max_price"); err != nil {
		return req, err
	} else if present {
		f.MaxPrice = &v
	}
	if v, present, err := query.Float(r, "min_area"); err != nil {
		return req, err
	} else if present {
		f.MinArea = &v
	}
	if v, present, err := query.Float(r, "max_area"); err != nil {
		return req, err
	} else if present {
		f.MaxArea = &v
	}
	if v, present, err := query.Bool(r, "only_with_eurm2"); err != nil {
		return req, err
	} else if present {
		f.OnlyWithEURM2 = v
	}
	if v, present, err := query.Bool(r, "exclude_temporary"); err != nil {
		return req, err
	} else if present {
		f.ExcludeTemporary = v
	}
	req.Filters = f
	return req, nil
}
