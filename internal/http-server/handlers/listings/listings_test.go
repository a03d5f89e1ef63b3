package listings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"imoradar/internal/aggregator"
	"imoradar/internal/domain/models"
)

type fakeGetter struct {
	req aggregator.Request
	res aggregator.Result
	err error
}

func (f *fakeGetter) GetListings(_ context.Context, req aggregator.Request) (aggregator.Result, error) {
	f.req = req
	return f.res, f.err
}

func TestGetListingsDecodesQuery(t *testing.T) {
	price := 725.0
	g := &fakeGetter{res: aggregator.Result{
		District:   "Leiria",
		SearchType: models.SearchRent,
		Typology:   "T2",
		Listings:   []models.Listing{{URL: "https://olx.pt/ad/1", Source: "olx", PriceEUR: &price}},
		Stats:      models.Stats{Count: 1, BySource: map[string]int{"olx": 1}},
	}}
	h := NewGetHandler(Options{Getter: g})

	req := httptest.NewRequest(http.MethodGet,
		"/api/listings?district=Leiria&typology=t2&pages=3&limit=40&sources=olx,remax&sort=price_desc&min_price=500&only_with_eurm2=1&exclude_temporary=true", nil)
	rec := httptest.NewRecorder()
	h(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if g.req.District != "Leiria" || g.req.Typology != "t2" || g.req.Pages != 3 || g.req.Limit != 40 {
		t.Fatalf("decoded request = %+v", g.req)
	}
	if len(g.req.Sources) != 2 || g.req.Sort != models.SortPriceDesc {
		t.Fatalf("decoded request = %+v", g.req)
	}
	if g.req.Filters.MinPrice == nil || *g.req.Filters.MinPrice != 500 {
		t.Fatalf("filters = %+v", g.req.Filters)
	}
	if !g.req.Filters.OnlyWithEURM2 || !g.req.Filters.ExcludeTemporary {
		t.Fatalf("filters = %+v", g.req.Filters)
	}

	var body Result
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.District != "Leiria" || body.Typology != "T2" || body.Count != 1 {
		t.Fatalf("body = %+v", body)
	}
}

func TestGetListingsRejectsBadParams(t *testing.T) {
	h := NewGetHandler(Options{Getter: &fakeGetter{}})
	for _, target := range []string{
		"/api/listings?pages=two",
		"/api/listings?min_price=abc",
		"/api/listings?only_with_eurm2=maybe",
	} {
		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodGet, target, nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", target, rec.Code)
		}
	}
}

func TestGetListingsUnknownSources(t *testing.T) {
	g := &fakeGetter{err: aggregator.ErrNoSources}
	h := NewGetHandler(Options{Getter: g})
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/api/listings?sources=zillow", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestGetListingsMethodNotAllowed(t *testing.T) {
	h := NewGetHandler(Options{Getter: &fakeGetter{}})
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, "/api/listings", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
}
