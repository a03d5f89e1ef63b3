package listings

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestExcludeTemporaryDefaultsOn(t *testing.T) {
	g := &fakeGetter{}
	h := NewGetHandler(Options{Getter: g})

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/api/listings", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !g.req.Filters.ExcludeTemporary {
		t.Fatal("exclude_temporary must default to true")
	}

	rec = httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/api/listings?exclude_temporary=0", nil))
	if g.req.Filters.ExcludeTemporary {
		t.Fatal("exclude_temporary=0 must opt out")
	}
}
