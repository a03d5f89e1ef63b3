package marks

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	marksrepo "imoradar/internal/marks"
)

func newTestHandler(t *testing.T) http.HandlerFunc {
	t.Helper()
	repo, err := marksrepo.Open(filepath.Join(t.TempDir(), "marks.json"), nil)
	if err != nil {
		t.Fatalf("open repo: %v", err)
	}
	return NewHandler(Options{Repo: repo})
}

func TestMarkRoundTrip(t *testing.T) {
	h := newTestHandler(t)

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, "/api/marks",
		strings.NewReader(`{"url":"https://olx.pt/ad/1","kind":"favorite","note":"ver ao vivo"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("set: status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/api/marks", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "favorite") {
		t.Fatalf("list: status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodDelete, "/api/marks?url=https%3A%2F%2Folx.pt%2Fad%2F1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/api/marks", nil))
	if strings.Contains(rec.Body.String(), "olx.pt") {
		t.Fatalf("mark survived delete: %s", rec.Body.String())
	}
}

func TestMarkValidation(t *testing.T) {
	h := newTestHandler(t)

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, "/api/marks",
		strings.NewReader(`{"url":"https://olx.pt/ad/1","kind":"starred"}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown kind: status = %d, want 400", rec.Code)
	}

	rec = httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, "/api/marks", strings.NewReader("{")))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad json: status = %d, want 400", rec.Code)
	}

	rec = httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodDelete, "/api/marks", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing url: status = %d, want 400", rec.Code)
	}

	rec = httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPut, "/api/marks", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("put: status = %d, want 405", rec.Code)
	}
}
