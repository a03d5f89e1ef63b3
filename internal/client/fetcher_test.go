package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"imoradar/internal/client/identity"
	"imoradar/internal/client/transport"
)

func newTestFetcher(t *testing.T) *Fetcher {
	t.Helper()
	tr, err := transport.Build(transport.Options{HTTPClient: &http.Client{Timeout: 5 * time.Second}})
	if err != nil {
		t.Fatalf("build transport: %v", err)
	}
	return NewFetcher(tr, identity.NewProvider(nil), FetcherOptions{
		PauseMin: time.Millisecond,
		PauseMax: 2 * time.Millisecond,
	})
}

func TestFetchRetriesSoftBlockOnceWithRotatedIdentity(t *testing.T) {
	var (
		mu       sync.Mutex
		attempts int
		agents   []string
		referers []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		attempts++
		n := attempts
		agents = append(agents, r.Header.Get("User-Agent"))
		referers = append(referers, r.Header.Get("Referer"))
		mu.Unlock()

		if n == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	f := newTestFetcher(t)
	body, err := f.Fetch(context.Background(), srv.URL+"/page")
	if err != nil {
		t.Fatalf("Fetch after 429-then-200: %v", err)
	}
	if body != "<html>ok</html>" {
		t.Errorf("body = %q", body)
	}
	if attempts != 2 {
		t.Fatalf("attempts = %d, want exactly one retry", attempts)
	}
	if agents[0] == agents[1] {
		t.Error("retry did not rotate the identity")
	}
	if referers[0] != srv.URL+"/" {
		t.Errorf("first referer = %q, want target origin", referers[0])
	}
	if referers[1] != searchReferer {
		t.Errorf("retry referer = %q, want search engine", referers[1])
	}
}

func TestFetchSurfacesLastErrorAfterBudget(t *testing.T) {
	var attempts int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	f := newTestFetcher(t)
	_, err := f.Fetch(context.Background(), srv.URL)
	if err == nil {
		t.Fatal("expected error after exhausted retries")
	}
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("error type = %T, want *FetchError", err)
	}
	if fe.Status != http.StatusForbidden {
		t.Errorf("FetchError.Status = %d, want 403", fe.Status)
	}
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2", attempts)
	}
}

func TestFetchSucceedsFirstTry(t *testing.T) {
	var attempts int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		_, _ = w.Write([]byte("page"))
	}))
	defer srv.Close()

	f := newTestFetcher(t)
	body, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if body != "page" || attempts != 1 {
		t.Errorf("body=%q attempts=%d", body, attempts)
	}
}

func TestFetchHonorsContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := newTestFetcher(t)
	if _, err := f.Fetch(ctx, srv.URL); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
