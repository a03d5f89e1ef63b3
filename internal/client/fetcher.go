// Package client is the resilient fetch layer. It is the only place in the
// codebase that performs network I/O: every adapter goes through
// Fetcher.Fetch, which imposes browser-like headers, an origin referer, and
// one jittered retry with a rotated identity on soft blocks.
package client

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"imoradar/internal/client/identity"
	"imoradar/internal/client/transport"
)

// FetchError is the terminal error of an exhausted fetch. Status is the last
// HTTP status observed, 0 when the failure never reached the HTTP layer.
type FetchError struct {
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: status=%d", e.URL, e.Status)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Soft-block statuses signal rate limiting or bot detection rather than a
// genuine absence of content; they are worth one rotated retry.
func isSoftBlock(status int) bool {
	return status == http.StatusTooManyRequests ||
		status == http.StatusForbidden ||
		status == http.StatusServiceUnavailable
}

const (
	// One retry exactly, as the sites tolerate; hammering a blocking site
	// only extends the block.
	maxAttempts = 2

	searchReferer = "https://www.google.com/"

	maxBodyBytes = 4 << 20
)

type FetcherOptions struct {
	PauseMin time.Duration
	PauseMax time.Duration
	Logger   *slog.Logger
}

type Fetcher struct {
	doer transport.Transport
	ids  *identity.Provider
	log  *slog.Logger

	pauseMin time.Duration
	pauseMax time.Duration
}

func NewFetcher(doer transport.Transport, ids *identity.Provider, opts FetcherOptions) *Fetcher {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	if ids == nil {
		ids = identity.NewProvider(nil)
	}
	pauseMin, pauseMax := opts.PauseMin, opts.PauseMax
	if pauseMin <= 0 {
		pauseMin = 600 * time.Millisecond
	}
	if pauseMax <= pauseMin {
		pauseMax = pauseMin + 700*time.Millisecond
	}
	return &Fetcher{doer: doer, ids: ids, log: log, pauseMin: pauseMin, pauseMax: pauseMax}
}

// Fetch retrieves rawURL and returns the page text. The first attempt uses
// the primary identity and a referer derived from the target's origin; after
// a soft block or transport error it sleeps a jittered interval and retries
// once with a rotated identity and a search-engine referer. The last observed
// error surfaces as a *FetchError once the retry budget is spent.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", &FetchError{URL: rawURL, Err: err}
	}
	originReferer := u.Scheme + "://" + u.Host + "/"

	var last *FetchError

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return "", &FetchError{URL: rawURL, Err: err}
		}

		if attempt == 0 {
			f.ids.Primary().Apply(req)
			req.Header.Set("Referer", originReferer)
		} else {
			f.ids.Next().Apply(req)
			req.Header.Set("Referer", searchReferer)
		}

		resp, err := f.doer.Do(req)
		if err != nil {
			last = &FetchError{URL: rawURL, Err: err}
			f.log.Warn("fetch transport error",
				"url", rawURL, "attempt", attempt+1, "err", err)
		} else {
			body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
			_ = resp.Body.Close()

			switch {
			case readErr != nil:
				last = &FetchError{URL: rawURL, Status: resp.StatusCode, Err: readErr}
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return string(body), nil
			default:
				last = &FetchError{URL: rawURL, Status: resp.StatusCode}
				if isSoftBlock(resp.StatusCode) {
					f.log.Warn("fetch soft-blocked",
						"url", rawURL, "attempt", attempt+1, "status", resp.StatusCode)
				} else {
					f.log.Warn("fetch bad status",
						"url", rawURL, "attempt", attempt+1, "status", resp.StatusCode)
				}
			}
		}

		if attempt < maxAttempts-1 {
			if err := f.PolitePause(ctx); err != nil {
				return "", err
			}
		}
	}

	return "", last
}

// PolitePause sleeps a jittered short interval; adapters call it between
// page fetches, the retry loop uses it as its backoff.
func (f *Fetcher) PolitePause(ctx context.Context) error {
	return transport.SleepCtx(ctx, transport.Jitter(f.pauseMin, f.pauseMax))
}
