package transport

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"time"
)

type Transport interface {
	Do(req *http.Request) (*http.Response, error)
}

type Options struct {
	HTTPClient  *http.Client
	Concurrency int // cap on in-flight requests across all adapters
}

func Build(opts Options) (Transport, error) {
	if opts.HTTPClient == nil {
		return nil, fmt.Errorf("HTTPClient is nil")
	}
	if opts.Concurrency < 0 {
		return nil, fmt.Errorf("Concurrency must be >= 0")
	}

	var t Transport = &HTTPTransport{Client: opts.HTTPClient}

	if opts.Concurrency > 0 {
		t = &ConcurrencyTransport{
			Base: t,
			sem:  newSemaphore(opts.Concurrency),
		}
	}

	return t, nil
}

// HTTP transport

type HTTPTransport struct {
	Client *http.Client
}

func (h *HTTPTransport) Do(req *http.Request) (*http.Response, error) {
	return h.Client.Do(req)
}

// semaphore transport

type semaphore struct {
	ch chan struct{}
}

func newSemaphore(n int) *semaphore {
	if n <= 0 {
		n = 1
	}
	return &semaphore{ch: make(chan struct{}, n)}
}

func (s *semaphore) acquire(ctx context.Context) error {
	select {
	case s.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *semaphore) release() {
	<-s.ch
}

type ConcurrencyTransport struct {
	Base Transport
	sem  *semaphore
}

func (t *ConcurrencyTransport) Do(req *http.Request) (*http.Response, error) {
	if err := t.sem.acquire(req.Context()); err != nil {
		return nil, err
	}
	defer t.sem.release()

	return t.Base.Do(req)
}

// SleepCtx sleeps for d unless ctx is cancelled first.
func SleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Jitter returns a random duration in [min, max); pacing sleeps spread out
// this way avoid synchronized retry storms against one site.
func Jitter(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)))
}
