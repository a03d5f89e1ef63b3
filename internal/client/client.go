package client

import (
	"log/slog"
	"time"

	"imoradar/internal/client/httpc"
	"imoradar/internal/client/identity"
	"imoradar/internal/client/transport"
)

type Options struct {
	Timeout     time.Duration
	Concurrency int
	ProxyURL    string

	PauseMin time.Duration
	PauseMax time.Duration

	Profiles []identity.Profile
	Logger   *slog.Logger
}

// Build assembles the full fetch stack: tuned http.Client, shared concurrency
// cap, identity rotation, soft-block retry.
func Build(opts Options) (*Fetcher, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 25 * time.Second
	}

	hc := httpc.NewWithProxy(opts.Timeout, opts.ProxyURL)

	t, err := transport.Build(transport.Options{
		HTTPClient:  hc,
		Concurrency: opts.Concurrency,
	})
	if err != nil {
		return nil, err
	}

	return NewFetcher(t, identity.NewProvider(opts.Profiles), FetcherOptions{
		PauseMin: opts.PauseMin,
		PauseMax: opts.PauseMax,
		Logger:   opts.Logger,
	}), nil
}
