// Package bootstrap assembles the fetch stack and the adapter registry from
// configuration. Both binaries share this wiring.
package bootstrap

import (
	"log/slog"
	"time"

	"imoradar/internal/client"
	"imoradar/internal/client/identity"
	"imoradar/internal/config"
	"imoradar/internal/scrape"
	"imoradar/internal/scrape/sites"
)

func BuildFetcher(cfg *config.Config, log *slog.Logger) (*client.Fetcher, error) {
	log.Info("fetch profile",
		"env", cfg.Env,
		"timeout_s", cfg.HTTP.TimeoutSeconds,
		"concurrency", cfg.HTTP.Concurrency,
		"proxy", cfg.HTTP.ProxyURL != "",
	)

	return client.Build(client.Options{
		Timeout:     time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second,
		Concurrency: cfg.HTTP.Concurrency,
		ProxyURL:    cfg.HTTP.ProxyURL,
		PauseMin:    time.Duration(cfg.Scrape.PauseMinMs) * time.Millisecond,
		PauseMax:    time.Duration(cfg.Scrape.PauseMaxMs) * time.Millisecond,
		Profiles:    identity.Defaults(),
		Logger:      log,
	})
}

func BuildRegistry(f scrape.Fetcher) *scrape.Registry {
	return scrape.NewRegistry(sites.All(f)...)
}
