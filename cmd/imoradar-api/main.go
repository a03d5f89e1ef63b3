package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"imoradar/internal/aggregator"
	"imoradar/internal/bootstrap"
	"imoradar/internal/config"
	httpserver "imoradar/internal/http-server"
	"imoradar/internal/logger"
	"imoradar/internal/marks"
	"imoradar/internal/store"
)

func main() {
	var (
		configPath = flag.String("config", "./config/config.yaml", "path to config.yaml")
		host       = flag.String("host", "", "override host")
		port       = flag.Int("port", 0, "override port")
	)
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("load config failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Level:     cfg.Log.Level,
		Format:    cfg.Log.Format,
		AddSource: cfg.Log.AddSource,
		Env:       cfg.Env,
	})
	slog.SetDefault(log)

	if *host != "" {
		cfg.Server.Host = *host
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	fetcher, err := bootstrap.BuildFetcher(cfg, log)
	if err != nil {
		log.Error("build fetcher failed", "err", err)
		os.Exit(1)
	}
	registry := bootstrap.BuildRegistry(fetcher)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	db, err := store.Open(ctx, cfg.Database.URL, log)
	cancel()
	if err != nil {
		log.Error("open store failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	markRepo, err := marks.Open(cfg.Marks.Path, log)
	if err != nil {
		log.Error("open marks failed", "err", err)
		os.Exit(1)
	}

	svc := aggregator.New(aggregator.Options{
		Registry:        registry,
		Store:           db,
		Cache:           aggregator.NewCache(cfg.Cache.Capacity, time.Duration(cfg.Cache.TTLSeconds)*time.Second),
		Logger:          log,
		DefaultDistrict: cfg.Scrape.DefaultDistrict,
		DefaultPages:    cfg.Scrape.Pages,
	})

	api := httpserver.New(log)
	api.RegisterRoutes(httpserver.Deps{
		Listings:        svc,
		Stats:           db,
		Marks:           markRepo,
		DefaultDistrict: cfg.Scrape.DefaultDistrict,
		ScrapeTimeout:   90 * time.Second,
		ReadTimeout:     15 * time.Second,
	})

	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))

	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		log.Info("api started", "addr", addr, "sources", registry.Names())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case sig := <-stop:
		log.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
			_ = srv.Close()
		}
		svc.Wait()
		log.Info("server stopped gracefully")

	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			log.Info("server closed")
			return
		}
		log.Error("server stopped with error", "err", err)
		os.Exit(1)
	}
}
