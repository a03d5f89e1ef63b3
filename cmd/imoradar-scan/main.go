// imoradar-scan runs one scrape pass over the configured sources and writes
// the results to the store. Meant for cron.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"imoradar/internal/aggregator"
	"imoradar/internal/bootstrap"
	"imoradar/internal/config"
	"imoradar/internal/domain/models"
	"imoradar/internal/logger"
	"imoradar/internal/store"
)

func main() {
	var (
		configPath = flag.String("config", "./config/config.yaml", "path to config.yaml")
		district   = flag.String("district", "", "district to scan (defaults to cli.district)")
		typology   = flag.String("typology", "", "typology, e.g. T2 or T* (defaults to cli.typology)")
		searchType = flag.String("search-type", "", "rent or buy (defaults to cli.search_type)")
		pages      = flag.Int("pages", 0, "pages per source (defaults to scrape.pages)")
		sources    = flag.String("sources", "", "comma-separated source ids, empty means all")
		timeout    = flag.Duration("timeout", 5*time.Minute, "overall scan timeout")
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

	if *district == "" {
		*district = cfg.CLI.District
	}
	if *typology == "" {
		*typology = cfg.CLI.Typology
	}
	if *searchType == "" {
		*searchType = cfg.CLI.SearchType
	}

	fetcher, err := bootstrap.BuildFetcher(cfg, log)
	if err != nil {
		log.Error("build fetcher failed", "err", err)
		os.Exit(1)
	}
	registry := bootstrap.BuildRegistry(fetcher)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	db, err := store.Open(ctx, cfg.Database.URL, log)
	if err != nil {
		log.Error("open store failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	svc := aggregator.New(aggregator.Options{
		Registry:        registry,
		Store:           db,
		Logger:          log,
		DefaultDistrict: cfg.Scrape.DefaultDistrict,
		DefaultPages:    cfg.Scrape.Pages,
	})

	var srcList []string
	if *sources != "" {
		for _, s := range strings.Split(*sources, ",") {
			if s = strings.TrimSpace(s); s != "" {
				srcList = append(srcList, s)
			}
		}
	}

	start := time.Now()
	n, err := svc.Scan(ctx, aggregator.Request{
		District:   *district,
		Typology:   *typology,
		SearchType: models.ParseSearchType(*searchType),
		Pages:      *pages,
		Sources:    srcList,
	})
	if err != nil {
		log.Error("scan failed", "district", *district, "err", err)
		os.Exit(1)
	}
	svc.Wait()

	log.Info("scan done",
		"district", *district,
		"typology", *typology,
		"search_type", *searchType,
		"listings", n,
		"duration_s", int(time.Since(start).Seconds()),
	)
}
