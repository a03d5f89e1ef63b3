package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Root struct {
	Env   string `yaml:"env"`
	Local Config `yaml:"local"`
	Dev   Config `yaml:"dev"`
	Prod  Config `yaml:"prod"`
}

type Config struct {
	Env string `yaml:"-"`

	Log struct {
		Level     string `yaml:"level"`
		Format    string `yaml:"format"`
		AddSource bool   `yaml:"add_source"`
	} `yaml:"log"`

	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"server"`

	Scrape struct {
		DefaultDistrict string `yaml:"default_district"`
		Pages           int    `yaml:"pages"`
		PauseMinMs      int    `yaml:"pause_min_ms"`
		PauseMaxMs      int    `yaml:"pause_max_ms"`
	} `yaml:"scrape"`

	Cache struct {
		TTLSeconds int `yaml:"ttl_seconds"`
		Capacity   int `yaml:"capacity"`
	} `yaml:"cache"`

	HTTP struct {
		TimeoutSeconds int    `yaml:"timeout_seconds"`
		Concurrency    int    `yaml:"concurrency"`
		ProxyURL       string `yaml:"proxy_url"`
	} `yaml:"http"`

	Database struct {
		// URL is usually taken from the DATABASE_URL env var; the yaml value
		// is a fallback for local runs.
		URL string `yaml:"url"`
	} `yaml:"database"`

	Marks struct {
		Path string `yaml:"path"`
	} `yaml:"marks"`

	CLI struct {
		District   string `yaml:"district"`
		Typology   string `yaml:"typology"`
		SearchType string `yaml:"search_type"`
	} `yaml:"cli"`
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var root Root
	if err := yaml.Unmarshal(b, &root); err != nil {
		return nil, err
	}

	env := strings.TrimSpace(strings.ToLower(root.Env))
	if env == "" {
		env = "local"
	}

	var p Config
	switch env {
	case "local":
		p = root.Local
	case "dev":
		p = root.Dev
	case "prod":
		p = root.Prod
	default:
		return nil, fmt.Errorf("unknown env=%q (expected local|dev|prod)", env)
	}
	p.Env = env

	if v := os.Getenv("DATABASE_URL"); v != "" {
		p.Database.URL = v
	}

	applyDefaults(&p)
	return &p, nil
}

func applyDefaults(p *Config) {
	if p.Server.Host == "" {
		p.Server.Host = "0.0.0.0"
	}
	if p.Server.Port == 0 {
		p.Server.Port = 7892
	}

	if p.Scrape.DefaultDistrict == "" {
		p.Scrape.DefaultDistrict = "Leiria"
	}
	if p.Scrape.Pages <= 0 {
		p.Scrape.Pages = 2
	}
	if p.Scrape.Pages > 10 {
		p.Scrape.Pages = 10
	}
	if p.Scrape.PauseMinMs <= 0 {
		p.Scrape.PauseMinMs = 600
	}
	if p.Scrape.PauseMaxMs <= p.Scrape.PauseMinMs {
		p.Scrape.PauseMaxMs = p.Scrape.PauseMinMs + 700
	}

	if p.Cache.TTLSeconds <= 0 {
		p.Cache.TTLSeconds = 600
	}
	if p.Cache.Capacity <= 0 {
		p.Cache.Capacity = 256
	}

	if p.HTTP.TimeoutSeconds <= 0 {
		p.HTTP.TimeoutSeconds = 25
	}
	if p.HTTP.Concurrency <= 0 {
		p.HTTP.Concurrency = 8
	}

	if p.Marks.Path == "" {
		p.Marks.Path = "./data/marks.json"
	}

	if p.CLI.Typology == "" {
		p.CLI.Typology = "T2"
	}
	if p.CLI.SearchType == "" {
		p.CLI.SearchType = "rent"
	}

	if p.Log.Level == "" {
		if p.Env == "prod" {
			p.Log.Level = "info"
		} else {
			p.Log.Level = "debug"
		}
	}
	if p.Log.Format == "" {
		if p.Env == "prod" {
			p.Log.Format = "json"
		} else {
			p.Log.Format = "text"
		}
	}
}
