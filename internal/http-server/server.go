package httpserver

import (
	"log/slog"
	"net/http"
	"time"

	"imoradar/internal/aggregator"
	"imoradar/internal/http-server/handlers/history"
	"imoradar/internal/http-server/handlers/listings"
	"imoradar/internal/http-server/handlers/marks"
	"imoradar/internal/http-server/middleware"
	"imoradar/internal/http-server/respond"
)

type Server struct {
	log *slog.Logger
	mux *http.ServeMux
}

func New(log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{log: log, mux: http.NewServeMux()}
}

func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = middleware.WithRequestID(h)
	h = middleware.RecoverPanic(s.log, h)
	h = middleware.AccessLog(s.log, h)
	return h
}

type Deps struct {
	Listings        listings.Getter
	Stats           history.StatsReader
	Marks           marks.Repo
	DefaultDistrict string
	ScrapeTimeout   time.Duration
	ReadTimeout     time.Duration
}

func (s *Server) RegisterRoutes(dep Deps) {

	s.mux.HandleFunc("/api/listings", listings.NewGetHandler(listings.Options{
		Log:     s.log,
		Getter:  dep.Listings,
		Timeout: dep.ScrapeTimeout,
	}))

	s.mux.HandleFunc("/api/history", history.NewStatsHandler(history.Options{
		Log:             s.log,
		Stats:           dep.Stats,
		DefaultDistrict: dep.DefaultDistrict,
		Timeout:         dep.ReadTimeout,
	}))

	s.mux.HandleFunc("/api/prices", history.NewPricesHandler(history.Options{
		Log:     s.log,
		Stats:   dep.Stats,
		Timeout: dep.ReadTimeout,
	}))

	s.mux.HandleFunc("/api/yields", history.NewYieldsHandler(history.Options{
		Log:     s.log,
		Stats:   dep.Stats,
		Timeout: dep.ReadTimeout,
	}))

	s.mux.HandleFunc("/api/marks", marks.NewHandler(marks.Options{
		Log:  s.log,
		Repo: dep.Marks,
	}))

	s.mux.HandleFunc("/api/districts", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			respond.WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "GET only")
			return
		}
		respond.WriteJSON(w, http.StatusOK, map[string]any{
			"districts": aggregator.Districts,
			"default":   dep.DefaultDistrict,
		})
	})
}
