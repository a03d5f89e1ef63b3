package marks

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"imoradar/internal/http-server/query"
	"imoradar/internal/http-server/respond"
	marksrepo "imoradar/internal/marks"
)

// Repo is the slice of the mark store the handler depends on.
type Repo interface {
	All() []marksrepo.Mark
	Set(ctx context.Context, url, kind, note string) (marksrepo.Mark, error)
	Delete(ctx context.Context, url string) error
}

type Options struct {
	Log     *slog.Logger
	Repo    Repo
	Timeout time.Duration
}

type setRequest struct {
	URL  string `json:"url"`
	Kind string `json:"kind"`
	Note string `json:"note"`
}

// NewHandler serves the mark collection: GET lists, POST sets, DELETE
// removes by url parameter.
func NewHandler(opts Options) http.HandlerFunc {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if opts.Repo == nil {
			log.Error("marks handler misconfigured: Repo is nil")
			respond.WriteInternalError(w)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), opts.Timeout)
		defer cancel()

		switch r.Method {
		case http.MethodGet:
			marks := opts.Repo.All()
			if marks == nil {
				marks = []marksrepo.Mark{}
			}
			respond.WriteJSON(w, http.StatusOK, map[string]any{"marks": marks})

		case http.MethodPost:
			var req setRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				respond.WriteError(w, http.StatusBadRequest, "bad_request", "invalid json body")
				return
			}
			m, err := opts.Repo.Set(ctx, req.URL, req.Kind, req.Note)
			if err != nil {
				respond.WriteError(w, http.StatusBadRequest, "bad_request", err.Error())
				return
			}
			respond.WriteJSON(w, http.StatusOK, m)

		case http.MethodDelete:
			url, ok := query.Str(r, "url")
			if !ok {
				respond.WriteError(w, http.StatusBadRequest, "bad_request", "url is required")
				return
			}
			if err := opts.Repo.Delete(ctx, url); err != nil {
				log.Error("mark delete failed", "url", url, "err", err)
				respond.WriteInternalError(w)
				return
			}
			respond.WriteJSON(w, http.StatusOK, map[string]any{"deleted": url})

		default:
			respond.WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "GET, POST or DELETE")
		}
	}
}
