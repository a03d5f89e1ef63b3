// Package marks keeps the user's per-listing marks (favorite, discarded) in
// a small JSON file. Scale is a few hundred entries, so a flat file beats a
// table.
package marks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

const (
	MarkFavorite  = "favorite"
	MarkDiscarded = "discarded"
)

// Mark annotates one listing URL.
type Mark struct {
	URL      string    `json:"url"`
	Kind     string    `json:"kind"`
	Note     string    `json:"note,omitempty"`
	MarkedAt time.Time `json:"marked_at"`
}

type Repo struct {
	path string
	log  *slog.Logger

	mu    sync.Mutex
	marks map[string]Mark
}

// Open loads the mark file, creating an empty repo when it does not exist.
func Open(path string, log *slog.Logger) (*Repo, error) {
	if path == "" {
		return nil, fmt.Errorf("marks: empty path")
	}
	if log == nil {
		log = slog.Default()
	}
	r := &Repo{path: path, log: log, marks: make(map[string]Mark)}

	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return r, nil
	}
	if err != nil {
		return nil, fmt.Errorf("marks: read %s: %w", path, err)
	}
	var list []Mark
	if err := json.Unmarshal(b, &list); err != nil {
		return nil, fmt.Errorf("marks: decode %s: %w", path, err)
	}
	for _, m := range list {
		if m.URL != "" {
			r.marks[m.URL] = m
		}
	}
	return r, nil
}

// Set records a mark for a URL, replacing any previous one.
func (r *Repo) Set(ctx context.Context, url, kind, note string) (Mark, error) {
	if url == "" {
		return Mark{}, fmt.Errorf("marks: empty url")
	}
	if kind != MarkFavorite && kind != MarkDiscarded {
		return Mark{}, fmt.Errorf("marks: unknown kind %q", kind)
	}
	m := Mark{URL: url, Kind: kind, Note: note, MarkedAt: time.Now().UTC()}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.marks[url] = m
	if err := r.flush(ctx); err != nil {
		delete(r.marks, url)
		return Mark{}, err
	}
	return m, nil
}

// Delete removes the mark of a URL. Removing a missing mark is not an error.
func (r *Repo) Delete(ctx context.Context, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev, had := r.marks[url]
	if !had {
		return nil
	}
	delete(r.marks, url)
	if err := r.flush(ctx); err != nil {
		r.marks[url] = prev
		return err
	}
	return nil
}

// All returns every mark sorted by URL.
func (r *Repo) All() []Mark {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Mark, 0, len(r.marks))
	for _, m := range r.marks {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URL < out[j].URL })
	return out
}

// Get returns the mark of a URL, if any.
func (r *Repo) Get(url string) (Mark, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.marks[url]
	return m, ok
}

// flush writes the whole set atomically. Callers hold mu.
func (r *Repo) flush(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	list := make([]Mark, 0, len(r.marks))
	for _, m := range r.marks {
		list = append(list, m)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].URL < list[j].URL })

	b, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')

	dir := filepath.Dir(r.path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, r.path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
