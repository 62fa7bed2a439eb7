package server

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/elecmate/studyquiz/internal/content"
)

// ContentReport describes the catalog currently being served and the
// outcome of the most recent load attempt.
type ContentReport struct {
	Source    string            `json:"source"`
	Lessons   int               `json:"lessons"`
	Exams     int               `json:"exams"`
	Questions int               `json:"questions"`
	LoadedAt  time.Time         `json:"loadedAt"`
	LastError string            `json:"lastError,omitempty"`
	Problems  []content.Problem `json:"problems,omitempty"`
}

type snapshot struct {
	catalog  *content.Catalog
	loadedAt time.Time
}

// Registry holds the live catalog. Readers never block; Reload swaps the
// pointer only when the new content validates.
type Registry struct {
	source string
	load   func() (*content.Catalog, error)
	cur    atomic.Pointer[snapshot]

	mu       sync.Mutex
	lastErr  error
	problems []content.Problem
}

// NewRegistry performs the initial load and fails if it does not validate.
func NewRegistry(source string, load func() (*content.Catalog, error)) (*Registry, error) {
	r := &Registry{source: source, load: load}
	if _, err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// StaticRegistry serves a fixed catalog. Reload keeps returning it.
func StaticRegistry(cat *content.Catalog) *Registry {
	r := &Registry{
		source: "static",
		load:   func() (*content.Catalog, error) { return cat, nil },
	}
	r.cur.Store(&snapshot{catalog: cat, loadedAt: time.Now()})
	return r
}

func (r *Registry) Catalog() *content.Catalog {
	return r.cur.Load().catalog
}

func (r *Registry) Reload() (ContentReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cat, err := r.load()
	if err != nil {
		r.lastErr = err
		r.problems = nil
		var verr *content.ValidationError
		if errors.As(err, &verr) {
			r.problems = verr.Problems
		}
		return r.report(), fmt.Errorf("loading content from %s: %w", r.source, err)
	}

	r.lastErr = nil
	r.problems = nil
	r.cur.Store(&snapshot{catalog: cat, loadedAt: time.Now()})
	return r.report(), nil
}

func (r *Registry) Report() ContentReport {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.report()
}

func (r *Registry) report() ContentReport {
	rep := ContentReport{Source: r.source, Problems: r.problems}
	if r.lastErr != nil {
		rep.LastError = r.lastErr.Error()
	}
	if snap := r.cur.Load(); snap != nil {
		rep.Lessons = len(snap.catalog.Lessons())
		rep.Exams = len(snap.catalog.Exams())
		rep.Questions = snap.catalog.Questions()
		rep.LoadedAt = snap.loadedAt
	}
	return rep
}
