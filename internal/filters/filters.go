// Package filters holds the fixed set of named film filters. A Registry is
// built once at startup and handed to whoever needs it; it is never mutated.
package filters

import (
	"time"

	"github.com/geocoder89/filmlib/internal/domain/film"
)

const (
	All       = "filter-all"
	Favorite  = "filter-favorite"
	Best      = "filter-best"
	LastMonth = "filter-lastmonth"
	Unseen    = "filter-unseen"
)

// Predicate decides whether a film passes a filter at instant now.
type Predicate func(f film.Film, now time.Time) bool

type Filter struct {
	ID    string
	Label string
	Match Predicate
}

// Label is the only part of a filter exposed to clients.
type Label struct {
	Label string `json:"label"`
}

type Registry struct {
	order []string
	byID  map[string]Filter
}

func New(defs ...Filter) *Registry {
	r := &Registry{
		order: make([]string, 0, len(defs)),
		byID:  make(map[string]Filter, len(defs)),
	}

	for _, d := range defs {
		if _, dup := r.byID[d.ID]; dup {
			continue
		}
		r.order = append(r.order, d.ID)
		r.byID[d.ID] = d
	}

	return r
}

// Default returns the built-in filters.
func Default() *Registry {
	return New(
		Filter{ID: All, Label: "All", Match: func(film.Film, time.Time) bool { return true }},
		Filter{ID: Favorite, Label: "Favorites", Match: func(f film.Film, _ time.Time) bool { return f.Favorite }},
		Filter{ID: Best, Label: "Best Rated", Match: func(f film.Film, _ time.Time) bool { return f.Rating >= 5 }},
		Filter{ID: LastMonth, Label: "Seen Last Month", Match: seenThisMonth},
		Filter{ID: Unseen, Label: "Unseen", Match: func(f film.Film, _ time.Time) bool { return !f.Seen() }},
	)
}

// seenThisMonth matches calendar month equality, not a rolling 30 day window.
func seenThisMonth(f film.Film, now time.Time) bool {
	if !f.Seen() {
		return false
	}
	return f.WatchDate.SameMonth(now)
}

// Lookup only matches ids the registry defines itself.
func (r *Registry) Lookup(id string) (Filter, bool) {
	f, ok := r.byID[id]
	return f, ok
}

func (r *Registry) IDs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Registry) Labels() map[string]Label {
	out := make(map[string]Label, len(r.byID))

	for id, f := range r.byID {
		out[id] = Label{Label: f.Label}
	}

	return out
}

// Apply returns the films matching filter id. An unknown id applies no
// filter. The input slice is not modified.
func (r *Registry) Apply(films []film.Film, id string, now time.Time) []film.Film {
	out := make([]film.Film, 0, len(films))

	f, ok := r.Lookup(id)

	if !ok {
		return append(out, films...)
	}

	for _, candidate := range films {
		if f.Match(candidate, now) {
			out = append(out, candidate)
		}
	}

	return out
}
