// Package library is the owner-scoped film store. Every method takes the
// owner explicitly; there is no way to reach a film without one.
package library

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/geocoder89/filmlib/internal/domain/film"
	"github.com/geocoder89/filmlib/internal/filters"
)

// FilmRepository is implemented by the postgres, sqlite and memory repos.
// Every method must filter by owner.
type FilmRepository interface {
	ListByOwner(ctx context.Context, owner int64) ([]film.Film, error)
	GetByID(ctx context.Context, owner, id int64) (film.Film, error)
	Create(ctx context.Context, owner int64, in film.Input) (int64, error)
	Update(ctx context.Context, owner, id int64, in film.Input) (film.Film, error)
	Delete(ctx context.Context, owner, id int64) error
}

type Library struct {
	repo    FilmRepository
	filters *filters.Registry
	now     func() time.Time
}

type Option func(*Library)

// WithClock overrides time.Now for the date based filters.
func WithClock(now func() time.Time) Option {
	return func(l *Library) { l.now = now }
}

func New(repo FilmRepository, registry *filters.Registry, opts ...Option) *Library {
	l := &Library{
		repo:    repo,
		filters: registry,
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

func (l *Library) List(ctx context.Context, owner int64, filterID string) ([]film.Film, error) {
	films, err := l.repo.ListByOwner(ctx, owner)

	if err != nil {
		return nil, fmt.Errorf("list films: %w", err)
	}

	return l.filters.Apply(films, filterID, l.now()), nil
}

func (l *Library) Get(ctx context.Context, owner, id int64) (film.Film, error) {
	f, err := l.repo.GetByID(ctx, owner, id)

	if err != nil {
		return film.Film{}, fmt.Errorf("get film %d: %w", id, err)
	}

	return f, nil
}

// Create stores a new film for owner and returns it as read back from the store.
func (l *Library) Create(ctx context.Context, owner int64, in film.Input) (film.Film, error) {
	id, err := l.repo.Create(ctx, owner, in)

	if err != nil {
		return film.Film{}, fmt.Errorf("create film: %w", err)
	}

	f, err := l.repo.GetByID(ctx, owner, id)

	if err != nil {
		return film.Film{}, fmt.Errorf("read back film %d: %w", id, err)
	}

	return f, nil
}

// Update replaces the mutable fields of (owner, id). A film that does not
// exist or belongs to someone else yields film.ErrNotFound.
func (l *Library) Update(ctx context.Context, owner, id int64, in film.Input) (film.Film, error) {
	f, err := l.repo.Update(ctx, owner, id, in)

	if err != nil {
		return film.Film{}, fmt.Errorf("update film %d: %w", id, err)
	}

	return f, nil
}

// SetFavorite is a full update that only changes the favorite flag.
func (l *Library) SetFavorite(ctx context.Context, owner, id int64, favorite bool) (film.Film, error) {
	current, err := l.Get(ctx, owner, id)

	if err != nil {
		return film.Film{}, err
	}

	in := current.Input()
	in.Favorite = favorite

	return l.Update(ctx, owner, id, in)
}

// Delete succeeds whether or not the film existed.
func (l *Library) Delete(ctx context.Context, owner, id int64) error {
	err := l.repo.Delete(ctx, owner, id)

	if err != nil && !errors.Is(err, film.ErrNotFound) {
		return fmt.Errorf("delete film %d: %w", id, err)
	}

	return nil
}

// Filters exposes the id -> label view of the registry.
func (l *Library) Filters() map[string]filters.Label {
	return l.filters.Labels()
}
