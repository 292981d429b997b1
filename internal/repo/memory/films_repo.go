package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/geocoder89/filmlib/internal/domain/film"
)

type FilmsRepo struct {
	mu     sync.RWMutex
	nextID int64
	items  map[int64]film.Film // {id: film}
}

func NewFilmsRepo() *FilmsRepo {
	return &FilmsRepo{
		items: make(map[int64]film.Film),
	}
}

func (r *FilmsRepo) ListByOwner(_ context.Context, owner int64) ([]film.Film, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]film.Film, 0)

	for _, f := range r.items {
		if f.UserID == owner {
			out = append(out, f)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}

func (r *FilmsRepo) GetByID(_ context.Context, owner, id int64) (film.Film, error) {
	r.mu.RLock()
	f, ok := r.items[id]
	r.mu.RUnlock()

	if !ok || f.UserID != owner {
		return film.Film{}, film.ErrNotFound
	}

	return f, nil
}

func (r *FilmsRepo) Create(_ context.Context, owner int64, in film.Input) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++

	r.items[r.nextID] = film.Film{
		ID:        r.nextID,
		Title:     in.Title,
		Favorite:  in.Favorite,
		WatchDate: copyDate(in.WatchDate),
		Rating:    in.Rating,
		UserID:    owner,
	}

	return r.nextID, nil
}

func (r *FilmsRepo) Update(_ context.Context, owner, id int64, in film.Input) (film.Film, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.items[id]

	if !ok || f.UserID != owner {
		return film.Film{}, film.ErrNotFound
	}

	f.Title = in.Title
	f.Favorite = in.Favorite
	f.WatchDate = copyDate(in.WatchDate)
	f.Rating = in.Rating

	r.items[id] = f

	return f, nil
}

func (r *FilmsRepo) Delete(_ context.Context, owner, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if f, ok := r.items[id]; ok && f.UserID == owner {
		delete(r.items, id)
	}

	return nil
}

func copyDate(d *film.Date) *film.Date {
	if d == nil || d.IsZero() {
		return nil
	}
	v := *d
	return &v
}
