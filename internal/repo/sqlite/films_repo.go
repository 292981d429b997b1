package sqlite

import (
	"context"
	"errors"

	"github.com/geocoder89/filmlib/internal/domain/film"
	"github.com/geocoder89/filmlib/internal/observability"
	"gorm.io/gorm"
)

type FilmsRepo struct {
	db   *gorm.DB
	prom *observability.Prom
}

func NewFilmsRepo(db *gorm.DB, prom *observability.Prom) *FilmsRepo {
	return &FilmsRepo{db: db, prom: prom}
}

func ownedBy(owner, id int64) map[string]any {
	return map[string]any{"id": id, "user": owner}
}

func (r *FilmsRepo) ListByOwner(ctx context.Context, owner int64) ([]film.Film, error) {
	var rows []filmRow

	err := r.prom.ObserveDB("films.list", func() error {
		return r.db.WithContext(ctx).Where(map[string]any{"user": owner}).Order("id").Find(&rows).Error
	})

	if err != nil {
		return nil, err
	}

	out := make([]film.Film, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toFilm())
	}

	return out, nil
}

func (r *FilmsRepo) GetByID(ctx context.Context, owner, id int64) (film.Film, error) {
	var row filmRow

	err := r.prom.ObserveDB("films.get", func() error {
		return r.db.WithContext(ctx).Where(ownedBy(owner, id)).First(&row).Error
	})

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return film.Film{}, film.ErrNotFound
		}
		return film.Film{}, err
	}

	return row.toFilm(), nil
}

func (r *FilmsRepo) Create(ctx context.Context, owner int64, in film.Input) (int64, error) {
	row := filmRow{
		Title:     in.Title,
		Favorite:  in.Favorite,
		WatchDate: dateColumn(in.WatchDate),
		Rating:    in.Rating,
		UserID:    owner,
	}

	err := r.prom.ObserveDB("films.create", func() error {
		return r.db.WithContext(ctx).Create(&row).Error
	})

	if err != nil {
		return 0, err
	}

	return row.ID, nil
}

func (r *FilmsRepo) Update(ctx context.Context, owner, id int64, in film.Input) (film.Film, error) {
	var affected int64

	err := r.prom.ObserveDB("films.update", func() error {
		// a map so false, 0 and NULL are written too
		res := r.db.WithContext(ctx).Model(&filmRow{}).Where(ownedBy(owner, id)).Updates(map[string]any{
			"title":     in.Title,
			"favorite":  in.Favorite,
			"watchdate": dateColumn(in.WatchDate),
			"rating":    in.Rating,
		})
		affected = res.RowsAffected
		return res.Error
	})

	if err != nil {
		return film.Film{}, err
	}

	if affected == 0 {
		return film.Film{}, film.ErrNotFound
	}

	return r.GetByID(ctx, owner, id)
}

func (r *FilmsRepo) Delete(ctx context.Context, owner, id int64) error {
	return r.prom.ObserveDB("films.delete", func() error {
		return r.db.WithContext(ctx).Where(ownedBy(owner, id)).Delete(&filmRow{}).Error
	})
}

func (row filmRow) toFilm() film.Film {
	f := film.Film{
		ID:       row.ID,
		Title:    row.Title,
		Favorite: row.Favorite,
		Rating:   row.Rating,
		UserID:   row.UserID,
	}

	// rows written by other tools may hold "" or a bad date; both read as unseen
	if row.WatchDate != nil {
		if d, err := film.ParseDate(*row.WatchDate); err == nil {
			f.WatchDate = &d
		}
	}

	return f
}

func dateColumn(d *film.Date) *string {
	if d == nil || d.IsZero() {
		return nil
	}
	s := d.String()
	return &s
}
