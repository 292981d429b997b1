package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/filmlib/internal/domain/film"
	"github.com/geocoder89/filmlib/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// WARN: every statement here must carry a user_id = $n predicate.

type FilmsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewFilmsRepo(pool *pgxpool.Pool, prom *observability.Prom) *FilmsRepo {
	return &FilmsRepo{
		pool: pool,
		prom: prom,
	}
}

const filmColumns = `id, title, favorite, watch_date, rating, user_id`

func (r *FilmsRepo) ListByOwner(ctx context.Context, owner int64) ([]film.Film, error) {
	output := make([]film.Film, 0)

	err := r.prom.ObserveDB("films.list", func() error {
		rows, err := r.pool.Query(ctx, `SELECT `+filmColumns+` FROM films WHERE user_id = $1 ORDER BY id ASC`, owner)

		if err != nil {
			return err
		}

		defer rows.Close()

		for rows.Next() {
			f, err := scanFilm(rows)

			if err != nil {
				return err
			}

			output = append(output, f)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return output, nil
}

func (r *FilmsRepo) GetByID(ctx context.Context, owner, id int64) (film.Film, error) {
	var f film.Film

	err := r.prom.ObserveDB("films.get", func() error {
		var err error
		f, err = scanFilm(r.pool.QueryRow(ctx, `SELECT `+filmColumns+` FROM films WHERE id = $1 AND user_id = $2`, id, owner))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return film.Film{}, film.ErrNotFound
		}
		return film.Film{}, err
	}

	return f, nil
}

func (r *FilmsRepo) Create(ctx context.Context, owner int64, in film.Input) (int64, error) {
	var id int64

	err := r.prom.ObserveDB("films.create", func() error {
		return r.pool.QueryRow(ctx,
			`INSERT INTO films (title, favorite, watch_date, rating, user_id)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id`,
			in.Title, in.Favorite, dateArg(in.WatchDate), in.Rating, owner,
		).Scan(&id)
	})

	if err != nil {
		return 0, err
	}

	return id, nil
}

func (r *FilmsRepo) Update(ctx context.Context, owner, id int64, in film.Input) (film.Film, error) {
	var f film.Film

	err := r.prom.ObserveDB("films.update", func() error {
		var err error
		f, err = scanFilm(r.pool.QueryRow(ctx,
			`UPDATE films
				SET title = $3,
					favorite = $4,
					watch_date = $5,
					rating = $6
			WHERE id = $1 AND user_id = $2
			RETURNING `+filmColumns,
			id, owner, in.Title, in.Favorite, dateArg(in.WatchDate), in.Rating,
		))
		return err
	})

	if err != nil {
		// no row for (id, owner)
		if errors.Is(err, pgx.ErrNoRows) {
			return film.Film{}, film.ErrNotFound
		}
		return film.Film{}, err
	}

	return f, nil
}

// Delete does not report missing rows.
func (r *FilmsRepo) Delete(ctx context.Context, owner, id int64) error {
	return r.prom.ObserveDB("films.delete", func() error {
		_, err := r.pool.Exec(ctx, `DELETE FROM films WHERE id = $1 AND user_id = $2`, id, owner)
		return err
	})
}

func scanFilm(row pgx.Row) (film.Film, error) {
	var f film.Film
	var watchDate *time.Time

	err := row.Scan(&f.ID, &f.Title, &f.Favorite, &watchDate, &f.Rating, &f.UserID)

	if err != nil {
		return film.Film{}, err
	}

	if watchDate != nil {
		d := film.DateOf(*watchDate)
		f.WatchDate = &d
	}

	return f, nil
}

func dateArg(d *film.Date) *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}
