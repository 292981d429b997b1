package film

import (
	"errors"
	"strings"
)

type Film struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Favorite  bool   `json:"favorite"`
	WatchDate *Date  `json:"watchDate"` // nil means unseen
	Rating    int    `json:"rating"`
	UserID    int64  `json:"user"`
}

var ErrNotFound = errors.New("film not found")

// Input carries the mutable fields of a film. Owner and id never come from it.
type Input struct {
	Title     string
	Favorite  bool
	WatchDate *Date
	Rating    int
}

// CreateFilmRequest is the body of POST /films. A "user" or "id" key in the
// body is ignored.
type CreateFilmRequest struct {
	Title     string `json:"title" binding:"required,min=1,max=160"`
	Favorite  *bool  `json:"favorite" binding:"required"`
	WatchDate string `json:"watchDate" binding:"omitempty,isodate,notfuture"`
	Rating    *int   `json:"rating" binding:"required,min=0,max=5"`
}

// a full replace, id in the body must match the path.
type UpdateFilmRequest struct {
	ID        *int64 `json:"id" binding:"required"`
	Title     string `json:"title" binding:"required,min=1,max=160"`
	Favorite  *bool  `json:"favorite" binding:"required"`
	WatchDate string `json:"watchDate" binding:"omitempty,isodate,notfuture"`
	Rating    *int   `json:"rating" binding:"required,min=0,max=5"`
}

type SetFavoriteRequest struct {
	ID       *int64 `json:"id" binding:"required"`
	Favorite *bool  `json:"favorite" binding:"required"`
}

func (r CreateFilmRequest) Input() Input {
	return newInput(r.Title, r.Favorite, r.WatchDate, r.Rating)
}

func (r UpdateFilmRequest) Input() Input {
	return newInput(r.Title, r.Favorite, r.WatchDate, r.Rating)
}

func newInput(title string, favorite *bool, watchDate string, rating *int) Input {
	in := Input{Title: title}

	if favorite != nil {
		in.Favorite = *favorite
	}

	if rating != nil {
		in.Rating = *rating
	}

	// validated upstream; a parse failure here leaves the film unseen
	if d, err := ParseDate(strings.TrimSpace(watchDate)); err == nil {
		in.WatchDate = &d
	}

	return in
}

// Input returns the mutable fields of f.
func (f Film) Input() Input {
	return Input{
		Title:     f.Title,
		Favorite:  f.Favorite,
		WatchDate: f.WatchDate,
		Rating:    f.Rating,
	}
}

// Seen reports whether the film has a watch date.
func (f Film) Seen() bool {
	return f.WatchDate != nil && !f.WatchDate.IsZero()
}
