package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/geocoder89/filmlib/internal/actorctx"
	"github.com/geocoder89/filmlib/internal/config"
	"github.com/geocoder89/filmlib/internal/domain/film"
	"github.com/gin-gonic/gin"
)

const storeTimeout = 3 * time.Second

// FilmLibrary is the owner-scoped film store the handlers drive.
type FilmLibrary interface {
	List(ctx context.Context, owner int64, filterID string) ([]film.Film, error)
	Get(ctx context.Context, owner, id int64) (film.Film, error)
	Create(ctx context.Context, owner int64, in film.Input) (film.Film, error)
	Update(ctx context.Context, owner, id int64, in film.Input) (film.Film, error)
	SetFavorite(ctx context.Context, owner, id int64, favorite bool) (film.Film, error)
	Delete(ctx context.Context, owner, id int64) error
}

type FilmsHandler struct {
	library FilmLibrary
}

func NewFilmsHandler(library FilmLibrary) *FilmsHandler {
	return &FilmsHandler{library: library}
}

// ListFilms serves GET /films?filter=<id>. Unknown filters list everything.
func (h *FilmsHandler) ListFilms(ctx *gin.Context) {
	owner, ok := ownerFrom(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	films, err := h.library.List(cctx, owner, ctx.Query("filter"))

	if err != nil {
		storeFailure(ctx, "list", 0, err, "Database error while listing films")
		return
	}

	if films == nil {
		films = []film.Film{}
	}

	ctx.JSON(http.StatusOK, films)
}

func (h *FilmsHandler) GetFilm(ctx *gin.Context) {
	owner, ok := ownerFrom(ctx)
	if !ok {
		return
	}

	id, ok := filmIDParam(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	f, err := h.library.Get(cctx, owner, id)

	if err != nil {
		if errors.Is(err, film.ErrNotFound) {
			RespondNotFound(ctx, MsgFilmNotFound)
			return
		}
		storeFailure(ctx, "get", id, err, fmt.Sprintf("Database error while retrieving film %d", id))
		return
	}

	ctx.JSON(http.StatusOK, f)
}

func (h *FilmsHandler) CreateFilm(ctx *gin.Context) {
	owner, ok := ownerFrom(ctx)
	if !ok {
		return
	}

	var req film.CreateFilmRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	created, err := h.library.Create(cctx, owner, req.Input())

	if err != nil {
		storeFailure(ctx, "create", 0, err, "Database error during the creation of new film: "+err.Error())
		return
	}

	ctx.JSON(http.StatusCreated, created)
}

func (h *FilmsHandler) UpdateFilm(ctx *gin.Context) {
	owner, ok := ownerFrom(ctx)
	if !ok {
		return
	}

	id, ok := filmIDParam(ctx)
	if !ok {
		return
	}

	var req film.UpdateFilmRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if *req.ID != id {
		RespondValidation(ctx, MsgIDMismatch)
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	updated, err := h.library.Update(cctx, owner, id, req.Input())

	if err != nil {
		if errors.Is(err, film.ErrNotFound) {
			RespondNotFound(ctx, MsgFilmNotFound)
			return
		}
		storeFailure(ctx, "update", id, err, fmt.Sprintf("Database error during the update of film %d: %s", id, err.Error()))
		return
	}

	ctx.JSON(http.StatusOK, updated)
}

// SetFavorite serves PUT /films/:id/favorite, a shortcut over a full update.
func (h *FilmsHandler) SetFavorite(ctx *gin.Context) {
	owner, ok := ownerFrom(ctx)
	if !ok {
		return
	}

	id, ok := filmIDParam(ctx)
	if !ok {
		return
	}

	var req film.SetFavoriteRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if *req.ID != id {
		RespondValidation(ctx, MsgIDMismatch)
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	updated, err := h.library.SetFavorite(cctx, owner, id, *req.Favorite)

	if err != nil {
		if errors.Is(err, film.ErrNotFound) {
			RespondNotFound(ctx, MsgFilmNotFound)
			return
		}
		storeFailure(ctx, "set_favorite", id, err, fmt.Sprintf("Database error during the update of film %d: %s", id, err.Error()))
		return
	}

	ctx.JSON(http.StatusOK, updated)
}

// DeleteFilm answers 200 {} whether or not the film existed.
func (h *FilmsHandler) DeleteFilm(ctx *gin.Context) {
	owner, ok := ownerFrom(ctx)
	if !ok {
		return
	}

	id, ok := filmIDParam(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	if err := h.library.Delete(cctx, owner, id); err != nil {
		storeFailure(ctx, "delete", id, err, fmt.Sprintf("Database error during the deletion of film %d: %s", id, err.Error()))
		return
	}

	ctx.JSON(http.StatusOK, gin.H{})
}

// helpers

func ownerFrom(ctx *gin.Context) (int64, bool) {
	actor, ok := actorctx.ActorFrom(ctx.Request.Context())

	if !ok {
		RespondUnauthorized(ctx, MsgNotAuthorized)
		return 0, false
	}

	return actor.ID, true
}

func filmIDParam(ctx *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)

	if err != nil || id <= 0 {
		RespondValidation(ctx, "params[id]: must be a positive integer")
		return 0, false
	}

	return id, true
}

func storeFailure(ctx *gin.Context, op string, id int64, err error, message string) {
	attrs := []any{"op", op, "err", err, "request_id", requestIDFrom(ctx)}
	if id != 0 {
		attrs = append(attrs, "film_id", id)
	}

	slog.Default().ErrorContext(ctx.Request.Context(), "film store failure", attrs...)

	RespondStoreFailure(ctx, message)
}
