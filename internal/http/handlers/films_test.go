package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/geocoder89/filmlib/internal/actorctx"
	"github.com/geocoder89/filmlib/internal/domain/film"
	"github.com/geocoder89/filmlib/internal/domain/user"
	"github.com/geocoder89/filmlib/internal/http/handlers"
	"github.com/gin-gonic/gin"
)

// Make sure Gin does not spam the console during the test

func init() {
	gin.SetMode(gin.TestMode)

	if err := handlers.RegisterValidators(); err != nil {
		panic(err)
	}
}

// Fake implementation of handlers.FilmLibrary

type fakeLibrary struct {
	listFn        func(ctx context.Context, owner int64, filterID string) ([]film.Film, error)
	getFn         func(ctx context.Context, owner, id int64) (film.Film, error)
	createFn      func(ctx context.Context, owner int64, in film.Input) (film.Film, error)
	updateFn      func(ctx context.Context, owner, id int64, in film.Input) (film.Film, error)
	setFavoriteFn func(ctx context.Context, owner, id int64, favorite bool) (film.Film, error)
	deleteFn      func(ctx context.Context, owner, id int64) error

	calls int
}

func (f *fakeLibrary) List(ctx context.Context, owner int64, filterID string) ([]film.Film, error) {
	f.calls++
	if f.listFn != nil {
		return f.listFn(ctx, owner, filterID)
	}
	return nil, nil
}

func (f *fakeLibrary) Get(ctx context.Context, owner, id int64) (film.Film, error) {
	f.calls++
	if f.getFn != nil {
		return f.getFn(ctx, owner, id)
	}
	return film.Film{}, nil
}

func (f *fakeLibrary) Create(ctx context.Context, owner int64, in film.Input) (film.Film, error) {
	f.calls++
	if f.createFn != nil {
		return f.createFn(ctx, owner, in)
	}
	return film.Film{}, nil
}

func (f *fakeLibrary) Update(ctx context.Context, owner, id int64, in film.Input) (film.Film, error) {
	f.calls++
	if f.updateFn != nil {
		return f.updateFn(ctx, owner, id, in)
	}
	return film.Film{}, nil
}

func (f *fakeLibrary) SetFavorite(ctx context.Context, owner, id int64, favorite bool) (film.Film, error) {
	f.calls++
	if f.setFavoriteFn != nil {
		return f.setFavoriteFn(ctx, owner, id, favorite)
	}
	return film.Film{}, nil
}

func (f *fakeLibrary) Delete(ctx context.Context, owner, id int64) error {
	f.calls++
	if f.deleteFn != nil {
		return f.deleteFn(ctx, owner, id)
	}
	return nil
}

const testOwner int64 = 1

// small helper which mounts one handler behind a fake authenticated actor

func setupRouter(method, path string, h gin.HandlerFunc) *gin.Engine {
	r := gin.New()

	r.Handle(method, path, func(ctx *gin.Context) {
		actor := user.Profile{ID: testOwner, Username: "john.doe@polito.it", Name: "John"}
		ctx.Request = ctx.Request.WithContext(actorctx.WithActor(ctx.Request.Context(), actor))
		ctx.Next()
	}, h)

	return r
}

func doJSON(r http.Handler, method, url, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, url, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	var body handlers.APIError
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to unmarshal error body: %v body=%s", err, w.Body.String())
	}

	return body.Error
}

// Create film tests

func TestCreateFilmHandler(t *testing.T) {
	today := time.Now().Format(time.DateOnly)
	tomorrow := time.Now().AddDate(0, 0, 1).Format(time.DateOnly)

	tests := []struct {
		name           string
		body           string
		repoSetUp      func(*fakeLibrary)
		wantStatusCode int
		wantMessage    string // substring of the error message
		wantRepoCalls  int
	}{
		{
			name: "success_forces_owner",
			body: `{"title":"Pulp Fiction","favorite":true,"watchDate":"` + today + `","rating":5,"user":99}`,
			repoSetUp: func(f *fakeLibrary) {
				f.createFn = func(ctx context.Context, owner int64, in film.Input) (film.Film, error) {
					if owner != testOwner {
						return film.Film{}, errors.New("owner not forced")
					}
					return film.Film{ID: 10, Title: in.Title, Favorite: in.Favorite, WatchDate: in.WatchDate, Rating: in.Rating, UserID: owner}, nil
				}
			},
			wantStatusCode: http.StatusCreated,
			wantRepoCalls:  1,
		},
		{
			name:           "empty_title",
			body:           `{"title":"","favorite":false,"rating":0}`,
			wantStatusCode: http.StatusUnprocessableEntity,
			wantMessage:    "body[title]: is required",
		},
		{
			name:           "title_too_long",
			body:           `{"title":"` + strings.Repeat("x", 161) + `","favorite":false,"rating":0}`,
			wantStatusCode: http.StatusUnprocessableEntity,
			wantMessage:    "body[title]: must be at most 160",
		},
		{
			name:           "rating_out_of_range_and_missing_favorite",
			body:           `{"title":"Shrek","rating":6}`,
			wantStatusCode: http.StatusUnprocessableEntity,
			wantMessage:    "body[favorite]: is required, body[rating]: must be at most 5",
		},
		{
			name:           "rating_not_integer",
			body:           `{"title":"Shrek","favorite":false,"rating":3.5}`,
			wantStatusCode: http.StatusUnprocessableEntity,
			wantMessage:    "body[rating]: must be of type integer",
		},
		{
			name:           "bad_date",
			body:           `{"title":"Shrek","favorite":false,"rating":3,"watchDate":"2024-3-1"}`,
			wantStatusCode: http.StatusUnprocessableEntity,
			wantMessage:    "body[watchDate]: must be a date in YYYY-MM-DD format",
		},
		{
			name:           "future_date",
			body:           `{"title":"Shrek","favorite":false,"rating":3,"watchDate":"` + tomorrow + `"}`,
			wantStatusCode: http.StatusUnprocessableEntity,
			wantMessage:    "body[watchDate]: must not be in the future",
		},
		{
			name: "null_date_is_unseen",
			body: `{"title":"Shrek","favorite":false,"rating":3,"watchDate":null}`,
			repoSetUp: func(f *fakeLibrary) {
				f.createFn = func(ctx context.Context, owner int64, in film.Input) (film.Film, error) {
					if in.WatchDate != nil {
						return film.Film{}, errors.New("expected no watch date")
					}
					return film.Film{ID: 1, Title: in.Title, UserID: owner}, nil
				}
			},
			wantStatusCode: http.StatusCreated,
			wantRepoCalls:  1,
		},
		{
			name:           "malformed_json",
			body:           `{"title":`,
			wantStatusCode: http.StatusUnprocessableEntity,
			wantMessage:    "body[json]: malformed JSON",
		},
		{
			name: "repo_error",
			body: `{"title":"Shrek","favorite":false,"rating":3}`,
			repoSetUp: func(f *fakeLibrary) {
				f.createFn = func(ctx context.Context, owner int64, in film.Input) (film.Film, error) {
					return film.Film{}, errors.New("db down")
				}
			},
			wantStatusCode: http.StatusServiceUnavailable,
			wantMessage:    "Database error during the creation of new film: db down",
			wantRepoCalls:  1,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			lib := &fakeLibrary{}

			if tt.repoSetUp != nil {
				tt.repoSetUp(lib)
			}

			h := handlers.NewFilmsHandler(lib)
			r := setupRouter(http.MethodPost, "/films", h.CreateFilm)

			w := doJSON(r, http.MethodPost, "/films", tt.body)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantMessage != "" {
				if got := errorMessage(t, w); !strings.Contains(got, tt.wantMessage) {
					t.Fatalf("message %q does not contain %q", got, tt.wantMessage)
				}
			}

			if lib.calls != tt.wantRepoCalls {
				t.Fatalf("library called %d times, want %d", lib.calls, tt.wantRepoCalls)
			}

			if w.Code == http.StatusCreated {
				var got film.Film
				if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
					t.Fatalf("bad body: %v", err)
				}
				if got.UserID != testOwner {
					t.Fatalf("owner = %d, want %d", got.UserID, testOwner)
				}
			}
		})
	}
}

// Update film tests

func TestUpdateFilmHandler(t *testing.T) {
	valid := `{"id":5,"title":"Matrix","favorite":true,"rating":4}`

	tests := []struct {
		name           string
		url            string
		body           string
		repoSetUp      func(*fakeLibrary)
		wantStatusCode int
		wantMessage    string
		wantRepoCalls  int
	}{
		{
			name: "success",
			url:  "/films/5",
			body: valid,
			repoSetUp: func(f *fakeLibrary) {
				f.updateFn = func(ctx context.Context, owner, id int64, in film.Input) (film.Film, error) {
					return film.Film{ID: id, Title: in.Title, Favorite: in.Favorite, Rating: in.Rating, UserID: owner}, nil
				}
			},
			wantStatusCode: http.StatusOK,
			wantRepoCalls:  1,
		},
		{
			name:           "id_mismatch",
			url:            "/films/5",
			body:           `{"id":6,"title":"Matrix","favorite":true,"rating":4}`,
			wantStatusCode: http.StatusUnprocessableEntity,
			wantMessage:    handlers.MsgIDMismatch,
		},
		{
			name:           "missing_body_id",
			url:            "/films/5",
			body:           `{"title":"Matrix","favorite":true,"rating":4}`,
			wantStatusCode: http.StatusUnprocessableEntity,
			wantMessage:    "body[id]: is required",
		},
		{
			name:           "bad_path_id",
			url:            "/films/abc",
			body:           valid,
			wantStatusCode: http.StatusUnprocessableEntity,
			wantMessage:    "params[id]: must be a positive integer",
		},
		{
			name: "not_found",
			url:  "/films/5",
			body: valid,
			repoSetUp: func(f *fakeLibrary) {
				f.updateFn = func(ctx context.Context, owner, id int64, in film.Input) (film.Film, error) {
					return film.Film{}, film.ErrNotFound
				}
			},
			wantStatusCode: http.StatusNotFound,
			wantMessage:    handlers.MsgFilmNotFound,
			wantRepoCalls:  1,
		},
		{
			name: "repo_error",
			url:  "/films/5",
			body: valid,
			repoSetUp: func(f *fakeLibrary) {
				f.updateFn = func(ctx context.Context, owner, id int64, in film.Input) (film.Film, error) {
					return film.Film{}, errors.New("db down")
				}
			},
			wantStatusCode: http.StatusServiceUnavailable,
			wantMessage:    "Database error during the update of film 5",
			wantRepoCalls:  1,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			lib := &fakeLibrary{}
			if tt.repoSetUp != nil {
				tt.repoSetUp(lib)
			}

			h := handlers.NewFilmsHandler(lib)
			r := setupRouter(http.MethodPut, "/films/:id", h.UpdateFilm)

			w := doJSON(r, http.MethodPut, tt.url, tt.body)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantMessage != "" {
				if got := errorMessage(t, w); !strings.Contains(got, tt.wantMessage) {
					t.Fatalf("message %q does not contain %q", got, tt.wantMessage)
				}
			}

			if lib.calls != tt.wantRepoCalls {
				t.Fatalf("library called %d times, want %d", lib.calls, tt.wantRepoCalls)
			}
		})
	}
}

func TestSetFavoriteHandler(t *testing.T) {
	lib := &fakeLibrary{
		setFavoriteFn: func(ctx context.Context, owner, id int64, favorite bool) (film.Film, error) {
			if !favorite {
				return film.Film{}, errors.New("favorite flag lost")
			}
			return film.Film{ID: id, Title: "Matrix", Favorite: favorite, UserID: owner}, nil
		},
	}

	h := handlers.NewFilmsHandler(lib)
	r := setupRouter(http.MethodPut, "/films/:id/favorite", h.SetFavorite)

	w := doJSON(r, http.MethodPut, "/films/3/favorite", `{"id":3,"favorite":true}`)
	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	w = doJSON(r, http.MethodPut, "/films/3/favorite", `{"id":3}`)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("missing favorite: got status %d", w.Code)
	}
}

// List, get and delete

func TestListFilmsHandler(t *testing.T) {
	t.Run("passes_filter_and_returns_array", func(t *testing.T) {
		var gotFilter string
		lib := &fakeLibrary{
			listFn: func(ctx context.Context, owner int64, filterID string) ([]film.Film, error) {
				gotFilter = filterID
				return nil, nil
			},
		}

		r := setupRouter(http.MethodGet, "/films", handlers.NewFilmsHandler(lib).ListFilms)
		w := doJSON(r, http.MethodGet, "/films?filter=filter-best", "")

		if w.Code != http.StatusOK {
			t.Fatalf("got status %d", w.Code)
		}
		if gotFilter != "filter-best" {
			t.Fatalf("filter = %q", gotFilter)
		}
		if strings.TrimSpace(w.Body.String()) != "[]" {
			t.Fatalf("want empty array, got %s", w.Body.String())
		}
	})

	t.Run("repo_error", func(t *testing.T) {
		lib := &fakeLibrary{
			listFn: func(ctx context.Context, owner int64, filterID string) ([]film.Film, error) {
				return nil, errors.New("db down")
			},
		}

		r := setupRouter(http.MethodGet, "/films", handlers.NewFilmsHandler(lib).ListFilms)
		w := doJSON(r, http.MethodGet, "/films", "")

		if w.Code != http.StatusServiceUnavailable {
			t.Fatalf("got status %d", w.Code)
		}
	})
}

func TestGetFilmHandler(t *testing.T) {
	lib := &fakeLibrary{
		getFn: func(ctx context.Context, owner, id int64) (film.Film, error) {
			if id == 2 {
				return film.Film{ID: 2, Title: "Star Wars", UserID: owner}, nil
			}
			return film.Film{}, film.ErrNotFound
		},
	}

	r := setupRouter(http.MethodGet, "/films/:id", handlers.NewFilmsHandler(lib).GetFilm)

	tests := []struct {
		url  string
		want int
	}{
		{"/films/2", http.StatusOK},
		{"/films/3", http.StatusNotFound},
		{"/films/0", http.StatusUnprocessableEntity},
		{"/films/-1", http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		if w := doJSON(r, http.MethodGet, tt.url, ""); w.Code != tt.want {
			t.Fatalf("%s: got status %d, want %d", tt.url, w.Code, tt.want)
		}
	}
}

func TestDeleteFilmHandler(t *testing.T) {
	lib := &fakeLibrary{}
	r := setupRouter(http.MethodDelete, "/films/:id", handlers.NewFilmsHandler(lib).DeleteFilm)

	w := doJSON(r, http.MethodDelete, "/films/42", "")
	if w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != "{}" {
		t.Fatalf("got %d %s, want 200 {}", w.Code, w.Body.String())
	}

	lib.deleteFn = func(ctx context.Context, owner, id int64) error { return errors.New("db down") }

	if w := doJSON(r, http.MethodDelete, "/films/42", ""); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("got status %d, want 503", w.Code)
	}
}

func TestFilmsHandler_NoActor(t *testing.T) {
	lib := &fakeLibrary{}
	r := gin.New()
	r.GET("/films", handlers.NewFilmsHandler(lib).ListFilms)

	w := doJSON(r, http.MethodGet, "/films", "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("got status %d, want 401", w.Code)
	}
	if lib.calls != 0 {
		t.Fatalf("library must not be called")
	}
}

func TestCreateFilmHandler_TypeErrorKeepsOtherFieldErrors(t *testing.T) {
	lib := &fakeLibrary{}
	r := setupRouter(http.MethodPost, "/films", handlers.NewFilmsHandler(lib).CreateFilm)

	w := doJSON(r, http.MethodPost, "/films", `{"title":"","favorite":"yes","rating":9}`)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("got status %d, want 422, body=%s", w.Code, w.Body.String())
	}

	msg := errorMessage(t, w)

	for _, want := range []string{
		"body[favorite]: must be of type boolean",
		"body[title]: is required",
		"body[rating]: must be at most 5",
	} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message %q does not contain %q", msg, want)
		}
	}

	// favorite stays nil after its type error; it must not be reported twice
	if strings.Contains(msg, "body[favorite]: is required") {
		t.Fatalf("favorite reported twice: %q", msg)
	}

	if lib.calls != 0 {
		t.Fatalf("library must not be called")
	}
}
