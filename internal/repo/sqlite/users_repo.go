package sqlite

import (
	"context"
	"errors"

	"github.com/geocoder89/filmlib/internal/domain/user"
	"github.com/geocoder89/filmlib/internal/observability"
	"gorm.io/gorm"
)

type UsersRepo struct {
	db   *gorm.DB
	prom *observability.Prom
}

func NewUsersRepo(db *gorm.DB, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{db: db, prom: prom}
}

func (r *UsersRepo) GetByUsername(ctx context.Context, username string) (user.User, error) {
	var row userRow

	err := r.prom.ObserveDB("users.get_by_username", func() error {
		return r.db.WithContext(ctx).Where(map[string]any{"username": username}).First(&row).Error
	})

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}

	return row.toUser(), nil
}

func (r *UsersRepo) Create(ctx context.Context, username, passwordHash, name string) (user.User, error) {
	row := userRow{Username: username, PasswordHash: passwordHash, Name: name}

	err := r.prom.ObserveDB("users.create", func() error {
		return r.db.WithContext(ctx).Create(&row).Error
	})

	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return user.User{}, user.ErrUsernameTaken
		}
		return user.User{}, err
	}

	return row.toUser(), nil
}

func (row userRow) toUser() user.User {
	return user.User{
		ID:           row.ID,
		Username:     row.Username,
		PasswordHash: row.PasswordHash,
		Name:         row.Name,
		CreatedAt:    row.CreatedAt,
	}
}
