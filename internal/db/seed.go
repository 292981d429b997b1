package db

import (
	"context"
	"errors"
	"log/slog"

	"github.com/geocoder89/filmlib/internal/config"
	"github.com/geocoder89/filmlib/internal/domain/user"
	"github.com/geocoder89/filmlib/internal/security"
)

type UserSeeder interface {
	GetByUsername(ctx context.Context, username string) (user.User, error)
	Create(ctx context.Context, username, passwordHash, name string) (user.User, error)
}

// EnsureUsers creates every seed account that does not exist yet. Existing
// accounts are left untouched.
func EnsureUsers(ctx context.Context, users UserSeeder, seeds []config.SeedUser, log *slog.Logger) error {
	for _, s := range seeds {
		_, err := users.GetByUsername(ctx, s.Username)

		if err == nil {
			continue
		}

		if !errors.Is(err, user.ErrNotFound) {
			return err
		}

		hash, err := security.HashPassword(s.Password)

		if err != nil {
			return err
		}

		u, err := users.Create(ctx, s.Username, hash, s.Name)

		if err != nil && !errors.Is(err, user.ErrUsernameTaken) {
			return err
		}

		if err == nil && log != nil {
			log.Info("seeded user", "user_id", u.ID, "username", u.Username)
		}
	}

	return nil
}
