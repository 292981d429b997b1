// Package session keeps server-side login sessions. A session is looked up
// by the id carried in the signed cookie.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/filmlib/internal/domain/user"
	"github.com/google/uuid"
)

var ErrNotFound = errors.New("session not found")

type Session struct {
	ID        string       `json:"id"`
	Profile   user.Profile `json:"profile"`
	CreatedAt time.Time    `json:"createdAt"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

// Store is implemented by MemoryStore and RedisStore.
type Store interface {
	Save(ctx context.Context, s Session) error
	Get(ctx context.Context, id string) (Session, error)
	Delete(ctx context.Context, id string) error
}

func New(profile user.Profile, ttl time.Duration) Session {
	now := time.Now().UTC()

	return Session{
		ID:        uuid.NewString(),
		Profile:   profile,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
