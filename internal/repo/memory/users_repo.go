package memory

import (
	"context"
	"sync"
	"time"

	"github.com/geocoder89/filmlib/internal/domain/user"
)

type UsersRepo struct {
	mu         sync.RWMutex
	nextID     int64
	byUsername map[string]user.User
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{
		byUsername: make(map[string]user.User),
	}
}

func (r *UsersRepo) GetByUsername(_ context.Context, username string) (user.User, error) {
	r.mu.RLock()
	u, ok := r.byUsername[username]
	r.mu.RUnlock()

	if !ok {
		return user.User{}, user.ErrNotFound
	}

	return u, nil
}

func (r *UsersRepo) Create(_ context.Context, username, passwordHash, name string) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byUsername[username]; exists {
		return user.User{}, user.ErrUsernameTaken
	}

	r.nextID++

	u := user.User{
		ID:           r.nextID,
		Username:     username,
		PasswordHash: passwordHash,
		Name:         name,
		CreatedAt:    time.Now().UTC(),
	}

	r.byUsername[username] = u

	return u, nil
}
