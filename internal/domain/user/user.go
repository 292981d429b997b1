package user

import (
	"errors"
	"time"
)

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // never expose hash in JSON
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"createdAt"`
}

var ErrNotFound = errors.New("user not found")

var ErrUsernameTaken = errors.New("username already exists")

// Profile is the public view of a user returned by the session endpoints.
type Profile struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

func (u User) Profile() Profile {
	return Profile{ID: u.ID, Username: u.Username, Name: u.Name}
}
