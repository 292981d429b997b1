package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/geocoder89/filmlib/internal/domain/user"
	"github.com/geocoder89/filmlib/internal/security"
	"github.com/geocoder89/filmlib/internal/session"
)

var (
	// ErrInvalidCredentials covers both an unknown username and a wrong password.
	ErrInvalidCredentials = errors.New("incorrect username or password")
	ErrUnauthenticated    = errors.New("not authenticated")
)

type UserReader interface {
	GetByUsername(ctx context.Context, username string) (user.User, error)
}

// Gate moves a cookie holder between anonymous and authenticated.
type Gate struct {
	users    UserReader
	sessions session.Store
	tokens   *Manager
}

func NewGate(users UserReader, sessions session.Store, tokens *Manager) *Gate {
	return &Gate{
		users:    users,
		sessions: sessions,
		tokens:   tokens,
	}
}

// Login checks the credentials and opens a session. It returns the public
// profile and the signed token to hand back as a cookie.
func (g *Gate) Login(ctx context.Context, username, password string) (user.Profile, string, time.Time, error) {
	u, err := g.users.GetByUsername(ctx, username)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			security.CheckDummy(password)
			return user.Profile{}, "", time.Time{}, ErrInvalidCredentials
		}
		return user.Profile{}, "", time.Time{}, fmt.Errorf("lookup user: %w", err)
	}

	if err := security.CheckPassword(u.PasswordHash, password); err != nil {
		return user.Profile{}, "", time.Time{}, ErrInvalidCredentials
	}

	sess := session.New(u.Profile(), g.tokens.TTL())

	if err := g.sessions.Save(ctx, sess); err != nil {
		return user.Profile{}, "", time.Time{}, fmt.Errorf("save session: %w", err)
	}

	raw, expiresAt, err := g.tokens.IssueSessionToken(sess.ID)

	if err != nil {
		_ = g.sessions.Delete(ctx, sess.ID)
		return user.Profile{}, "", time.Time{}, fmt.Errorf("sign session token: %w", err)
	}

	return sess.Profile, raw, expiresAt, nil
}

// Current resolves a token to the logged in profile.
func (g *Gate) Current(ctx context.Context, token string) (user.Profile, error) {
	if token == "" {
		return user.Profile{}, ErrUnauthenticated
	}

	sid, err := g.tokens.VerifySessionToken(token)

	if err != nil {
		return user.Profile{}, ErrUnauthenticated
	}

	sess, err := g.sessions.Get(ctx, sid)

	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return user.Profile{}, ErrUnauthenticated
		}
		return user.Profile{}, fmt.Errorf("load session: %w", err)
	}

	if sess.Expired(time.Now()) {
		_ = g.sessions.Delete(ctx, sid)
		return user.Profile{}, ErrUnauthenticated
	}

	return sess.Profile, nil
}

// Logout drops the session behind token, if any. Always succeeds.
func (g *Gate) Logout(ctx context.Context, token string) {
	if token == "" {
		return
	}

	sid, err := g.tokens.VerifySessionToken(token)

	if err != nil {
		return
	}

	_ = g.sessions.Delete(ctx, sid)
}
