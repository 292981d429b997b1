package middlewares

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/geocoder89/filmlib/internal/actorctx"
	"github.com/geocoder89/filmlib/internal/auth"
	"github.com/geocoder89/filmlib/internal/domain/user"
	"github.com/geocoder89/filmlib/internal/http/handlers"
	"github.com/gin-gonic/gin"
)

// Keep this small interface so tests can fake it easily.
type SessionResolver interface {
	Current(ctx context.Context, token string) (user.Profile, error)
}

type SessionAuth struct {
	sessions   SessionResolver
	cookieName string
}

func NewSessionAuth(sessions SessionResolver, cookieName string) *SessionAuth {
	return &SessionAuth{sessions: sessions, cookieName: cookieName}
}

// RequireSession stops anonymous requests with 401 before any handler runs
// and puts the caller on the request context for the ones that pass.
func (m *SessionAuth) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie(m.cookieName)

		profile, err := m.sessions.Current(c.Request.Context(), token)

		if err != nil {
			if errors.Is(err, auth.ErrUnauthenticated) {
				handlers.AbortWithError(c, http.StatusUnauthorized, handlers.MsgNotAuthorized)
				return
			}

			slog.Default().ErrorContext(c.Request.Context(), "session lookup failed", "err", err)
			handlers.AbortWithError(c, http.StatusServiceUnavailable, "Could not load session")
			return
		}

		c.Request = c.Request.WithContext(actorctx.WithActor(c.Request.Context(), profile))
		c.Set(CtxUserID, profile.ID)

		c.Next()
	}
}

// UserIDFromContext reads the id stashed by RequireSession.
func UserIDFromContext(c *gin.Context) (int64, bool) {
	v, ok := c.Get(CtxUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok && id != 0
}
