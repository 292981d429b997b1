// Package actorctx carries the authenticated user on a request context.
package actorctx

import (
	"context"

	"github.com/geocoder89/filmlib/internal/domain/user"
)

type ctxKey struct{}

func WithActor(ctx context.Context, actor user.Profile) context.Context {
	return context.WithValue(ctx, ctxKey{}, actor)
}

// ActorFrom reports false for anonymous requests.
func ActorFrom(ctx context.Context) (user.Profile, bool) {
	v, ok := ctx.Value(ctxKey{}).(user.Profile)

	return v, ok && v.ID != 0
}
