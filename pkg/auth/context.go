package auth

import "context"

type actorKey struct{}

// WithActor returns a copy of ctx carrying the acting user's name.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// Actor returns the acting user's name, or "" if none is set.
func Actor(ctx context.Context) string {
	actor, _ := ctx.Value(actorKey{}).(string)
	return actor
}
