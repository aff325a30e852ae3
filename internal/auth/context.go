package auth

import "context"

type contextKey string

const actorContextKey = contextKey("actor")

// WithActor stores the authenticated user id in ctx.
func WithActor(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, actorContextKey, userID)
}

// ActorFromContext returns the authenticated user id, if any.
func ActorFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(actorContextKey).(string)
	return id, ok && id != ""
}
