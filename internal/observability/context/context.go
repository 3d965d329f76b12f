package context

import (
	"context"
	"strings"
)

type requestIDKey struct{}

type actorKey struct{}

// Actor identifies the caller as asserted by the upstream auth gateway.
type Actor struct {
	ID   string
	Role string
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, strings.TrimSpace(requestID))
}

func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(requestIDKey{}).(string)
	return value
}

func WithActor(ctx context.Context, actor Actor) context.Context {
	actor.ID = strings.TrimSpace(actor.ID)
	actor.Role = strings.ToLower(strings.TrimSpace(actor.Role))
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the actor, ok is false when none was attached.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	if ctx == nil {
		return Actor{}, false
	}
	actor, ok := ctx.Value(actorKey{}).(Actor)
	return actor, ok
}
