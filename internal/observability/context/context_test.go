package context

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := WithRequestID(context.Background(), " req-1 ")
	assert.Equal(t, "req-1", RequestIDFromContext(ctx))
	assert.Equal(t, "", RequestIDFromContext(context.Background()))
}

func TestActorNormalized(t *testing.T) {
	ctx := WithActor(context.Background(), Actor{ID: " a1 ", Role: " Admin "})
	actor, ok := ActorFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, Actor{ID: "a1", Role: "admin"}, actor)

	_, ok = ActorFromContext(context.Background())
	assert.False(t, ok)
}
