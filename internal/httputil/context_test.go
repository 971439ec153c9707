package httputil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestActorContext(t *testing.T) {
	ctx := context.Background()

	actor, ok := GetActor(ctx)
	assert.False(t, ok, "empty context should not carry an actor")
	assert.Empty(t, actor)

	ctx = WithActor(ctx, "svc-api")
	actor, ok = GetActor(ctx)
	assert.True(t, ok)
	assert.Equal(t, "svc-api", actor)
}

func TestRequestIDContext(t *testing.T) {
	ctx := context.Background()

	assert.Empty(t, GetRequestID(ctx), "empty context should yield an empty request id")

	ctx = WithRequestID(ctx, "req-123")
	assert.Equal(t, "req-123", GetRequestID(ctx))
}
