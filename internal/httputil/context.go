package httputil

import "context"

// actorKey is a context key type for storing the caller identity.
type actorKey struct{}

// requestIDKey is a context key type for storing the request id.
type requestIDKey struct{}

// WithActor stores the caller identity in the context.
// This is typically called by the actor middleware after reading X-Actor-Id.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// GetActor retrieves the caller identity from the context.
// Returns (actor, true) if present, or ("", false) if no actor was set.
func GetActor(ctx context.Context) (string, bool) {
	actor, ok := ctx.Value(actorKey{}).(string)
	return actor, ok
}

// WithRequestID stores the request id in the context so use cases can
// propagate it into audit entries.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// GetRequestID retrieves the request id from the context. Returns an empty
// string when none was set, callers treat it as optional.
func GetRequestID(ctx context.Context) string {
	requestID, _ := ctx.Value(requestIDKey{}).(string)
	return requestID
}
