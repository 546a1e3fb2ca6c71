package http

import (
	"context"
)

type contextKey string

const (
	requestIDContextKey contextKey = "delegated_request_id"
	ownerIDContextKey   contextKey = "owner_id"
)

// ContextWithDelegatedRequestID injects the delegated request identifier
// resolved from the request path.
func ContextWithDelegatedRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDContextKey, id)
}

// DelegatedRequestIDFromContext extracts a delegated request identifier
// previously associated with the context.
func DelegatedRequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDContextKey).(string)
	return id, ok
}

// ContextWithOwnerID injects the owner identifier resolved from the request path.
func ContextWithOwnerID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ownerIDContextKey, id)
}

// OwnerIDFromContext extracts an owner identifier previously associated with the context.
func OwnerIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ownerIDContextKey).(string)
	return id, ok
}
