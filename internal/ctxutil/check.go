// Package ctxutil provides context utility functions.
package ctxutil

import "context"

type invocationKey struct{}

// Canceled checks if the context has been canceled or exceeded its deadline.
// Returns the context error if done (Canceled or DeadlineExceeded), nil otherwise.
// Every reconciler step calls it before touching a remote system so a cancelled
// invocation stops between steps rather than mid-request.
func Canceled(ctx context.Context) error {
	return ctx.Err()
}

// WithInvocationID returns a copy of ctx carrying the invocation id.
func WithInvocationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, invocationKey{}, id)
}

// InvocationID returns the invocation id stored in ctx, or "" when none is set.
func InvocationID(ctx context.Context) string {
	id, _ := ctx.Value(invocationKey{}).(string)
	return id
}
