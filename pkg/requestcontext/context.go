// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values. Middleware sets them; services read them without
// importing net/http.
package requestcontext

import (
	"context"
	"time"

	id "bidhall/pkg/domain"
)

type (
	userIDKey      struct{}
	userEmailKey   struct{}
	userNameKey    struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// Identity is the authenticated caller as supplied by the auth collaborator.
// The core never authenticates credentials itself.
type Identity struct {
	UserID      id.UserID
	Email       string
	DisplayName string
}

// WithIdentity injects the authenticated identity into the context.
func WithIdentity(ctx context.Context, ident Identity) context.Context {
	ctx = context.WithValue(ctx, userIDKey{}, ident.UserID)
	ctx = context.WithValue(ctx, userEmailKey{}, ident.Email)
	ctx = context.WithValue(ctx, userNameKey{}, ident.DisplayName)
	return ctx
}

// UserID retrieves the authenticated user ID, or the zero value if unset.
func UserID(ctx context.Context) id.UserID {
	if v, ok := ctx.Value(userIDKey{}).(id.UserID); ok {
		return v
	}
	return id.UserID{}
}

// UserEmail retrieves the authenticated user's email address.
func UserEmail(ctx context.Context) string {
	if v, ok := ctx.Value(userEmailKey{}).(string); ok {
		return v
	}
	return ""
}

// UserDisplayName retrieves the authenticated user's display name.
func UserDisplayName(ctx context.Context) string {
	if v, ok := ctx.Value(userNameKey{}).(string); ok {
		return v
	}
	return ""
}

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey{}).(string); ok {
		return v
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// Now retrieves the request-scoped time from context, falling back to
// time.Now for non-HTTP contexts (workers, tests that don't pin the clock).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime pins the request-scoped clock. Tests use this to make end-date
// and expiry checks deterministic.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}
