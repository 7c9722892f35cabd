// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values set by middleware and read by services.
package requestcontext

import (
	"context"
	"time"
)

type (
	requestIDKey   struct{}
	adminUserKey   struct{}
	clientIPKey    struct{}
	requestTimeKey struct{}
)

func RequestID(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey{}).(string)
	return v
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// AdminUser is the authenticated administrator, or "" on public routes.
func AdminUser(ctx context.Context) string {
	v, _ := ctx.Value(adminUserKey{}).(string)
	return v
}

func WithAdminUser(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, adminUserKey{}, username)
}

func ClientIP(ctx context.Context) string {
	v, _ := ctx.Value(clientIPKey{}).(string)
	return v
}

func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey{}, ip)
}

// Now returns the request-scoped time, or time.Now when none was set.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}
