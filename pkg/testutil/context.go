package testutil

import (
	"net/http"
	"time"

	"azadi/pkg/requestcontext"
)

// WithAdmin marks the request as made by an authenticated admin, as the
// auth middleware would.
func WithAdmin(req *http.Request, username string) *http.Request {
	return req.WithContext(requestcontext.WithAdminUser(req.Context(), username))
}

// WithRequestTime pins the request-scoped clock.
func WithRequestTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}
