package httpserver

import (
	"context"
	"net"
	"net/http"
	"time"
)

// New builds an HTTP server with sane defaults for this project. Request
// contexts derive from base, so cancelling base ends long-lived streams
// during shutdown. WriteTimeout stays unset for the same streams.
func New(base context.Context, addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       2 * time.Minute,
		BaseContext:       func(net.Listener) context.Context { return base },
	}
}
