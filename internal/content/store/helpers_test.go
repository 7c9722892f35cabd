package store

import (
	"context"
	"net/http"
	"sync"
	"time"

	"azadi/internal/docstore"
	"azadi/pkg/platform/retry"
)

var fastRetry = retry.Config{MaxRetries: 2, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, BackoffMultiplier: 1}

// flakyClient wraps a MemoryClient and injects transport failures.
type flakyClient struct {
	*docstore.MemoryClient

	mu        sync.Mutex
	fetchErr  error
	transient map[string]int
	permanent map[string]bool
	puts      int
}

func newFlakyClient() *flakyClient {
	return &flakyClient{
		MemoryClient: docstore.NewMemoryClient(),
		transient:    map[string]int{},
		permanent:    map[string]bool{},
	}
}

func (f *flakyClient) Fetch(ctx context.Context, path string) (docstore.Value, error) {
	f.mu.Lock()
	err := f.fetchErr
	f.mu.Unlock()
	if err != nil {
		return docstore.Value{}, err
	}
	return f.MemoryClient.Fetch(ctx, path)
}

func (f *flakyClient) Put(ctx context.Context, path string, value any) error {
	f.mu.Lock()
	f.puts++
	if f.permanent[path] {
		f.mu.Unlock()
		return &docstore.TransportError{Op: docstore.OpPut, Path: path, Status: http.StatusForbidden, Err: errDenied}
	}
	if f.transient[path] > 0 {
		f.transient[path]--
		f.mu.Unlock()
		return &docstore.TransportError{Op: docstore.OpPut, Path: path, Status: http.StatusServiceUnavailable, Err: errDenied}
	}
	f.mu.Unlock()
	return f.MemoryClient.Put(ctx, path, value)
}

func (f *flakyClient) putCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.puts
}

type stringErr string

func (e stringErr) Error() string { return string(e) }

const errDenied = stringErr("denied")

func unavailable() error {
	return &docstore.TransportError{Op: docstore.OpFetch, Path: "x", Err: stringErr("connection refused")}
}
