package docstore

import (
	"errors"
	"fmt"
	"net/http"

	"azadi/pkg/platform/sentinel"
)

var (
	// ErrShape means a node decoded to a shape the caller cannot use.
	ErrShape = errors.New("docstore: unexpected value shape")
	// ErrInvalidPath rejects empty segments and characters the store reserves.
	ErrInvalidPath = errors.New("docstore: invalid path")
	// ErrCircuitOpen is returned without a network call while the breaker is open.
	ErrCircuitOpen = errors.New("docstore: circuit open")
	// ErrResponseTooLarge means a response body exceeded the configured cap.
	ErrResponseTooLarge = errors.New("docstore: response too large")
)

type Op string

const (
	OpFetch  Op = "fetch"
	OpPut    Op = "put"
	OpPatch  Op = "patch"
	OpDelete Op = "delete"
)

// TransportError reports that a call to the backing store failed: network
// errors, timeouts, non-2xx responses or driver errors. It matches
// sentinel.ErrUnavailable under errors.Is.
type TransportError struct {
	Op     Op
	Path   string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("docstore %s %q: status %d: %v", e.Op, e.Path, e.Status, e.Err)
	}
	return fmt.Sprintf("docstore %s %q: %v", e.Op, e.Path, e.Err)
}

func (e *TransportError) Unwrap() []error {
	return []error{sentinel.ErrUnavailable, e.Err}
}

// Retryable reports whether repeating the call could succeed. Client errors
// other than 408 and 429 are permanent.
func (e *TransportError) Retryable() bool {
	if errors.Is(e.Err, ErrCircuitOpen) {
		return false
	}
	switch {
	case e.Status == 0:
		return true
	case e.Status == http.StatusRequestTimeout, e.Status == http.StatusTooManyRequests:
		return true
	default:
		return e.Status >= 500
	}
}

// IsRetryable is the retry predicate for store calls.
func IsRetryable(err error) bool {
	var te *TransportError
	if errors.As(err, &te) {
		return te.Retryable()
	}
	return false
}

func transportErr(op Op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &TransportError{Op: op, Path: path, Err: err}
}
