package store

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrDegraded marks a read that fell back to seed data because the store
// could not be reached. The seed is returned alongside it.
var ErrDegraded = errors.New("collection read degraded")

// ErrMissingID rejects writes of a record without an id.
var ErrMissingID = errors.New("record id is required")

type DegradedError struct {
	Collection string
	Err        error
}

func (e *DegradedError) Error() string {
	return fmt.Sprintf("read %s: serving seed data: %v", e.Collection, e.Err)
}

func (e *DegradedError) Unwrap() []error {
	return []error{ErrDegraded, e.Err}
}

// BatchError aggregates the per-record failures of a batch write.
type BatchError struct {
	Collection string
	Total      int
	Failed     map[string]error
}

func (e *BatchError) Error() string {
	ids := make([]string, 0, len(e.Failed))
	for id := range e.Failed {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%s: %v", id, e.Failed[id])
	}
	return fmt.Sprintf("%s: %d of %d writes failed: %s", e.Collection, len(e.Failed), e.Total, strings.Join(parts, "; "))
}

func (e *BatchError) Unwrap() []error {
	out := make([]error, 0, len(e.Failed))
	for _, err := range e.Failed {
		out = append(out, err)
	}
	return out
}
