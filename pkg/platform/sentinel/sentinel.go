package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and drivers return these
// (optionally wrapped) so services can translate them into domain errors.
//
//   - ErrNotFound: record does not exist in its collection
//   - ErrConflict: a concurrent writer got there first
//   - ErrInvalidState: record is in the wrong state for the operation
//   - ErrUnavailable: the document store or a remote service cannot be reached
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
