// Package docstore talks to the hierarchical JSON document store that holds
// every collection. Paths are slash separated; a node is a map, a list, a
// scalar, or absent.
package docstore

import (
	"context"
	"fmt"
	"strings"
)

type Driver string

const (
	DriverHTTP     Driver = "http"
	DriverMemory   Driver = "memory"
	DriverRedis    Driver = "redis"
	DriverPostgres Driver = "postgres"
)

// Client is the store contract every driver implements.
//
// Fetch returns Absent for a path that holds nothing. Put replaces the node
// at path; a nil value deletes it. Patch merges top-level fields into the
// node, deleting fields whose value is nil.
type Client interface {
	Fetch(ctx context.Context, path string) (Value, error)
	Put(ctx context.Context, path string, value any) error
	Patch(ctx context.Context, path string, fields map[string]any) error
	Delete(ctx context.Context, path string) error
	Driver() Driver
}

const reservedChars = ".#$[]*?\\"

// CleanPath trims surrounding slashes and validates each segment.
func CleanPath(path string) (string, error) {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	for _, seg := range strings.Split(trimmed, "/") {
		if seg == "" {
			return "", fmt.Errorf("%w: empty segment in %q", ErrInvalidPath, path)
		}
		if strings.ContainsAny(seg, reservedChars) {
			return "", fmt.Errorf("%w: segment %q contains a reserved character", ErrInvalidPath, seg)
		}
	}
	return trimmed, nil
}

// Join builds a path from segments.
func Join(segments ...string) string {
	return strings.Join(segments, "/")
}

func splitPath(path string) []string {
	return strings.Split(path, "/")
}
