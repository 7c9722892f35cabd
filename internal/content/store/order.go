package store

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"azadi/internal/content/models"
	dErrors "azadi/pkg/domain-errors"
)

// SortByOrder sorts ascending by sort order, breaking ties by id. Ties keep
// creation order only for generated (UUIDv7) ids; seed and legacy ids
// compare lexically.
func SortByOrder[T models.Ordered](items []T) {
	slices.SortStableFunc(items, func(a, b T) int {
		if c := cmp.Compare(a.SortOrder(), b.SortOrder()); c != 0 {
			return c
		}
		return strings.Compare(a.RecordID(), b.RecordID())
	})
}

// ListOrdered lists the collection in display order.
func ListOrdered[T models.Ordered](ctx context.Context, c *Collection[T]) ([]T, error) {
	items, err := c.List(ctx)
	SortByOrder(items)
	return items, err
}

// NextOrder returns the sort order for a record appended at the end.
func NextOrder[T models.Ordered](items []T) int {
	highest := 0
	for _, it := range items {
		highest = max(highest, it.SortOrder())
	}
	return highest + 1
}

type orderable[T any] interface {
	*T
	SetSortOrder(int)
}

// Reorder assigns order = position+1 to the records named by ids and writes
// them back. ids must name each stored record exactly once.
func Reorder[T models.Ordered, P orderable[T]](ctx context.Context, c *Collection[T], ids []string) error {
	current, err := c.List(ctx)
	if err != nil {
		return err
	}
	byID := make(map[string]T, len(current))
	for _, rec := range current {
		byID[rec.RecordID()] = rec
	}
	if len(ids) != len(byID) {
		return dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("reorder must list all %d %s, got %d", len(byID), c.name, len(ids)))
	}

	seen := make(map[string]bool, len(ids))
	updated := make([]T, 0, len(ids))
	for i, id := range ids {
		rec, ok := byID[id]
		if !ok || seen[id] {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("reorder: unknown or repeated id %q", id))
		}
		seen[id] = true
		P(&rec).SetSortOrder(i + 1)
		updated = append(updated, rec)
	}
	return c.SaveAll(ctx, updated)
}
