// Package service holds the content operations that need more than a
// repository call: the donation lifecycle and the admin dashboard.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"azadi/internal/content/models"
)

// Lister is the read side of a collection.
type Lister[T any] interface {
	List(ctx context.Context) ([]T, error)
}

type DonationStore interface {
	Lister[models.Donation]
	Save(ctx context.Context, d models.Donation) error
	Patch(ctx context.Context, id string, fields map[string]any) error
	Remove(ctx context.Context, id string) error
}

const dateLayout = "2006-01-02"

// NewID returns a time-ordered record id.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// parseDate accepts the stored YYYY-MM-DD form and full RFC 3339 stamps.
func parseDate(s string) (time.Time, bool) {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	return time.Time{}, false
}
