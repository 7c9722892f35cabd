package store

import (
	"context"
	"errors"

	"azadi/internal/content/models"
	"azadi/internal/docstore"
)

// Repositories bundles one Collection per content type over a shared client.
type Repositories struct {
	Donations *Collection[models.Donation]
	Expenses  *Collection[models.Expense]
	Leaders   *Collection[models.Leader]
	Members   *Collection[models.Member]
	Events    *Collection[models.Event]
	Gallery   *Collection[models.GalleryItem]
}

func NewRepositories(client docstore.Client, opts ...Option) *Repositories {
	return &Repositories{
		Donations: NewCollection(client, models.CollectionDonations, SeedDonations, opts...),
		Expenses:  NewCollection(client, models.CollectionExpenses, SeedExpenses, opts...),
		Leaders:   NewCollection(client, models.CollectionLeaders, SeedLeaders, opts...),
		Members:   NewCollection(client, models.CollectionMembers, SeedMembers, opts...),
		Events:    NewCollection(client, models.CollectionEvents, SeedEvents, opts...),
		Gallery:   NewCollection(client, models.CollectionGallery, SeedGallery, opts...),
	}
}

type seeder interface {
	EnsureSeeded(ctx context.Context) (bool, error)
}

// EnsureSeeded seeds every collection that is confirmed absent.
func (r *Repositories) EnsureSeeded(ctx context.Context) error {
	var errs []error
	for _, s := range []seeder{r.Donations, r.Expenses, r.Leaders, r.Members, r.Events, r.Gallery} {
		if _, err := s.EnsureSeeded(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
