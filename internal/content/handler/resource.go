package handler

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"

	"azadi/internal/content/models"
	"azadi/internal/content/service"
	"azadi/internal/content/store"
	dErrors "azadi/pkg/domain-errors"
	"azadi/pkg/platform/httputil"
)

// resource adapts one typed collection to the untyped admin routes.
type resource interface {
	list(ctx context.Context) (any, error)
	get(ctx context.Context, id string) (any, error)
	create(ctx context.Context, r *http.Request) (any, error)
	save(ctx context.Context, id string, r *http.Request) (any, error)
	remove(ctx context.Context, id string) error
	writable() bool
}

type recordPtr[T any] interface {
	*T
	SetRecordID(id string)
}

type collectionResource[T models.Record, P recordPtr[T]] struct {
	coll     *store.Collection[T]
	validate *validator.Validate
	readOnly bool
	// sort orders list results for display.
	sort func([]T)
	// onCreate fills server-assigned fields of a new record.
	onCreate func(ctx context.Context, rec P) error
}

func (c *collectionResource[T, P]) writable() bool { return !c.readOnly }

func (c *collectionResource[T, P]) list(ctx context.Context) (any, error) {
	items, err := c.coll.List(ctx)
	if c.sort != nil {
		c.sort(items)
	}
	return items, err
}

func (c *collectionResource[T, P]) get(ctx context.Context, id string) (any, error) {
	return c.coll.Get(ctx, id)
}

func (c *collectionResource[T, P]) create(ctx context.Context, r *http.Request) (any, error) {
	var rec T
	if err := httputil.DecodeJSON(r, &rec); err != nil {
		return nil, err
	}
	P(&rec).SetRecordID(service.NewID())
	if c.onCreate != nil {
		if err := c.onCreate(ctx, P(&rec)); err != nil {
			return nil, err
		}
	}
	return c.store(ctx, rec)
}

func (c *collectionResource[T, P]) save(ctx context.Context, id string, r *http.Request) (any, error) {
	var rec T
	if err := httputil.DecodeJSON(r, &rec); err != nil {
		return nil, err
	}
	if bodyID := rec.RecordID(); bodyID != "" && bodyID != id {
		return nil, dErrors.New(dErrors.CodeValidation, "id in body does not match path")
	}
	P(&rec).SetRecordID(id)
	return c.store(ctx, rec)
}

func (c *collectionResource[T, P]) store(ctx context.Context, rec T) (any, error) {
	if err := c.validate.StructCtx(ctx, rec); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, validationMessage(err))
	}
	if err := c.coll.Save(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (c *collectionResource[T, P]) remove(ctx context.Context, id string) error {
	return c.coll.Remove(ctx, id)
}

// appendOrder puts a new record without an explicit order at the end.
func appendOrder[T models.Ordered, P interface {
	*T
	SetSortOrder(int)
}](coll *store.Collection[T]) func(context.Context, P) error {
	return func(ctx context.Context, rec P) error {
		if (*rec).SortOrder() > 0 {
			return nil
		}
		items, err := coll.List(ctx)
		if err != nil {
			return err
		}
		rec.SetSortOrder(store.NextOrder(items))
		return nil
	}
}
