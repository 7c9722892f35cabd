package store

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"azadi/internal/docstore"
	"azadi/pkg/platform/retry"
)

// SaveAll writes each record under bounded parallelism, retrying transient
// failures. Records are independent: one failure does not stop the rest,
// and every failure is reported in a *BatchError.
func (c *Collection[T]) SaveAll(ctx context.Context, records []T) error {
	if len(records) == 0 {
		return nil
	}
	v, err := c.prepare(ctx)
	if err != nil {
		return err
	}
	return c.saveAll(ctx, v, records)
}

func (c *Collection[T]) saveAll(ctx context.Context, v docstore.Value, records []T) error {

	var (
		mu     sync.Mutex
		failed = map[string]error{}
	)
	g := new(errgroup.Group)
	g.SetLimit(c.opts.parallelism)
	for _, rec := range records {
		g.Go(func() error {
			err := retry.Do(ctx, c.opts.logger, c.opts.retry, func() error {
				return c.save(ctx, v, rec)
			})
			if err != nil {
				mu.Lock()
				failed[rec.RecordID()] = err
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(failed) > 0 {
		return &BatchError{Collection: string(c.name), Total: len(records), Failed: failed}
	}
	return nil
}
