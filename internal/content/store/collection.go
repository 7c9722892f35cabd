// Package store maps content collections onto document store paths. Every
// read re-fetches; nothing is cached.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"azadi/internal/content/models"
	"azadi/internal/docstore"
	"azadi/pkg/platform/retry"
	"azadi/pkg/platform/sentinel"
)

const defaultParallelism = 8

// markerRoot holds one flag per seeded collection that has been written.
const markerRoot = "_meta/seeded"

type options struct {
	logger      *slog.Logger
	parallelism int
	retry       retry.Config
}

type Option func(*options)

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithParallelism bounds concurrent writes in batch operations.
func WithParallelism(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.parallelism = n
		}
	}
}

func WithRetry(cfg retry.Config) Option {
	return func(o *options) {
		o.retry = cfg
	}
}

func buildOptions(opts []Option) options {
	o := options{
		logger:      slog.Default(),
		parallelism: defaultParallelism,
		retry:       retry.Default,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.retry.Retryable == nil {
		o.retry.Retryable = docstore.IsRetryable
	}
	return o
}

// Collection is the repository for one record type stored under name/<id>.
// Collections stored as lists are read and written in place.
type Collection[T models.Record] struct {
	client docstore.Client
	name   models.Collection
	seed   func() []T
	opts   options
}

func NewCollection[T models.Record](client docstore.Client, name models.Collection, seed func() []T, opts ...Option) *Collection[T] {
	if seed == nil {
		seed = func() []T { return []T{} }
	}
	return &Collection[T]{client: client, name: name, seed: seed, opts: buildOptions(opts)}
}

func (c *Collection[T]) Name() models.Collection { return c.name }

// Seed returns a fresh copy of the collection's seed records.
func (c *Collection[T]) Seed() []T { return c.seed() }

// List returns every decodable record.
//
// A collection that was never written yields the seed; one whose last record
// was removed yields an empty list. A transport failure yields the seed and a
// *DegradedError. A node of the wrong shape yields an empty list. Entries
// that do not decode are skipped. List never writes.
func (c *Collection[T]) List(ctx context.Context) ([]T, error) {
	logger := c.opts.logger.With("collection", string(c.name))

	v, written, err := c.load(ctx)
	if err != nil {
		if errors.Is(err, docstore.ErrShape) {
			logger.WarnContext(ctx, "collection has unexpected shape, treating as empty", "error", err)
			return []T{}, nil
		}
		logger.WarnContext(ctx, "collection read failed, serving seed data", "error", err)
		return c.Seed(), &DegradedError{Collection: string(c.name), Err: err}
	}
	if v.IsAbsent() {
		if written {
			return []T{}, nil
		}
		return c.Seed(), nil
	}

	entries, err := v.Records()
	if err != nil {
		logger.WarnContext(ctx, "collection has unexpected shape, treating as empty",
			"kind", v.Kind().String(),
			"error", err,
		)
		return []T{}, nil
	}

	out := make([]T, 0, len(entries))
	for _, e := range entries {
		rec, err := c.decode(v, e)
		if err != nil {
			logger.WarnContext(ctx, "skipping malformed record", "key", e.Key, "error", err)
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (c *Collection[T]) decode(v docstore.Value, e docstore.Entry) (T, error) {
	var rec T
	if err := json.Unmarshal(e.Raw, &rec); err != nil {
		return rec, err
	}
	if rec.RecordID() == "" && v.Kind() == docstore.KindMap {
		if setter, ok := any(&rec).(interface{ SetRecordID(string) }); ok {
			setter.SetRecordID(e.Key)
		}
	}
	return rec, nil
}

// load fetches the collection node. For an absent node it also reports
// whether the collection was written before.
func (c *Collection[T]) load(ctx context.Context) (docstore.Value, bool, error) {
	v, err := c.client.Fetch(ctx, string(c.name))
	if err != nil || !v.IsAbsent() {
		return v, err == nil, err
	}
	marker, err := c.client.Fetch(ctx, c.markerPath())
	if err != nil {
		return v, false, err
	}
	return v, !marker.IsAbsent(), nil
}

// Get finds one record by id. It reads the whole collection so records
// held in list-shaped collections and unsaved seed records resolve too.
func (c *Collection[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	records, err := c.List(ctx)
	if err != nil {
		return zero, err
	}
	for _, rec := range records {
		if rec.RecordID() == id {
			return rec, nil
		}
	}
	return zero, fmt.Errorf("%s %q: %w", c.name, id, sentinel.ErrNotFound)
}

// Save writes rec, replacing any stored record with the same id. A
// collection that was never written gets its seed first.
func (c *Collection[T]) Save(ctx context.Context, rec T) error {
	if rec.RecordID() == "" {
		return ErrMissingID
	}
	v, err := c.prepare(ctx)
	if err != nil {
		return err
	}
	return c.save(ctx, v, rec)
}

func (c *Collection[T]) save(ctx context.Context, v docstore.Value, rec T) error {
	path, err := c.path(v, rec.RecordID())
	if err != nil {
		return err
	}
	return c.client.Put(ctx, path, rec)
}

// Patch merges fields into the stored record with the given id.
func (c *Collection[T]) Patch(ctx context.Context, id string, fields map[string]any) error {
	if id == "" {
		return ErrMissingID
	}
	v, err := c.prepare(ctx)
	if err != nil {
		return err
	}
	path, err := c.path(v, id)
	if err != nil {
		return err
	}
	return c.client.Patch(ctx, path, fields)
}

// Remove deletes the record with the given id. Removing a missing id
// succeeds. The collection stays marked as written, so removing its last
// record leaves it empty rather than reverting to the seed.
func (c *Collection[T]) Remove(ctx context.Context, id string) error {
	if id == "" {
		return ErrMissingID
	}
	v, err := c.prepare(ctx)
	if err != nil {
		return err
	}
	path, err := c.path(v, id)
	if err != nil {
		return err
	}
	if err := c.mark(ctx); err != nil {
		return err
	}
	return c.client.Delete(ctx, path)
}

// EnsureSeeded writes the seed only when the collection was never written.
// It reports whether anything was written.
func (c *Collection[T]) EnsureSeeded(ctx context.Context) (bool, error) {
	v, written, err := c.load(ctx)
	if err != nil {
		return false, fmt.Errorf("check %s: %w", c.name, err)
	}
	if !v.IsAbsent() || written {
		return false, nil
	}
	return c.seedAbsent(ctx)
}

// prepare returns the current collection node, seeding it first when it
// was never written. Writes never proceed on an unreadable collection.
func (c *Collection[T]) prepare(ctx context.Context) (docstore.Value, error) {
	v, written, err := c.load(ctx)
	if err != nil {
		if errors.Is(err, docstore.ErrShape) {
			return docstore.Absent(), nil
		}
		return docstore.Value{}, fmt.Errorf("read %s before write: %w", c.name, err)
	}
	if !v.IsAbsent() || written {
		return v, nil
	}
	seeded, err := c.seedAbsent(ctx)
	if err != nil || !seeded {
		return v, err
	}
	return c.client.Fetch(ctx, string(c.name))
}

func (c *Collection[T]) seedAbsent(ctx context.Context) (bool, error) {
	seed := c.Seed()
	if len(seed) == 0 {
		return false, nil
	}
	if err := c.saveAll(ctx, docstore.Absent(), seed); err != nil {
		return false, err
	}
	if err := c.mark(ctx); err != nil {
		return false, err
	}
	c.opts.logger.InfoContext(ctx, "seeded collection", "collection", string(c.name), "records", len(seed))
	return true, nil
}

// mark records that the collection has been written. Collections without
// seed data need no mark: absent and empty read the same.
func (c *Collection[T]) mark(ctx context.Context) error {
	if len(c.Seed()) == 0 {
		return nil
	}
	if err := c.client.Put(ctx, c.markerPath(), true); err != nil {
		return fmt.Errorf("mark %s written: %w", c.name, err)
	}
	return nil
}

func (c *Collection[T]) markerPath() string {
	return docstore.Join(markerRoot, string(c.name))
}

// path resolves where the record with id lives. Records inside a
// list-shaped collection are addressed by their index; anything else lives
// at name/<id>.
func (c *Collection[T]) path(v docstore.Value, id string) (string, error) {
	if id == "" {
		return "", ErrMissingID
	}
	if v.Kind() == docstore.KindList {
		entries, _ := v.Records()
		for _, e := range entries {
			if rec, err := c.decode(v, e); err == nil && rec.RecordID() == id {
				return docstore.Join(string(c.name), e.Key), nil
			}
		}
	}
	return docstore.Join(string(c.name), id), nil
}
