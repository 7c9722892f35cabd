package automation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"azadi/internal/automation/broadcast"
	"azadi/internal/content/models"
)

type content[T any] interface {
	*T
	Images() []models.ImageRef
	LocalizedFields() []models.LocalizedField
}

// inspect lists a collection and returns its image references. Leaders'
// gaps are counted by the backfill, so countGaps is false for them.
func inspect[T any, P content[T]](ctx context.Context, sc *scan, name models.Collection, l Lister[T], countGaps bool) ([]models.ImageRef, error) {
	items, err := l.List(ctx)
	if !sc.observe(string(name), err) {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	var refs []models.ImageRef
	gaps := 0
	for i := range items {
		p := P(&items[i])
		refs = append(refs, p.Images()...)
		if countGaps {
			gaps += models.CountGaps(p.LocalizedFields())
		}
	}
	sc.add(0, 0, gaps)
	return refs, nil
}

func (e *Engine) scanImages(ctx context.Context, sc *scan) error {
	var (
		mu   sync.Mutex
		refs []models.ImageRef
		errs []error
	)
	collect := func(found []models.ImageRef, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			errs = append(errs, err)
			return
		}
		refs = append(refs, found...)
	}

	var reads errgroup.Group
	reads.Go(func() error {
		collect(inspect[models.Leader](ctx, sc, models.CollectionLeaders, e.src.Leaders, false))
		return nil
	})
	reads.Go(func() error {
		collect(inspect[models.Member](ctx, sc, models.CollectionMembers, e.src.Members, true))
		return nil
	})
	reads.Go(func() error {
		collect(inspect[models.GalleryItem](ctx, sc, models.CollectionGallery, e.src.Gallery, true))
		return nil
	})
	reads.Go(func() error {
		collect(inspect[models.Event](ctx, sc, models.CollectionEvents, e.src.Events, true))
		return nil
	})
	_ = reads.Wait()

	var broken atomic.Int64
	var probes errgroup.Group
	probes.SetLimit(e.cfg.ProbeConcurrency)
	for _, ref := range refs {
		if strings.TrimSpace(ref.URL) == "" {
			continue
		}
		probes.Go(func() error {
			pctx, cancel := context.WithTimeout(ctx, e.cfg.ProbeTimeout)
			defer cancel()
			if err := protect(func() error { return e.prober.Probe(pctx, ref.URL) }); err != nil {
				broken.Add(1)
				e.logger.DebugContext(ctx, "image probe failed", "context", ref.Context, "error", err)
				e.emit(ctx, TaskImageScan, broadcast.StatusWarning, "Broken image detected in "+ref.Context)
			}
			return nil
		})
	}
	_ = probes.Wait()

	n := int(broken.Load())
	sc.add(n, 0, 0)
	if n == 0 {
		e.emit(ctx, TaskImageScan, broadcast.StatusSuccess, "All images are valid and loadable.")
	} else {
		e.emit(ctx, TaskImageScan, broadcast.StatusError, fmt.Sprintf("Found %d broken images.", n))
	}
	return errors.Join(errs...)
}

// backfillTranslations fills one-sided leader fields and saves each changed
// leader. A degraded read aborts before any write.
func (e *Engine) backfillTranslations(ctx context.Context, sc *scan) error {
	leaders, err := e.src.Leaders.List(ctx)
	if !sc.observe(string(models.CollectionLeaders), err) {
		return fmt.Errorf("read %s: %w", models.CollectionLeaders, err)
	}

	var (
		fixed   atomic.Int64
		missing atomic.Int64
		mu      sync.Mutex
		errs    []error
	)
	var g errgroup.Group
	g.SetLimit(e.cfg.ProbeConcurrency)
	for _, leader := range leaders {
		g.Go(func() error {
			var changed, remaining int
			err := protect(func() error {
				changed = e.fillGaps(ctx, leader.LocalizedFields())
				remaining = models.CountGaps(leader.LocalizedFields())
				if changed == 0 {
					return nil
				}
				return e.src.Leaders.Save(ctx, leader)
			})
			if err != nil {
				missing.Add(int64(remaining + changed))
				mu.Lock()
				errs = append(errs, fmt.Errorf("leader %s: %w", leader.ID, err))
				mu.Unlock()
				return nil
			}
			missing.Add(int64(remaining))
			if changed > 0 {
				fixed.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	n := int(fixed.Load())
	sc.add(0, n, int(missing.Load()))
	e.metrics.AddProfilesFixed(n)
	if n > 0 {
		e.emit(ctx, TaskDataIntegrity, broadcast.StatusSuccess, fmt.Sprintf("Auto-translated/Fixed %d profiles.", n))
	} else {
		e.emit(ctx, TaskDataIntegrity, broadcast.StatusSuccess, "All data fields appear consistent.")
	}
	return errors.Join(errs...)
}

// fillGaps translates every one-sided field in place and returns how many
// it filled. Empty results and results equal to the source are discarded.
func (e *Engine) fillGaps(ctx context.Context, fields []models.LocalizedField) int {
	n := 0
	for _, f := range fields {
		if f.Text == nil {
			continue
		}
		missing, source, ok := f.Text.Gap()
		if !ok {
			continue
		}
		text := strings.TrimSpace(f.Text.Get(source))
		out := strings.TrimSpace(e.translator.Translate(ctx, text, missing))
		if out == "" || out == text {
			continue
		}
		f.Text.Set(missing, out)
		n++
	}
	return n
}

func measure[T any](ctx context.Context, sc *scan, name string, l Lister[T]) (int, error) {
	items, err := l.List(ctx)
	if !sc.observe(name, err) {
		return 0, fmt.Errorf("read %s: %w", name, err)
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return 0, fmt.Errorf("encode %s: %w", name, err)
	}
	return len(raw), nil
}

func (e *Engine) estimateStorage(ctx context.Context, sc *scan) error {
	measures := []func() (int, error){
		func() (int, error) {
			return measure[models.Leader](ctx, sc, string(models.CollectionLeaders), e.src.Leaders)
		},
		func() (int, error) {
			return measure[models.Member](ctx, sc, string(models.CollectionMembers), e.src.Members)
		},
		func() (int, error) {
			return measure[models.Event](ctx, sc, string(models.CollectionEvents), e.src.Events)
		},
		func() (int, error) {
			return measure[models.GalleryItem](ctx, sc, string(models.CollectionGallery), e.src.Gallery)
		},
		func() (int, error) {
			return measure[models.Donation](ctx, sc, string(models.CollectionDonations), e.src.Donations)
		},
		func() (int, error) {
			return measure[models.Expense](ctx, sc, string(models.CollectionExpenses), e.src.Expenses)
		},
		func() (int, error) {
			settings, err := e.src.Settings.Get(ctx)
			if !sc.observe(models.SettingsPath, err) {
				return 0, fmt.Errorf("read %s: %w", models.SettingsPath, err)
			}
			raw, err := json.Marshal(settings)
			return len(raw), err
		},
	}

	sizes := make([]int, len(measures))
	errs := make([]error, len(measures))
	var g errgroup.Group
	for i, fn := range measures {
		g.Go(func() error {
			sizes[i], errs[i] = fn()
			return nil
		})
	}
	_ = g.Wait()

	total := 0
	for _, n := range sizes {
		total += n
	}
	sc.setDataBytes(total)

	usage := e.usage(total + e.log.Size())
	if usage > e.cfg.WarnPercent {
		e.emit(ctx, TaskStorage, broadcast.StatusWarning, fmt.Sprintf("Storage is %.1f%% full. Recommend clearing old logs.", usage))
	} else {
		e.emit(ctx, TaskStorage, broadcast.StatusSuccess, fmt.Sprintf("Storage usage is healthy (%.1f%%).", usage))
	}
	return errors.Join(errs...)
}

func (e *Engine) usage(bytes int) float64 {
	return float64(bytes) / float64(e.cfg.QuotaBytes) * 100
}
