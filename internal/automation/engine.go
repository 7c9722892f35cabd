// Package automation runs maintenance scans over the content collections:
// image reachability, translation backfill and a storage estimate. Progress
// is reported through a broadcast.Broadcast.
package automation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"azadi/internal/automation/broadcast"
	"azadi/internal/automation/metrics"
	"azadi/internal/content/models"
	"azadi/internal/content/store"
)

var ErrAlreadyRunning = errors.New("automation run already in progress")

const (
	TaskSystem        = "System"
	TaskImageScan     = "Image Scan"
	TaskDataIntegrity = "Data Integrity"
	TaskStorage       = "Storage"
)

// Translator fills a locale from another. Implementations return the
// input when they cannot translate.
type Translator interface {
	Translate(ctx context.Context, text string, target models.Locale) string
}

// ImageProber returns nil when ref resolves to a loadable image.
type ImageProber interface {
	Probe(ctx context.Context, ref string) error
}

type Lister[T any] interface {
	List(ctx context.Context) ([]T, error)
}

type LeaderStore interface {
	Lister[models.Leader]
	Save(ctx context.Context, leader models.Leader) error
}

type SettingsReader interface {
	Get(ctx context.Context) (models.AppSettings, error)
}

// Sources are the collections a run reads.
type Sources struct {
	Leaders   LeaderStore
	Members   Lister[models.Member]
	Events    Lister[models.Event]
	Gallery   Lister[models.GalleryItem]
	Donations Lister[models.Donation]
	Expenses  Lister[models.Expense]
	Settings  SettingsReader
}

func SourcesFrom(repos *store.Repositories, settings SettingsReader) Sources {
	return Sources{
		Leaders:   repos.Leaders,
		Members:   repos.Members,
		Events:    repos.Events,
		Gallery:   repos.Gallery,
		Donations: repos.Donations,
		Expenses:  repos.Expenses,
		Settings:  settings,
	}
}

func (s Sources) validate() error {
	switch {
	case s.Leaders == nil:
		return errors.New("leaders source is required")
	case s.Members == nil:
		return errors.New("members source is required")
	case s.Events == nil:
		return errors.New("events source is required")
	case s.Gallery == nil:
		return errors.New("gallery source is required")
	case s.Donations == nil:
		return errors.New("donations source is required")
	case s.Expenses == nil:
		return errors.New("expenses source is required")
	case s.Settings == nil:
		return errors.New("settings source is required")
	}
	return nil
}

type Config struct {
	ProbeTimeout     time.Duration
	SettleDelay      time.Duration
	ProbeConcurrency int
	// QuotaBytes is the nominal storage quota the usage estimate divides by.
	QuotaBytes  int64
	WarnPercent float64
}

func DefaultConfig() Config {
	return Config{
		ProbeTimeout:     10 * time.Second,
		SettleDelay:      time.Second,
		ProbeConcurrency: 8,
		QuotaBytes:       5 * 1024 * 1024,
		WarnPercent:      80,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.ProbeTimeout <= 0 {
		c.ProbeTimeout = d.ProbeTimeout
	}
	if c.SettleDelay < 0 {
		c.SettleDelay = 0
	}
	if c.ProbeConcurrency <= 0 {
		c.ProbeConcurrency = d.ProbeConcurrency
	}
	if c.QuotaBytes <= 0 {
		c.QuotaBytes = d.QuotaBytes
	}
	if c.WarnPercent <= 0 {
		c.WarnPercent = d.WarnPercent
	}
	return c
}

type Engine struct {
	src        Sources
	log        *broadcast.Broadcast
	translator Translator
	prober     ImageProber
	logger     *slog.Logger
	metrics    *metrics.Metrics
	cfg        Config
	now        func() time.Time

	running atomic.Bool

	mu   sync.RWMutex
	last scanResult
}

type Option func(*Engine)

func WithTranslator(t Translator) Option {
	return func(e *Engine) { e.translator = t }
}

func WithProber(p ImageProber) Option {
	return func(e *Engine) { e.prober = p }
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

func WithConfig(cfg Config) Option {
	return func(e *Engine) { e.cfg = cfg }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func New(src Sources, log *broadcast.Broadcast, opts ...Option) (*Engine, error) {
	if err := src.validate(); err != nil {
		return nil, err
	}
	if log == nil {
		return nil, errors.New("log broadcast is required")
	}
	e := &Engine{
		src:    src,
		log:    log,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		cfg:    DefaultConfig(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.cfg = e.cfg.withDefaults()
	if e.translator == nil {
		e.translator = passthrough{}
	}
	if e.prober == nil {
		e.prober = NewHTTPProber(e.cfg.ProbeTimeout, nil)
	}
	return e, nil
}

// Running reports whether a run is in progress.
func (e *Engine) Running() bool { return e.running.Load() }

// Log returns the broadcast the engine reports to.
func (e *Engine) Log() *broadcast.Broadcast { return e.log }

// RunAll performs a full maintenance run and blocks until it finishes.
// Cancelling ctx does not stop a run that has started.
func (e *Engine) RunAll(ctx context.Context) (Report, error) {
	if !e.running.CompareAndSwap(false, true) {
		e.metrics.IncrementRun("skipped")
		return Report{}, ErrAlreadyRunning
	}
	defer e.running.Store(false)
	return e.run(context.WithoutCancel(ctx))
}

// Start launches a run in the background.
func (e *Engine) Start(ctx context.Context) error {
	if !e.running.CompareAndSwap(false, true) {
		e.metrics.IncrementRun("skipped")
		return ErrAlreadyRunning
	}
	go func() {
		defer e.running.Store(false)
		_, _ = e.run(context.WithoutCancel(ctx))
	}()
	return nil
}

func (e *Engine) run(ctx context.Context) (Report, error) {
	start := e.now()
	e.emit(ctx, TaskSystem, broadcast.StatusRunning, "Starting full system scan...")

	sc := newScan()
	var imageErr, integrityErr error

	var g errgroup.Group
	g.Go(func() error {
		imageErr = e.guard(ctx, TaskImageScan, func() error { return e.scanImages(ctx, sc) })
		return nil
	})
	g.Go(func() error {
		integrityErr = e.guard(ctx, TaskDataIntegrity, func() error { return e.backfillTranslations(ctx, sc) })
		return nil
	})
	if e.cfg.SettleDelay > 0 {
		g.Go(func() error {
			time.Sleep(e.cfg.SettleDelay)
			return nil
		})
	}
	_ = g.Wait()

	storageErr := e.guard(ctx, TaskStorage, func() error { return e.estimateStorage(ctx, sc) })

	result := sc.result(e.now())
	e.mu.Lock()
	e.last = result
	e.mu.Unlock()

	usage := e.usage(result.dataBytes + e.log.Size())
	e.metrics.RecordScan(result.broken, result.missing, usage)
	e.metrics.ObserveRunDuration(time.Since(start))

	report := Report{
		StartedAt:           start,
		FinishedAt:          result.at,
		BrokenLinks:         result.broken,
		ProfilesFixed:       result.fixed,
		MissingTranslations: result.missing,
		StorageUsage:        usage,
		Degraded:            result.degradedNames(),
	}

	err := errors.Join(imageErr, integrityErr, storageErr)
	if err != nil {
		e.metrics.IncrementRun("error")
		e.emit(ctx, TaskSystem, broadcast.StatusError, "Automation failed: "+err.Error())
		return report, err
	}
	e.metrics.IncrementRun("success")
	e.emit(ctx, TaskSystem, broadcast.StatusSuccess, "Automated maintenance completed successfully.")
	return report, nil
}

// guard runs one task, converting panics to errors and reporting failures.
func (e *Engine) guard(ctx context.Context, task string, fn func() error) error {
	err := protect(fn)
	if err == nil {
		return nil
	}
	err = fmt.Errorf("%s: %w", task, err)
	e.metrics.IncrementTaskFailure(task)
	e.emit(ctx, task, broadcast.StatusError, err.Error())
	return err
}

func protect(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

// emit writes to the operator log and the process log.
func (e *Engine) emit(ctx context.Context, task string, status broadcast.Status, msg string) {
	e.log.Append(task, status, msg)

	level := slog.LevelInfo
	switch status {
	case broadcast.StatusWarning:
		level = slog.LevelWarn
	case broadcast.StatusError:
		level = slog.LevelError
	}
	e.logger.Log(ctx, level, msg, "task", task, "status", string(status))
}

type passthrough struct{}

func (passthrough) Translate(_ context.Context, text string, _ models.Locale) string { return text }
