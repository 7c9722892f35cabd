// Package settings reads and writes the AppSettings singleton, backfilling
// fields the stored document lacks from the defaults.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"azadi/internal/content/models"
	"azadi/internal/content/store"
	"azadi/internal/docstore"
)

const socialLinksKey = "socialLinks"

type Service struct {
	client   docstore.Client
	defaults models.AppSettings
	logger   *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(client docstore.Client, defaults models.AppSettings, opts ...Option) *Service {
	s := &Service{client: client, defaults: defaults.Clone(), logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Defaults returns a copy of the default settings.
func (s *Service) Defaults() models.AppSettings { return s.defaults.Clone() }

// Get returns the stored settings merged over the defaults. When the store
// is unreachable it returns the defaults with a *store.DegradedError. It
// never writes.
func (s *Service) Get(ctx context.Context) (models.AppSettings, error) {
	v, err := s.client.Fetch(ctx, models.SettingsPath)
	if err != nil {
		if errors.Is(err, docstore.ErrShape) {
			s.logger.WarnContext(ctx, "settings document is malformed, using defaults", "error", err)
			return s.Defaults(), nil
		}
		s.logger.WarnContext(ctx, "settings read failed, using defaults", "error", err)
		return s.Defaults(), &store.DegradedError{Collection: models.SettingsPath, Err: err}
	}
	if v.Kind() != docstore.KindMap {
		if !v.IsAbsent() {
			s.logger.WarnContext(ctx, "settings document is not an object, using defaults", "kind", v.Kind().String())
		}
		return s.Defaults(), nil
	}

	merged, err := Merge(s.defaults, v.Raw())
	if err != nil {
		s.logger.WarnContext(ctx, "settings merge failed, using defaults", "error", err)
		return s.Defaults(), nil
	}
	return merged, nil
}

// Update replaces the stored settings document.
func (s *Service) Update(ctx context.Context, settings models.AppSettings) error {
	return s.client.Put(ctx, models.SettingsPath, settings)
}

// EnsureSeeded writes the defaults when no settings document exists.
func (s *Service) EnsureSeeded(ctx context.Context) (bool, error) {
	v, err := s.client.Fetch(ctx, models.SettingsPath)
	if err != nil {
		return false, fmt.Errorf("check settings: %w", err)
	}
	if !v.IsAbsent() {
		return false, nil
	}
	if err := s.Update(ctx, s.defaults); err != nil {
		return false, err
	}
	return true, nil
}

// Merge overlays a stored settings document onto defaults.
func Merge(defaults models.AppSettings, stored json.RawMessage) (models.AppSettings, error) {
	base, err := toDocument(defaults)
	if err != nil {
		return models.AppSettings{}, err
	}
	var over map[string]any
	if err := json.Unmarshal(stored, &over); err != nil {
		return models.AppSettings{}, fmt.Errorf("%w: %v", docstore.ErrShape, err)
	}

	merged, err := json.Marshal(MergeDocuments(base, over))
	if err != nil {
		return models.AppSettings{}, err
	}
	var out models.AppSettings
	if err := json.Unmarshal(merged, &out); err != nil {
		return models.AppSettings{}, err
	}
	return out, nil
}

// MergeDocuments overlays stored onto defaults: stored values win, null or
// type-mismatched values keep the default, and the social link map merges
// per platform. Keys only present in stored are kept. defaults is not
// modified.
func MergeDocuments(defaults, stored map[string]any) map[string]any {
	out := make(map[string]any, len(defaults)+len(stored))
	for k, v := range defaults {
		out[k] = v
	}
	for k, v := range stored {
		if v == nil {
			continue
		}
		def, declared := defaults[k]
		if k == socialLinksKey {
			out[k] = mergeLinks(def, v)
			continue
		}
		if declared && def != nil && !sameKind(def, v) {
			continue
		}
		out[k] = v
	}
	return out
}

func mergeLinks(def, stored any) any {
	links := map[string]any{}
	if m, ok := def.(map[string]any); ok {
		for k, v := range m {
			links[k] = v
		}
	}
	m, ok := stored.(map[string]any)
	if !ok {
		return links
	}
	for k, v := range m {
		if _, isString := v.(string); isString {
			links[k] = v
		}
	}
	return links
}

func sameKind(a, b any) bool {
	switch a.(type) {
	case string:
		_, ok := b.(string)
		return ok
	case float64:
		_, ok := b.(float64)
		return ok
	case bool:
		_, ok := b.(bool)
		return ok
	case map[string]any:
		_, ok := b.(map[string]any)
		return ok
	case []any:
		_, ok := b.([]any)
		return ok
	default:
		return true
	}
}

func toDocument(s models.AppSettings) (map[string]any, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}
