package authlockout

import (
	"context"
	"sync"
	"time"

	"azadi/internal/ratelimit/models"
	"azadi/pkg/requestcontext"
)

const dailyWindow = 24 * time.Hour

// InMemoryAuthLockoutStore keeps login failure records in process memory.
// Records are copied in and out so callers cannot mutate stored state.
type InMemoryAuthLockoutStore struct {
	mu      sync.Mutex
	records map[string]*models.AuthLockout
	window  time.Duration
}

// New builds a store whose per-window failure count restarts once window
// has passed since the last failure.
func New(window time.Duration) *InMemoryAuthLockoutStore {
	return &InMemoryAuthLockoutStore{records: make(map[string]*models.AuthLockout), window: window}
}

func (s *InMemoryAuthLockoutStore) Get(_ context.Context, identifier string) (*models.AuthLockout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[identifier]
	if !ok {
		return nil, nil
	}
	return clone(r), nil
}

// RecordFailure counts one failed attempt at the request time.
func (s *InMemoryAuthLockoutStore) RecordFailure(ctx context.Context, identifier string) (*models.AuthLockout, error) {
	now := requestcontext.Now(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[identifier]
	if !ok {
		r = &models.AuthLockout{Identifier: identifier}
		s.records[identifier] = r
	}
	if ok && now.Sub(r.LastFailureAt) >= s.window {
		r.FailureCount = 0
	}
	if ok && now.Sub(r.LastFailureAt) >= dailyWindow {
		r.DailyFailures = 0
	}
	if r.LockedUntil != nil && !now.Before(*r.LockedUntil) {
		r.LockedUntil = nil
	}
	r.FailureCount++
	r.DailyFailures++
	r.LastFailureAt = now
	return clone(r), nil
}

func (s *InMemoryAuthLockoutStore) Update(_ context.Context, record *models.AuthLockout) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.Identifier] = clone(record)
	return nil
}

func (s *InMemoryAuthLockoutStore) Clear(_ context.Context, identifier string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, identifier)
	return nil
}

func clone(r *models.AuthLockout) *models.AuthLockout {
	out := *r
	if r.LockedUntil != nil {
		until := *r.LockedUntil
		out.LockedUntil = &until
	}
	return &out
}
