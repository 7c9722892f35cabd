package authlockout

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"azadi/internal/ratelimit/config"
	"azadi/internal/ratelimit/metrics"
	"azadi/internal/ratelimit/models"
	dErrors "azadi/pkg/domain-errors"
	"azadi/pkg/requestcontext"
)

type Store interface {
	Get(ctx context.Context, identifier string) (*models.AuthLockout, error)
	RecordFailure(ctx context.Context, identifier string) (*models.AuthLockout, error)
	Update(ctx context.Context, record *models.AuthLockout) error
	Clear(ctx context.Context, identifier string) error
}

type Service struct {
	store   Store
	logger  *slog.Logger
	config  config.AuthLockoutConfig
	metrics *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithConfig(cfg config.AuthLockoutConfig) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("auth lockout store is required")
	}
	svc := &Service{
		store:  store,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		config: config.DefaultConfig().AuthLockout,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Check reports whether identifier may attempt a login from ip.
func (s *Service) Check(ctx context.Context, identifier, ip string) (*models.AuthRateLimitResult, error) {
	key := models.NewAuthLockoutKey(identifier, ip).String()
	record, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to get auth lockout record")
	}
	// A zero record keeps one code path for known and unknown identifiers.
	if record == nil {
		record = &models.AuthLockout{}
	}
	now := requestcontext.Now(ctx)

	if record.IsLockedAt(now) {
		return &models.AuthRateLimitResult{
			RateLimitResult: models.RateLimitResult{
				Allowed:    false,
				ResetAt:    *record.LockedUntil,
				RetryAfter: max(int(record.LockedUntil.Sub(now).Seconds()), 1),
			},
			FailureCount: record.FailureCount,
		}, nil
	}

	resetAt := s.config.ResetTime(record.LastFailureAt)
	if record.IsAttemptLimitReached(s.config.AttemptsPerWindow) && now.Before(resetAt) {
		return &models.AuthRateLimitResult{
			RateLimitResult: models.RateLimitResult{
				Allowed:    false,
				ResetAt:    resetAt,
				RetryAfter: max(int(resetAt.Sub(now).Seconds()), 1),
			},
			FailureCount: record.FailureCount,
		}, nil
	}

	remaining := s.config.AttemptsPerWindow
	if now.Before(resetAt) {
		remaining = record.RemainingAttempts(s.config.AttemptsPerWindow)
	}
	return &models.AuthRateLimitResult{
		RateLimitResult: models.RateLimitResult{
			Allowed:   true,
			Limit:     s.config.AttemptsPerWindow,
			Remaining: remaining,
			ResetAt:   now.Add(s.config.WindowDuration),
		},
		FailureCount: record.FailureCount,
	}, nil
}

// RecordFailure counts a failed login and hard-locks the pair once the
// failures since the last success reach the threshold.
func (s *Service) RecordFailure(ctx context.Context, identifier, ip string) (*models.AuthLockout, error) {
	key := models.NewAuthLockoutKey(identifier, ip).String()
	current, err := s.store.RecordFailure(ctx, key)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record auth failure")
	}
	s.metrics.IncrementAuthFailures()

	if current.ShouldHardLock(s.config.HardLockThreshold) {
		current.ApplyHardLock(s.config.HardLockDuration, requestcontext.Now(ctx))
		if err := s.store.Update(ctx, current); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update auth lockout record")
		}
		s.metrics.IncrementAuthLockouts()
		s.logger.WarnContext(ctx, "auth lockout triggered",
			"identifier", identifier,
			"client_ip", ip,
			"locked_until", current.LockedUntil,
		)
	}
	return current, nil
}

// Clear forgets the failures of identifier from ip after a successful login.
func (s *Service) Clear(ctx context.Context, identifier, ip string) error {
	key := models.NewAuthLockoutKey(identifier, ip).String()
	if err := s.store.Clear(ctx, key); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear auth failures")
	}
	return nil
}
